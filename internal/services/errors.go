package services

import "errors"

var (
	// ErrMissingParameters indicates the OAuth callback arrived without a
	// code or state parameter.
	ErrMissingParameters = errors.New("missing callback parameters")

	// ErrInvalidState indicates the callback state does not match the
	// authenticated caller, or there is no authenticated caller.
	ErrInvalidState = errors.New("state parameter mismatch")

	// ErrProviderDenied indicates the provider redirected back with an
	// error instead of an authorization code.
	ErrProviderDenied = errors.New("provider denied authorization")
)
