package handlers

import (
	"errors"

	"github.com/go-badgelink/badgelink/internal/bitbadges"
	"github.com/go-badgelink/badgelink/internal/services"
)

// User-facing messages form a closed set. Raw error text from the provider
// or the database never reaches a response; errors.Is chains pick the
// message here and the details stay in logs.
const (
	msgProviderDenied   = "BitBadges denied the authorization request"
	msgMissingParams    = "The authorization response was incomplete"
	msgInvalidState     = "The authorization request could not be verified"
	msgExchangeFailed   = "Connecting to BitBadges failed, please try again"
	msgPersistFailed    = "Saving the connection failed, please try again"
	msgNotAuthenticated = "Sign in before connecting a BitBadges account"
	msgDisconnectFailed = "Disconnecting the BitBadges account failed"
	msgInternal         = "Something went wrong, please try again"
)

// userFacingMessage maps an error to its fixed user-facing message
func userFacingMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrProviderDenied):
		return msgProviderDenied
	case errors.Is(err, services.ErrMissingParameters):
		return msgMissingParams
	case errors.Is(err, services.ErrInvalidState):
		return msgInvalidState
	case errors.Is(err, bitbadges.ErrExchangeFailed):
		return msgExchangeFailed
	case errors.Is(err, bitbadges.ErrPersistFailed):
		return msgPersistFailed
	case errors.Is(err, bitbadges.ErrNotAuthenticated):
		return msgNotAuthenticated
	case errors.Is(err, bitbadges.ErrRevokeFailed):
		return msgDisconnectFailed
	default:
		return msgInternal
	}
}
