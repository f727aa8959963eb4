package bitbadges

import "errors"

// The closed set of link-flow errors. Handlers map these to fixed
// user-facing messages; raw error text never crosses the HTTP boundary.
var (
	// ErrNotAuthenticated indicates an operation was invoked without a caller identity
	ErrNotAuthenticated = errors.New("caller is not authenticated")

	// ErrExchangeFailed indicates the token endpoint rejected the code exchange
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrPersistFailed indicates the exchange succeeded but the token record
	// could not be stored. The obtained token is not retried or rolled back.
	ErrPersistFailed = errors.New("failed to persist token record")

	// ErrRevokeFailed indicates the revoke endpoint rejected the request
	ErrRevokeFailed = errors.New("token revocation failed")

	// ErrNoRefreshToken indicates no stored refresh token exists to revoke
	ErrNoRefreshToken = errors.New("no refresh token found")

	// ErrNoToken indicates no token record exists for the user
	ErrNoToken = errors.New("no token found")

	// ErrTokenExpired indicates the stored access token has expired.
	// No refresh exchange is attempted; see Refresh.
	ErrTokenExpired = errors.New("token expired")

	// ErrRefreshNotSupported is returned by Refresh until refresh-token
	// renewal semantics are decided.
	ErrRefreshNotSupported = errors.New("token refresh not supported")
)
