package identity

import "errors"

var (
	// ErrNotAuthenticated indicates no valid caller identity could be resolved
	ErrNotAuthenticated = errors.New("caller is not authenticated")

	// HTTP API errors
	ErrAPIConnection  = errors.New("failed to connect to identity API")
	ErrAPIRejected    = errors.New("identity API rejected credential")
	ErrAPIInvalidResp = errors.New("invalid response from identity API")
)
