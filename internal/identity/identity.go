// Package identity adapts the application's identity provider: the external
// system that knows who the current user is. The link flow never trusts an
// ambient session object; middleware resolves an Identity once per request
// and every downstream operation receives the user id as an explicit
// parameter.
package identity

import "context"

// Identity is the resolved caller identity for one request.
type Identity struct {
	UserID string
}

// Verifier checks a caller-supplied credential against the identity provider
// and returns the stable user id it maps to.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}
