package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	retry "github.com/appleboy/go-httpretry"

	"github.com/go-badgelink/badgelink/internal/config"
)

// HTTPAPIVerifier resolves caller identity via an external HTTP identity API.
// The request carries the caller's bearer credential; the API answers with the
// stable user id it maps to. Verification is a read-only check, so the call
// goes through the retrying client.
type HTTPAPIVerifier struct {
	config      *config.Config
	retryClient *retry.Client
}

// NewHTTPAPIVerifier creates a new HTTP API identity verifier
func NewHTTPAPIVerifier(cfg *config.Config, retryClient *retry.Client) *HTTPAPIVerifier {
	return &HTTPAPIVerifier{
		config:      cfg,
		retryClient: retryClient,
	}
}

// apiVerifyRequest is the request payload sent to the identity API
type apiVerifyRequest struct {
	Credential string `json:"credential"`
}

// apiVerifyResponse is the expected response from the identity API
type apiVerifyResponse struct {
	Active  bool   `json:"active"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Verify checks the credential against the external identity API
func (p *HTTPAPIVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrNotAuthenticated
	}

	reqBody := apiVerifyRequest{Credential: credential}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Authentication headers are added automatically by the underlying client
	resp, err := p.retryClient.Post(
		ctx,
		p.config.IdentityAPIURL,
		retry.WithBody("application/json", bytes.NewBuffer(jsonData)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrAPIInvalidResp)
	}

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return nil, ErrNotAuthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrAPIRejected, resp.StatusCode)
	}

	var apiResp apiVerifyResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIInvalidResp, err)
	}

	if !apiResp.Active || apiResp.UserID == "" {
		return nil, ErrNotAuthenticated
	}

	return &Identity{UserID: apiResp.UserID}, nil
}
