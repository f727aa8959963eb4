// Package bitbadges implements the client side of the BitBadges SIWBB
// ("Sign In With BitBadges") OAuth-style flow: authorize URL construction,
// authorization code exchange, token validation, and revocation.
package bitbadges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-badgelink/badgelink/internal/config"
	"github.com/go-badgelink/badgelink/internal/models"
	"github.com/go-badgelink/badgelink/internal/store"
)

// TokenStore is the persistence surface the client needs. *store.Store
// satisfies it; tests substitute in-memory fakes.
type TokenStore interface {
	UpsertToken(ctx context.Context, record *models.TokenRecord) error
	GetToken(ctx context.Context, userID string) (*models.TokenRecord, error)
	DeleteToken(ctx context.Context, userID string) error
	MarkRevokePending(ctx context.Context, userID string, at time.Time) error
}

// Compile-time check that the gorm store satisfies TokenStore.
var _ TokenStore = (*store.Store)(nil)

// TokenResponse is the JSON payload returned by the SIWBB token endpoint.
// The shape is vendor-defined and not RFC 6749-compliant: expiry arrives as
// an absolute millisecond timestamp and the payload carries chain identity
// fields alongside the token pair.
type TokenResponse struct {
	AccessToken          string `json:"access_token"`
	TokenType            string `json:"token_type"`
	ExpiresIn            int64  `json:"expires_in"`
	RefreshToken         string `json:"refresh_token,omitempty"`
	AccessTokenExpiresAt int64  `json:"access_token_expires_at"` // unix millis
	Address              string `json:"address"`
	Chain                string `json:"chain"`
	BitBadgesAddress     string `json:"bitbadgesAddress"`
}

// Client performs the SIWBB link flow against the remote OAuth authority.
// Every operation takes the caller's user id explicitly; the client holds
// no session state. None of the HTTP calls are retried.
type Client struct {
	authorizeURL string
	tokenURL     string
	revokeURL    string
	redirectURI  string

	clientID     string
	clientSecret string
	apiKey       string

	store      TokenStore
	httpClient *http.Client

	// now is swappable for expiry boundary tests
	now func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom http.Client for the remote authority calls
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClock sets a custom time source
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a SIWBB client from configuration
func New(cfg *config.Config, tokenStore TokenStore, opts ...Option) *Client {
	c := &Client{
		authorizeURL: cfg.AuthorizeURL,
		tokenURL:     cfg.TokenURL,
		revokeURL:    cfg.RevokeURL,
		redirectURI:  cfg.BitBadgesRedirectURI,
		clientID:     cfg.BitBadgesClientID,
		clientSecret: cfg.BitBadgesClientSecret,
		apiKey:       cfg.BitBadgesAPIKey,
		store:        tokenStore,
		httpClient:   http.DefaultClient,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthorizeURL builds the authorization redirect target for the user.
// The user id doubles as the OAuth state parameter: the callback checks it
// against the authenticated caller. That binding is the flow's only CSRF
// defense; see the open question recorded in DESIGN.md.
func (c *Client) AuthorizeURL(userID string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}

	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", c.redirectURI)
	params.Set("response_type", "code")
	params.Set("state", userID)
	params.Set("scope", "")

	return c.authorizeURL + "?" + params.Encode(), nil
}

// Exchange trades an authorization code for a token pair and persists the
// resulting record keyed by user id. A persistence failure after a
// successful exchange surfaces as ErrPersistFailed; the obtained token is
// not rolled back.
func (c *Client) Exchange(
	ctx context.Context,
	userID, code, redirectURI string,
) (*models.TokenRecord, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	tokenResp, err := c.postForm(ctx, c.tokenURL, form, ErrExchangeFailed)
	if err != nil {
		return nil, err
	}

	record := &models.TokenRecord{
		UserID:           userID,
		AccessToken:      tokenResp.AccessToken,
		RefreshToken:     tokenResp.RefreshToken,
		ExpiresAt:        time.UnixMilli(tokenResp.AccessTokenExpiresAt),
		BitBadgesAddress: tokenResp.BitBadgesAddress,
		Chain:            tokenResp.Chain,
	}

	if err := c.store.UpsertToken(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	return record, nil
}

// Revoke invalidates the user's refresh token at the remote authority and
// removes the local record. The record is flagged revoke-pending before the
// remote call so the reconciliation sweep can clean up if the local delete
// never completes.
func (c *Client) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}

	record, err := c.store.GetToken(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrNoRefreshToken
		}
		return err
	}
	if record.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	if err := c.store.MarkRevokePending(ctx, userID, c.now()); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("token", record.RefreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	if _, err := c.postForm(ctx, c.revokeURL, form, ErrRevokeFailed); err != nil {
		return err
	}

	return c.store.DeleteToken(ctx, userID)
}

// ValidAccessToken returns the stored access token after checking expiry.
// A token whose expiry equals the current time is already expired. No
// refresh exchange is attempted on expiry.
func (c *Client) ValidAccessToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}

	record, err := c.store.GetToken(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNoToken
		}
		return "", err
	}

	if record.Expired(c.now()) {
		return "", ErrTokenExpired
	}

	return record.AccessToken, nil
}

// Refresh is the reserved hook for refresh-token renewal. The vendor issues
// refresh tokens but renewal semantics are an open product question, so the
// interface exists and the implementation refuses.
func (c *Client) Refresh(ctx context.Context, userID string) (*models.TokenRecord, error) {
	return nil, ErrRefreshNotSupported
}

// postForm performs one form-encoded POST to the remote authority. The
// x-api-key header is required by the vendor on both token endpoints.
// A non-2xx status maps to failSentinel carrying the HTTP status text.
func (c *Client) postForm(
	ctx context.Context,
	endpoint string,
	form url.Values,
	failSentinel error,
) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failSentinel, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failSentinel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", failSentinel)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", failSentinel, resp.Status)
	}

	tokenResp := &TokenResponse{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, tokenResp); err != nil {
			return nil, fmt.Errorf("%w: %v", failSentinel, err)
		}
	}

	return tokenResp, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrRecordNotFound)
}
