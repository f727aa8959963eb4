// Package services holds the business logic between the HTTP handlers and
// the token store: connection lifecycle decisions and audit logging.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-badgelink/badgelink/internal/bitbadges"
	"github.com/go-badgelink/badgelink/internal/metrics"
	"github.com/go-badgelink/badgelink/internal/models"
	"github.com/go-badgelink/badgelink/internal/store"
)

// LinkClient is the OAuth surface the connection service drives.
// *bitbadges.Client satisfies it.
type LinkClient interface {
	AuthorizeURL(userID string) (string, error)
	Exchange(ctx context.Context, userID, code, redirectURI string) (*models.TokenRecord, error)
	Revoke(ctx context.Context, userID string) error
	ValidAccessToken(ctx context.Context, userID string) (string, error)
}

var _ LinkClient = (*bitbadges.Client)(nil)

// tokenReader reads stored token records for status reporting
type tokenReader interface {
	GetToken(ctx context.Context, userID string) (*models.TokenRecord, error)
}

// ConnectionStatus describes the link between a user and their BitBadges
// identity. Token material never leaves the service.
type ConnectionStatus struct {
	Connected        bool       `json:"connected"`
	TokenValid       bool       `json:"token_valid"`
	BitBadgesAddress string     `json:"bitbadges_address,omitempty"`
	Chain            string     `json:"chain,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// CallbackParams carries the raw query parameters of the OAuth callback
type CallbackParams struct {
	Code          string
	State         string
	ProviderError string
}

// ConnectionService implements the connection lifecycle. Every method takes
// the caller's user id as an explicit argument; identity resolution happens
// in middleware, never here.
type ConnectionService struct {
	client      LinkClient
	store       tokenReader
	audit       *AuditService
	metrics     metrics.Recorder
	redirectURI string
	now         func() time.Time
}

// NewConnectionService creates a connection service
func NewConnectionService(
	client LinkClient,
	tokenStore tokenReader,
	audit *AuditService,
	recorder metrics.Recorder,
	redirectURI string,
) *ConnectionService {
	return &ConnectionService{
		client:      client,
		store:       tokenStore,
		audit:       audit,
		metrics:     recorder,
		redirectURI: redirectURI,
		now:         time.Now,
	}
}

// Status reports whether the user has a BitBadges connection and whether
// its access token is still valid. Reads go straight to the store so a
// connect or disconnect is visible immediately.
func (s *ConnectionService) Status(ctx context.Context, userID string) (*ConnectionStatus, error) {
	if userID == "" {
		return nil, bitbadges.ErrNotAuthenticated
	}

	record, err := s.store.GetToken(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return &ConnectionStatus{Connected: false}, nil
		}
		return nil, err
	}

	// A revoke-pending record is mid-disconnect; report it as gone
	if record.RevokePending {
		return &ConnectionStatus{Connected: false}, nil
	}

	expiresAt := record.ExpiresAt
	return &ConnectionStatus{
		Connected:        true,
		TokenValid:       !record.Expired(s.now()),
		BitBadgesAddress: record.BitBadgesAddress,
		Chain:            record.Chain,
		ExpiresAt:        &expiresAt,
	}, nil
}

// Connect starts the link flow, returning the authorization URL the browser
// should be sent to.
func (s *ConnectionService) Connect(ctx context.Context, userID string) (string, error) {
	authURL, err := s.client.AuthorizeURL(userID)
	if err != nil {
		s.metrics.RecordAuthorizeRedirect(false)
		return "", err
	}

	s.metrics.RecordAuthorizeRedirect(true)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:   models.EventLinkInitiated,
		Severity:    models.SeverityInfo,
		ActorUserID: userID,
		Success:     true,
	})

	return authURL, nil
}

// HandleCallback processes the provider's redirect back. Parameters are
// validated in a fixed order: provider error first, then presence of code
// and state, then the state-caller binding, then the code exchange. The
// callerID comes from the session or verified credential; an empty callerID
// fails the state check like any other mismatch.
func (s *ConnectionService) HandleCallback(
	ctx context.Context,
	callerID string,
	params CallbackParams,
) error {
	if params.ProviderError != "" {
		s.metrics.RecordCallback(metrics.CallbackProviderError)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventLinkCallback,
			Severity:    models.SeverityWarning,
			ActorUserID: callerID,
			Success:     false,
			ErrorKind:   "provider_denied",
			Details:     models.AuditDetails{"provider_error": params.ProviderError},
		})
		return ErrProviderDenied
	}

	if params.Code == "" || params.State == "" {
		s.metrics.RecordCallback(metrics.CallbackMissingParams)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventLinkCallback,
			Severity:    models.SeverityWarning,
			ActorUserID: callerID,
			Success:     false,
			ErrorKind:   "missing_parameters",
		})
		return ErrMissingParameters
	}

	if callerID == "" || params.State != callerID {
		s.metrics.RecordCallback(metrics.CallbackInvalidState)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventStateMismatch,
			Severity:    models.SeverityError,
			ActorUserID: callerID,
			Success:     false,
			ErrorKind:   "invalid_state",
		})
		return ErrInvalidState
	}

	start := s.now()
	record, err := s.client.Exchange(ctx, callerID, params.Code, s.redirectURI)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.RecordExchange(false, elapsed)
		kind := "exchange_failed"
		label := metrics.CallbackExchangeFailed
		if errors.Is(err, bitbadges.ErrPersistFailed) {
			kind = "persist_failed"
			label = metrics.CallbackPersistFailed
		}
		s.metrics.RecordCallback(label)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventLinkCallback,
			Severity:    models.SeverityError,
			ActorUserID: callerID,
			Success:     false,
			ErrorKind:   kind,
		})
		return err
	}

	s.metrics.RecordExchange(true, elapsed)
	s.metrics.RecordCallback(metrics.CallbackSuccess)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:   models.EventLinkEstablished,
		Severity:    models.SeverityInfo,
		ActorUserID: callerID,
		Success:     true,
		Details: models.AuditDetails{
			"bitbadges_address": record.BitBadgesAddress,
			"chain":             record.Chain,
		},
	})

	return nil
}

// Disconnect revokes the user's refresh token remotely and removes the
// stored record. Revoking an absent connection is not an error worth
// surfacing differently; callers map ErrNoRefreshToken to a no-op response.
func (s *ConnectionService) Disconnect(ctx context.Context, userID string) error {
	err := s.client.Revoke(ctx, userID)
	switch {
	case err == nil:
		s.metrics.RecordRevoke(metrics.RevokeSuccess)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventLinkDisconnected,
			Severity:    models.SeverityInfo,
			ActorUserID: userID,
			Success:     true,
		})
	case errors.Is(err, bitbadges.ErrNoRefreshToken):
		s.metrics.RecordRevoke(metrics.RevokeNoRefreshToken)
	case errors.Is(err, bitbadges.ErrRevokeFailed):
		s.metrics.RecordRevoke(metrics.RevokeRemoteFailed)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventTokenRevoked,
			Severity:    models.SeverityError,
			ActorUserID: userID,
			Success:     false,
			ErrorKind:   "revoke_remote_failed",
		})
	default:
		s.metrics.RecordRevoke(metrics.RevokeDeleteFailed)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventTokenRevoked,
			Severity:    models.SeverityError,
			ActorUserID: userID,
			Success:     false,
			ErrorKind:   "revoke_delete_failed",
		})
	}
	return err
}

// AccessToken returns the user's access token for upstream API calls,
// recording the validation outcome.
func (s *ConnectionService) AccessToken(ctx context.Context, userID string) (string, error) {
	start := s.now()
	token, err := s.client.ValidAccessToken(ctx, userID)
	elapsed := s.now().Sub(start)

	switch {
	case err == nil:
		s.metrics.RecordTokenValidation(metrics.ValidationValid, elapsed)
	case errors.Is(err, bitbadges.ErrTokenExpired):
		s.metrics.RecordTokenValidation(metrics.ValidationExpired, elapsed)
		s.audit.Log(ctx, AuditLogEntry{
			EventType:   models.EventTokenExpired,
			Severity:    models.SeverityInfo,
			ActorUserID: userID,
			Success:     false,
			ErrorKind:   "token_expired",
		})
	case errors.Is(err, bitbadges.ErrNoToken):
		s.metrics.RecordTokenValidation(metrics.ValidationAbsent, elapsed)
	}

	return token, err
}
