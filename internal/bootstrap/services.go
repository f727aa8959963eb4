package bootstrap

import (
	"fmt"
	"log"
	"net/http"

	"github.com/appleboy/go-httpclient"

	"github.com/go-badgelink/badgelink/internal/bitbadges"
	"github.com/go-badgelink/badgelink/internal/client"
	"github.com/go-badgelink/badgelink/internal/config"
	"github.com/go-badgelink/badgelink/internal/identity"
	"github.com/go-badgelink/badgelink/internal/metrics"
	"github.com/go-badgelink/badgelink/internal/services"
	"github.com/go-badgelink/badgelink/internal/store"
)

// initializeIdentityVerifier creates the identity verifier for http_api
// mode. Session mode resolves identity from the cookie session and needs
// no verifier.
func initializeIdentityVerifier(cfg *config.Config) (identity.Verifier, error) {
	if cfg.IdentityMode != config.IdentityModeHTTPAPI {
		log.Printf("Identity mode: session")
		return nil, nil
	}

	retryClient, err := client.CreateRetryClient(
		cfg.IdentityAPIAuthMode,
		cfg.IdentityAPIAuthSecret,
		cfg.IdentityAPITimeout,
		cfg.IdentityAPIInsecureSkipVerify,
		cfg.IdentityAPIMaxRetries,
		cfg.IdentityAPIRetryDelay,
		cfg.IdentityAPIMaxRetryDelay,
		cfg.IdentityAPIAuthHeader,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity API client: %w", err)
	}

	log.Printf("Identity mode: http_api (url: %s)", cfg.IdentityAPIURL)
	return identity.NewHTTPAPIVerifier(cfg, retryClient), nil
}

// initializeConnectionService wires the BitBadges client and the connection
// service together.
func initializeConnectionService(
	cfg *config.Config,
	db *store.Store,
	auditService *services.AuditService,
	recorder metrics.Recorder,
) *services.ConnectionService {
	linkClient := bitbadges.New(
		cfg,
		db,
		bitbadges.WithHTTPClient(createLinkHTTPClient(cfg)),
	)

	return services.NewConnectionService(
		linkClient,
		db,
		auditService,
		recorder,
		cfg.BitBadgesRedirectURI,
	)
}

// createLinkHTTPClient creates the HTTP client for BitBadges requests with
// an optimized connection pool. Link-flow requests are never retried; an
// authorization code burns on first use.
func createLinkHTTPClient(cfg *config.Config) *http.Client {
	if cfg.OAuthInsecureSkipVerify {
		log.Printf("WARNING: OAuth TLS verification is disabled (OAUTH_INSECURE_SKIP_VERIFY=true)")
	}

	transport := client.CreateOptimizedTransport(cfg.OAuthInsecureSkipVerify)

	httpClient, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.OAuthTimeout),
		httpclient.WithTransport(transport),
	)
	if err != nil {
		log.Fatalf("Failed to create BitBadges HTTP client: %v", err)
	}

	return httpClient
}
