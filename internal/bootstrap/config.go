package bootstrap

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-badgelink/badgelink/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := validateIdentityConfig(cfg); err != nil {
		log.Fatalf("Invalid identity configuration: %v", err)
	}
}

// validateIdentityConfig checks that required config is present for the
// selected identity mode
func validateIdentityConfig(cfg *config.Config) error {
	switch cfg.IdentityMode {
	case config.IdentityModeHTTPAPI:
		if cfg.IdentityAPIURL == "" {
			return errors.New("IDENTITY_API_URL is required when IDENTITY_MODE=http_api")
		}
	case config.IdentityModeSession:
		if cfg.SessionSecret == "" {
			return errors.New("SESSION_SECRET is required when IDENTITY_MODE=session")
		}
	default:
		return fmt.Errorf("invalid IDENTITY_MODE: %s (must be: session, http_api)", cfg.IdentityMode)
	}
	return nil
}
