package bootstrap

import (
	"github.com/go-badgelink/badgelink/internal/config"
	"github.com/go-badgelink/badgelink/internal/handlers"
	"github.com/go-badgelink/badgelink/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	callback   *handlers.CallbackHandler
	connection *handlers.ConnectionHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	connectionService *services.ConnectionService,
) handlerSet {
	return handlerSet{
		callback:   handlers.NewCallbackHandler(connectionService, cfg.SuccessRedirectPath),
		connection: handlers.NewConnectionHandler(connectionService),
	}
}
