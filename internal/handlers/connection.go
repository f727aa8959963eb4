package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-badgelink/badgelink/internal/bitbadges"
	"github.com/go-badgelink/badgelink/internal/middleware"
	"github.com/go-badgelink/badgelink/internal/services"
)

// ConnectionHandler serves the JSON connection API. All routes run behind
// RequireIdentity, so the caller id is always present.
type ConnectionHandler struct {
	service *services.ConnectionService
}

// NewConnectionHandler creates a connection handler
func NewConnectionHandler(service *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// Status handles GET /api/connection
func (h *ConnectionHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": userFacingMessage(err)})
		return
	}

	c.JSON(http.StatusOK, status)
}

// Connect handles POST /api/connection and returns the authorization URL
// the client should navigate to.
func (h *ConnectionHandler) Connect(c *gin.Context) {
	authURL, err := h.service.Connect(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, bitbadges.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": userFacingMessage(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": userFacingMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorize_url": authURL})
}

// Disconnect handles DELETE /api/connection. Disconnecting when nothing is
// connected succeeds; the end state is the same.
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	err := h.service.Disconnect(c.Request.Context(), middleware.UserID(c))
	switch {
	case err == nil, errors.Is(err, bitbadges.ErrNoRefreshToken):
		c.JSON(http.StatusOK, gin.H{"disconnected": true})
	case errors.Is(err, bitbadges.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": userFacingMessage(err)})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": userFacingMessage(err)})
	}
}
