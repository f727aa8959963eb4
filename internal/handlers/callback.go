// Package handlers contains the gin HTTP handlers for the link flow:
// the OAuth callback and the JSON connection API.
package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/go-badgelink/badgelink/internal/middleware"
	"github.com/go-badgelink/badgelink/internal/services"
)

// CallbackHandler receives the provider's redirect after the user approves
// or denies the authorization request.
type CallbackHandler struct {
	service     *services.ConnectionService
	successPath string
}

// NewCallbackHandler creates a callback handler
func NewCallbackHandler(service *services.ConnectionService, successPath string) *CallbackHandler {
	return &CallbackHandler{
		service:     service,
		successPath: successPath,
	}
}

// Callback handles GET on the OAuth redirect URI. The browser always gets a
// 302 back into the application; failures carry a fixed message in the
// error query parameter, never the underlying error text.
func (h *CallbackHandler) Callback(c *gin.Context) {
	params := services.CallbackParams{
		Code:          c.Query("code"),
		State:         c.Query("state"),
		ProviderError: c.Query("error"),
	}

	callerID := middleware.UserID(c)

	if err := h.service.HandleCallback(c.Request.Context(), callerID, params); err != nil {
		h.redirectWithError(c, userFacingMessage(err))
		return
	}

	c.Redirect(http.StatusFound, h.successPath)
}

func (h *CallbackHandler) redirectWithError(c *gin.Context, message string) {
	target := h.successPath + "?error=" + url.QueryEscape(message)
	c.Redirect(http.StatusFound, target)
}
