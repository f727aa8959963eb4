package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/go-badgelink/badgelink/internal/bitbadges"
	"github.com/go-badgelink/badgelink/internal/metrics"
	"github.com/go-badgelink/badgelink/internal/middleware"
	"github.com/go-badgelink/badgelink/internal/models"
	"github.com/go-badgelink/badgelink/internal/services"
)

func newConnectionRouter(
	client *stubLinkClient,
	reader *stubTokenReader,
	callerID string,
) *gin.Engine {
	gin.SetMode(gin.TestMode)
	audit := services.NewAuditService(nil, false, 10)
	svc := services.NewConnectionService(
		client, reader, audit, metrics.NewNoopMetrics(), "https://app/cb",
	)
	handler := NewConnectionHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if callerID != "" {
			c.Set(middleware.ContextUserID, callerID)
		}
	})
	router.GET("/api/connection", handler.Status)
	router.POST("/api/connection", handler.Connect)
	router.DELETE("/api/connection", handler.Disconnect)
	return router
}

func TestConnectionStatusNotConnected(t *testing.T) {
	router := newConnectionRouter(&stubLinkClient{}, &stubTokenReader{}, "u1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/connection", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"connected":false`)
}

func TestConnectionStatusConnected(t *testing.T) {
	reader := &stubTokenReader{record: &models.TokenRecord{
		UserID:           "u1",
		AccessToken:      "at-1",
		ExpiresAt:        time.Now().Add(time.Hour),
		BitBadgesAddress: "bb1abc",
		Chain:            "Cosmos",
	}}
	router := newConnectionRouter(&stubLinkClient{}, reader, "u1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/connection", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"connected":true`)
	assert.Contains(t, body, `"token_valid":true`)
	assert.Contains(t, body, `"bitbadges_address":"bb1abc"`)
	// token material never appears in the status payload
	assert.NotContains(t, body, "at-1")
}

func TestConnectionConnect(t *testing.T) {
	router := newConnectionRouter(&stubLinkClient{}, &stubTokenReader{}, "u1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/connection", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://bitbadges.io/siwbb/authorize")
}

func TestConnectionDisconnect(t *testing.T) {
	router := newConnectionRouter(&stubLinkClient{}, &stubTokenReader{}, "u1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/connection", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"disconnected":true`)
}

func TestConnectionDisconnectNothingConnected(t *testing.T) {
	client := &stubLinkClient{revokeErr: bitbadges.ErrNoRefreshToken}
	router := newConnectionRouter(client, &stubTokenReader{}, "u1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/connection", nil)
	router.ServeHTTP(w, req)

	// disconnecting an absent connection is a no-op success
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"disconnected":true`)
}

func TestConnectionDisconnectRemoteFailure(t *testing.T) {
	client := &stubLinkClient{revokeErr: bitbadges.ErrRevokeFailed}
	router := newConnectionRouter(client, &stubTokenReader{}, "u1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/connection", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
