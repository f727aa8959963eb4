package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-badgelink/badgelink/internal/config"
)

func TestValidateIdentityConfig(t *testing.T) {
	assert.NoError(t, validateIdentityConfig(&config.Config{
		IdentityMode:  config.IdentityModeSession,
		SessionSecret: "s3cret",
	}))
	assert.NoError(t, validateIdentityConfig(&config.Config{
		IdentityMode:   config.IdentityModeHTTPAPI,
		IdentityAPIURL: "http://identity.example.com",
	}))

	err := validateIdentityConfig(&config.Config{IdentityMode: config.IdentityModeHTTPAPI})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDENTITY_API_URL is required")

	err = validateIdentityConfig(&config.Config{IdentityMode: config.IdentityModeSession})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET is required")

	err = validateIdentityConfig(&config.Config{IdentityMode: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid IDENTITY_MODE")
}

func TestInitializeMetrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := &config.Config{MetricsEnabled: enabled}
		m := initializeMetrics(cfg)
		require.NotNil(t, m)
	}
}

func TestInitializeMetricsCacheDisabled(t *testing.T) {
	ctx := context.Background()

	// Metrics disabled - no cache
	c, closer, err := initializeMetricsCache(
		ctx,
		&config.Config{MetricsEnabled: false, MetricsGaugeUpdateEnabled: true},
	)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, closer)

	// Gauge updates disabled - no cache
	c, closer, err = initializeMetricsCache(
		ctx,
		&config.Config{MetricsEnabled: true, MetricsGaugeUpdateEnabled: false},
	)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, closer)
}

func TestInitializeMetricsCacheMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		MetricsEnabled:            true,
		MetricsGaugeUpdateEnabled: true,
		MetricsCacheType:          config.MetricsCacheTypeMemory,
	}
	c, closer, err := initializeMetricsCache(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, closer)
	_ = closer()
}

func TestInitializeIdentityVerifierSessionMode(t *testing.T) {
	verifier, err := initializeIdentityVerifier(&config.Config{
		IdentityMode: config.IdentityModeSession,
	})
	require.NoError(t, err)
	assert.Nil(t, verifier)
}

func TestSetupRateLimitingDisabled(t *testing.T) {
	limiters := setupRateLimiting(&config.Config{EnableRateLimit: false}, nil)
	require.NotNil(t, limiters.connect)
	require.NotNil(t, limiters.callback)

	// Verify noop middlewares don't panic
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.NotPanics(t, func() { limiters.connect(c) })
}

func TestSetupRateLimitingMemory(t *testing.T) {
	cfg := &config.Config{
		EnableRateLimit:   true,
		RateLimitStore:    "memory",
		ConnectRateLimit:  10,
		CallbackRateLimit: 30,
	}
	limiters := setupRateLimiting(cfg, nil)
	require.NotNil(t, limiters.connect)
	require.NotNil(t, limiters.callback)
}

func TestCreateHTTPServer(t *testing.T) {
	srv := createHTTPServer(
		&config.Config{ServerAddr: ":8080"},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
}

func TestGinModeMap(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginModeMap[true])
	assert.Equal(t, gin.DebugMode, ginModeMap[false])
}

func TestErrorLogger(t *testing.T) {
	el := newErrorLogger()
	require.NotNil(t, el)
	assert.NotNil(t, el.lastErrorTimes)

	// Both calls should not panic
	assert.NotPanics(t, func() { el.logIfNeeded("test_op", assert.AnError) })
	assert.NotPanics(t, func() { el.logIfNeeded("test_op", assert.AnError) })
}
