package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	m := Init(true)
	assert.NotNil(t, m)

	// Type assert to concrete Metrics to access fields
	metrics, ok := m.(*Metrics)
	assert.True(t, ok, "Init(true) should return *Metrics")
	assert.NotNil(t, metrics.AuthorizeRedirectsTotal)
	assert.NotNil(t, metrics.CallbacksTotal)
	assert.NotNil(t, metrics.ExchangesTotal)
	assert.NotNil(t, metrics.RevokesTotal)
	assert.NotNil(t, metrics.TokenValidationTotal)
	assert.NotNil(t, metrics.ConnectedAccounts)
	assert.NotNil(t, metrics.HTTPRequestsTotal)
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	assert.NotNil(t, m)

	// Type assert to NoopMetrics
	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "Init(false) should return *NoopMetrics")
}

func TestInitReturnsSameInstance(t *testing.T) {
	m1 := Init(true)
	m2 := Init(true)
	assert.Equal(t, m1, m2, "Init(true) should return the same instance")
}

func TestRecordAuthorizeRedirect(t *testing.T) {
	m := Init(true)

	m.RecordAuthorizeRedirect(true)
	m.RecordAuthorizeRedirect(false)
	// No error means success - prometheus metrics don't return errors for recording
}

func TestRecordCallback(t *testing.T) {
	m := Init(true)

	m.RecordCallback(CallbackSuccess)
	m.RecordCallback(CallbackProviderError)
	m.RecordCallback(CallbackInvalidState)
	// No error means success
}

func TestRecordExchange(t *testing.T) {
	m := Init(true)

	m.RecordExchange(true, 100*time.Millisecond)
	m.RecordExchange(false, 2*time.Second)
	// No error means success
}

func TestRecordRevoke(t *testing.T) {
	m := Init(true)

	m.RecordRevoke(RevokeSuccess)
	m.RecordRevoke(RevokeRemoteFailed)
	// No error means success
}

func TestRecordTokenValidation(t *testing.T) {
	m := Init(true)

	m.RecordTokenValidation(ValidationValid, 5*time.Millisecond)
	m.RecordTokenValidation(ValidationExpired, 5*time.Millisecond)
	m.RecordTokenValidation(ValidationAbsent, 5*time.Millisecond)
	// No error means success
}

func TestSetConnectedAccounts(t *testing.T) {
	m := Init(true)

	m.SetConnectedAccounts(0)
	m.SetConnectedAccounts(42)
	// No error means success
}

func TestRecordDatabaseQueryError(t *testing.T) {
	m := Init(true)

	m.RecordDatabaseQueryError("count_connected_accounts")
	// No error means success
}

func TestNoopMetricsRecording(t *testing.T) {
	m := NewNoopMetrics()

	// None of these should panic
	m.RecordAuthorizeRedirect(true)
	m.RecordCallback(CallbackSuccess)
	m.RecordExchange(true, time.Second)
	m.RecordRevoke(RevokeSuccess)
	m.RecordTokenValidation(ValidationValid, time.Second)
	m.SetConnectedAccounts(10)
	m.RecordDatabaseQueryError("health")
}
