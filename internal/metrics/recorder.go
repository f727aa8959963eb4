package metrics

import "time"

// Callback outcome labels, the closed result set recorded at the HTTP boundary
const (
	CallbackSuccess        = "success"
	CallbackProviderError  = "provider_error"
	CallbackMissingParams  = "missing_parameters"
	CallbackInvalidState   = "invalid_state"
	CallbackExchangeFailed = "exchange_failed"
	CallbackPersistFailed  = "persist_failed"
)

// Token validation result labels
const (
	ValidationValid   = "valid"
	ValidationExpired = "expired"
	ValidationAbsent  = "absent"
)

// Revoke result labels
const (
	RevokeSuccess        = "success"
	RevokeNoRefreshToken = "no_refresh_token"
	RevokeRemoteFailed   = "remote_failed"
	RevokeDeleteFailed   = "delete_failed"
)

// Recorder defines the interface for recording link-flow metrics.
// Both the Prometheus implementation and NoopMetrics satisfy it.
type Recorder interface {
	// Link flow
	RecordAuthorizeRedirect(success bool)
	RecordCallback(result string)
	RecordExchange(success bool, duration time.Duration)
	RecordRevoke(result string)
	RecordTokenValidation(result string, duration time.Duration)

	// Gauges (periodic updates)
	SetConnectedAccounts(count int)

	// Infrastructure
	RecordDatabaseQueryError(operation string)
}
