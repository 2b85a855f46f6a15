package authflow

import (
	"io"

	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/flows"
	internalmetrics "github.com/MrEthical07/authflow/internal/metrics"
	"github.com/MrEthical07/authflow/session"
)

// Session is the authenticated session a provider sign-in returns.
type Session = session.Session

// FlowState is the observable state of one form.
type FlowState = flows.State

// Status is the coarse lifecycle position in a FlowState.
type Status = flows.Status

const (
	StatusIdle                 = flows.StatusIdle
	StatusSubmitting           = flows.StatusSubmitting
	StatusAwaitingVerification = flows.StatusAwaitingVerification
	StatusSucceeded            = flows.StatusSucceeded
	StatusFailed               = flows.StatusFailed
	StatusConfirmPending       = flows.StatusConfirmPending
	StatusLoggingOut           = flows.StatusLoggingOut
)

// ErrorKind classifies the inline error of a FlowState.
type ErrorKind = flows.ErrorKind

const (
	KindNone                 = flows.KindNone
	KindValidation           = flows.KindValidation
	KindCredential           = flows.KindCredential
	KindVerificationRequired = flows.KindVerificationRequired
	KindTransientDispatch    = flows.KindTransientDispatch
	KindFederated            = flows.KindFederated
	KindLogout               = flows.KindLogout
)

// RegistrationDraft is the sign-up form content. It is validated as a whole
// at submit time and never reaches the gateway unless validation passes.
type RegistrationDraft = flows.Draft

// ValidateDraft applies the local registration rules and returns the first
// violation message.
func ValidateDraft(d RegistrationDraft, minPasswordLength int) (string, bool) {
	return flows.ValidateDraft(d, minPasswordLength)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that logs events through slog.
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess            = internalmetrics.MetricLoginSuccess
	MetricLoginFailure            = internalmetrics.MetricLoginFailure
	MetricLoginUnverified         = internalmetrics.MetricLoginUnverified
	MetricFederatedSuccess        = internalmetrics.MetricFederatedSuccess
	MetricFederatedFailure        = internalmetrics.MetricFederatedFailure
	MetricVerificationSent        = internalmetrics.MetricVerificationSent
	MetricVerificationFailed      = internalmetrics.MetricVerificationFailed
	MetricVerificationRateLimited = internalmetrics.MetricVerificationRateLimited
	MetricRegisterSuccess         = internalmetrics.MetricRegisterSuccess
	MetricRegisterFailure         = internalmetrics.MetricRegisterFailure
	MetricRegisterRejected        = internalmetrics.MetricRegisterRejected
	MetricLogoutSuccess           = internalmetrics.MetricLogoutSuccess
	MetricLogoutFailure           = internalmetrics.MetricLogoutFailure
	MetricLogoutCancelled         = internalmetrics.MetricLogoutCancelled
	MetricDuplicateSubmit         = internalmetrics.MetricDuplicateSubmit
	MetricLateResultDropped       = internalmetrics.MetricLateResultDropped
	MetricRedirectCancelled       = internalmetrics.MetricRedirectCancelled
	MetricRedirectBlocked         = internalmetrics.MetricRedirectBlocked
	MetricGatewayLatency          = internalmetrics.MetricGatewayLatency
	MetricIDCount                 = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and the optional gateway latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] configured by cfg. When Enabled is false,
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}

var outcomeMetrics = map[flows.Outcome]MetricID{
	flows.OutcomeLoginSuccess:       MetricLoginSuccess,
	flows.OutcomeLoginFailure:       MetricLoginFailure,
	flows.OutcomeLoginUnverified:    MetricLoginUnverified,
	flows.OutcomeFederatedSuccess:   MetricFederatedSuccess,
	flows.OutcomeFederatedFailure:   MetricFederatedFailure,
	flows.OutcomeVerificationSent:   MetricVerificationSent,
	flows.OutcomeVerificationFailed: MetricVerificationFailed,
	flows.OutcomeRegisterSuccess:    MetricRegisterSuccess,
	flows.OutcomeRegisterFailure:    MetricRegisterFailure,
	flows.OutcomeRegisterRejected:   MetricRegisterRejected,
	flows.OutcomeLogoutSuccess:      MetricLogoutSuccess,
	flows.OutcomeLogoutFailure:      MetricLogoutFailure,
	flows.OutcomeLogoutCancelled:    MetricLogoutCancelled,
}
