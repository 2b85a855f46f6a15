package internaldefs

import (
	"github.com/MrEthical07/authflow"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Password sign-ins that reached the post-auth redirect."},
	{ID: authflow.MetricLoginFailure, Name: "authflow_login_failure_total", Help: "Password sign-ins rejected by the provider."},
	{ID: authflow.MetricLoginUnverified, Name: "authflow_login_unverified_total", Help: "Password sign-ins stopped by the verification gate."},
	{ID: authflow.MetricFederatedSuccess, Name: "authflow_federated_success_total", Help: "Successful popup provider sign-ins."},
	{ID: authflow.MetricFederatedFailure, Name: "authflow_federated_failure_total", Help: "Failed popup provider sign-ins."},
	{ID: authflow.MetricVerificationSent, Name: "authflow_verification_sent_total", Help: "Verification emails dispatched."},
	{ID: authflow.MetricVerificationFailed, Name: "authflow_verification_failed_total", Help: "Verification email dispatches that failed."},
	{ID: authflow.MetricVerificationRateLimited, Name: "authflow_verification_rate_limited_total", Help: "Verification dispatches refused by the throttle."},
	{ID: authflow.MetricRegisterSuccess, Name: "authflow_register_success_total", Help: "Accounts created."},
	{ID: authflow.MetricRegisterFailure, Name: "authflow_register_failure_total", Help: "Sign-ups rejected by the provider."},
	{ID: authflow.MetricRegisterRejected, Name: "authflow_register_rejected_total", Help: "Sign-ups rejected by local validation."},
	{ID: authflow.MetricLogoutSuccess, Name: "authflow_logout_success_total", Help: "Completed logouts."},
	{ID: authflow.MetricLogoutFailure, Name: "authflow_logout_failure_total", Help: "Failed logouts."},
	{ID: authflow.MetricLogoutCancelled, Name: "authflow_logout_cancelled_total", Help: "Logout confirmations dismissed."},
	{ID: authflow.MetricDuplicateSubmit, Name: "authflow_duplicate_submit_total", Help: "Submits rejected while a call was outstanding."},
	{ID: authflow.MetricLateResultDropped, Name: "authflow_late_result_dropped_total", Help: "Provider results dropped after the flow closed."},
	{ID: authflow.MetricRedirectCancelled, Name: "authflow_redirect_cancelled_total", Help: "Scheduled redirects cancelled by teardown."},
	{ID: authflow.MetricRedirectBlocked, Name: "authflow_redirect_blocked_total", Help: "Redirects refused by the navigation allowlist."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricGatewayLatency, Name: "authflow_gateway_latency_seconds", Help: "Identity provider call latency."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets in
// seconds, as exposition labels.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramUpperBounds are HistogramBounds without the +Inf bucket.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundSuffix names each bucket in instrument names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size bucket array, padding or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
