package flows

import (
	"time"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/session"
	"github.com/MrEthical07/authflow/site"
)

// Op names a gateway operation requested by an EffectCall.
type Op uint8

const (
	OpNone Op = iota
	OpPasswordSignIn
	OpFederatedSignIn
	OpRegister
	OpResendVerification
	// OpSendVerification mails Session a verification link and ends it.
	OpSendVerification
	OpSignOut
)

func (o Op) String() string {
	switch o {
	case OpPasswordSignIn:
		return "password_sign_in"
	case OpFederatedSignIn:
		return "federated_sign_in"
	case OpRegister:
		return "register"
	case OpResendVerification:
		return "resend_verification"
	case OpSendVerification:
		return "send_verification"
	case OpSignOut:
		return "sign_out"
	default:
		return "none"
	}
}

// EventKind enumerates the inputs a reducer accepts.
type EventKind uint8

const (
	EventSubmitCredentials EventKind = iota + 1
	EventSubmitRegistration
	EventSubmitFederated
	EventResendVerification
	EventCallSucceeded
	EventCallFailed
	EventRequestLogout
	EventConfirmLogout
	EventCancelLogout
	EventOpenRoute
)

// Event is one reducer input. Only the fields relevant to Kind are read.
type Event struct {
	Kind EventKind

	Credentials idp.Credentials
	Draft       Draft
	Provider    idp.Provider
	Route       site.Route

	// Op identifies which call a CallSucceeded/CallFailed result belongs to.
	Op      Op
	Session *session.Session
	Code    string
	Message string
}

// Succeeded builds the result event for a finished call. A call that yields
// no session keeps the one it was made for. Secrets from the call are not
// carried over.
func Succeeded(call Effect, s *session.Session) Event {
	if s == nil {
		s = call.Session
	}
	return Event{
		Kind:        EventCallSucceeded,
		Op:          call.Op,
		Credentials: idp.Credentials{Email: call.Credentials.Email},
		Draft:       call.Draft.Redacted(),
		Provider:    call.Provider,
		Session:     s,
	}
}

// Failed builds the failure event for a call that returned a provider code.
func Failed(call Effect, code, message string) Event {
	return Event{
		Kind:        EventCallFailed,
		Op:          call.Op,
		Credentials: idp.Credentials{Email: call.Credentials.Email},
		Draft:       call.Draft.Redacted(),
		Provider:    call.Provider,
		Session:     call.Session,
		Code:        code,
		Message:     message,
	}
}

// EffectKind enumerates the side actions a reducer can request.
type EffectKind uint8

const (
	// EffectCall runs Op against the gateway and feeds the result back.
	EffectCall EffectKind = iota + 1
	// EffectUpdateProfile sets Session's display name to Message. Failures
	// are logged, never fed back.
	EffectUpdateProfile
	EffectNotify
	// EffectNavigateExternal leaves the site after Delay.
	EffectNavigateExternal
	EffectNavigateInternal
	EffectClearDraft
	// EffectRecord reports an outcome to metrics and audit.
	EffectRecord
)

func (k EffectKind) String() string {
	switch k {
	case EffectCall:
		return "call"
	case EffectUpdateProfile:
		return "update_profile"
	case EffectNotify:
		return "notify"
	case EffectNavigateExternal:
		return "navigate_external"
	case EffectNavigateInternal:
		return "navigate_internal"
	case EffectClearDraft:
		return "clear_draft"
	case EffectRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Effect is one side action. Only the fields relevant to Kind are set.
type Effect struct {
	Kind EffectKind

	Op          Op
	Credentials idp.Credentials
	Draft       Draft
	Provider    idp.Provider
	Session     *session.Session

	Severity  notify.Severity
	Message   string
	AutoClose time.Duration

	URL   string
	Route site.Route
	Delay time.Duration

	Outcome Outcome
	Code    string
}

func call(op Op) Effect {
	return Effect{Kind: EffectCall, Op: op}
}

func notifyEffect(sev notify.Severity, msg string, autoClose time.Duration) Effect {
	return Effect{Kind: EffectNotify, Severity: sev, Message: msg, AutoClose: autoClose}
}

// record reports o for the event that produced it. Only identifying fields
// are copied; secrets never reach metrics or audit.
func record(o Outcome, ev Event) Effect {
	email := ev.Credentials.Email
	if email == "" {
		email = ev.Draft.Email
	}
	if ev.Session != nil && ev.Session.Email != "" {
		email = ev.Session.Email
	}
	return Effect{
		Kind:        EffectRecord,
		Outcome:     o,
		Code:        ev.Code,
		Session:     ev.Session,
		Provider:    ev.Provider,
		Credentials: idp.Credentials{Email: email},
	}
}

// Outcome names a terminal result for metrics and audit.
type Outcome string

const (
	OutcomeLoginSuccess       Outcome = "login_success"
	OutcomeLoginFailure       Outcome = "login_failure"
	OutcomeLoginUnverified    Outcome = "login_unverified"
	OutcomeFederatedSuccess   Outcome = "federated_success"
	OutcomeFederatedFailure   Outcome = "federated_failure"
	OutcomeVerificationSent   Outcome = "verification_sent"
	OutcomeVerificationFailed Outcome = "verification_failed"
	OutcomeRegisterSuccess    Outcome = "register_success"
	OutcomeRegisterFailure    Outcome = "register_failure"
	OutcomeRegisterRejected   Outcome = "register_rejected"
	OutcomeLogoutSuccess      Outcome = "logout_success"
	OutcomeLogoutFailure      Outcome = "logout_failure"
	OutcomeLogoutCancelled    Outcome = "logout_cancelled"
)

// Success reports whether o is a positive terminal outcome.
func (o Outcome) Success() bool {
	switch o {
	case OutcomeLoginSuccess, OutcomeFederatedSuccess, OutcomeVerificationSent,
		OutcomeRegisterSuccess, OutcomeLogoutSuccess:
		return true
	default:
		return false
	}
}
