package flows

// Status is the coarse position of a form in its lifecycle.
type Status uint8

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusAwaitingVerification
	StatusSucceeded
	StatusFailed
	StatusConfirmPending
	StatusLoggingOut
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusAwaitingVerification:
		return "awaiting_verification"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusConfirmPending:
		return "confirm_pending"
	case StatusLoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorKind classifies the error currently shown inline by a form.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindValidation
	KindCredential
	KindVerificationRequired
	KindTransientDispatch
	KindFederated
	KindLogout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindCredential:
		return "credential"
	case KindVerificationRequired:
		return "verification_required"
	case KindTransientDispatch:
		return "transient_dispatch"
	case KindFederated:
		return "federated"
	case KindLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is the observable state of one form instance.
type State struct {
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind"`
	// Resending is true while a resend-verification call is outstanding.
	Resending bool `json:"resending"`
}

// Busy reports whether a gateway call is outstanding. Every submit-like event
// is rejected while Busy.
func (s State) Busy() bool {
	return s.Status == StatusSubmitting || s.Status == StatusLoggingOut || s.Resending
}

// Transition is the result of one reducer step.
type Transition struct {
	State   State
	Effects []Effect
	// Ignored is set when the event was rejected without changing anything,
	// e.g. a double submit or a result for an operation no longer pending.
	Ignored bool
}

func ignore(st State) Transition {
	return Transition{State: st, Ignored: true}
}

func submitting() State {
	return State{Status: StatusSubmitting}
}
