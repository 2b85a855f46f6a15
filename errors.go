package authflow

import (
	"errors"

	"github.com/samber/oops"

	"github.com/MrEthical07/authflow/internal/flows"
)

var (
	// ErrFlowBusy is returned when a submit arrives while a provider call for
	// the same flow is still outstanding.
	ErrFlowBusy = errors.New("flow busy")
	// ErrFlowClosed is returned by every operation on a closed flow, and by a
	// submit whose result arrived after Close.
	ErrFlowClosed = errors.New("flow closed")
	// ErrUnknownProvider is returned for a federated provider the engine does
	// not support.
	ErrUnknownProvider = errors.New("unknown federated provider")
	// ErrEngineNotReady is returned by a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrGatewayRequired is returned by Build without a gateway.
	ErrGatewayRequired = errors.New("identity gateway required")
	// ErrSessionRequired is returned when a logout flow is created without a session.
	ErrSessionRequired = errors.New("session required")
	// ErrSessionExpired is returned when a logout flow is created for a session
	// whose ID token lifetime has already passed.
	ErrSessionExpired = errors.New("session expired")
)

// Taxonomy codes attached to logged flow failures.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeCredential           = "CREDENTIAL_ERROR"
	CodeVerificationRequired = "VERIFICATION_REQUIRED"
	CodeTransientDispatch    = "TRANSIENT_DISPATCH_ERROR"
	CodeFederated            = "FEDERATED_ERROR"
	CodeLogout               = "LOGOUT_ERROR"
)

func taxonomyCode(o flows.Outcome) string {
	switch o {
	case flows.OutcomeRegisterRejected:
		return CodeValidation
	case flows.OutcomeLoginFailure, flows.OutcomeRegisterFailure:
		return CodeCredential
	case flows.OutcomeLoginUnverified:
		return CodeVerificationRequired
	case flows.OutcomeVerificationFailed:
		return CodeTransientDispatch
	case flows.OutcomeFederatedFailure:
		return CodeFederated
	case flows.OutcomeLogoutFailure:
		return CodeLogout
	default:
		return ""
	}
}

// outcomeError builds the oops error logged for a negative outcome. It
// returns nil for positive or neutral outcomes.
func outcomeError(f *form, o flows.Outcome, providerCode string) error {
	code := taxonomyCode(o)
	if code == "" {
		return nil
	}
	return oops.
		Code(code).
		With("flow", f.kind).
		With("flow_id", f.id.String()).
		With("provider_code", providerCode).
		Errorf("%s", o)
}
