package authflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrEthical07/authflow/internal/flows"
)

// LogoutFlow is the two-step logout control for one session. A request must
// be confirmed before the provider is asked to end the session, and requests
// are ignored while a logout is running.
type LogoutFlow struct {
	form    *form
	session *Session
}

// ID returns the flow identifier used in logs and audit events.
func (l *LogoutFlow) ID() uuid.UUID { return l.form.id }

// State returns the current control state.
func (l *LogoutFlow) State() FlowState { return l.form.snapshot() }

// Close unmounts the control. A sign-out already in flight is abandoned.
func (l *LogoutFlow) Close() { l.form.Close() }

// Session returns the session this control ends.
func (l *LogoutFlow) Session() *Session { return l.session }

// RequestLogout opens the confirmation step.
func (l *LogoutFlow) RequestLogout(ctx context.Context) (FlowState, error) {
	return l.form.dispatch(ctx, flows.Event{Kind: flows.EventRequestLogout})
}

// CancelLogout dismisses the confirmation step.
func (l *LogoutFlow) CancelLogout(ctx context.Context) (FlowState, error) {
	return l.form.dispatch(ctx, flows.Event{Kind: flows.EventCancelLogout})
}

// ConfirmLogout signs the session out. It returns once the sign-out has
// resolved and the minimum logging-out duration has elapsed.
func (l *LogoutFlow) ConfirmLogout(ctx context.Context) (FlowState, error) {
	return l.form.dispatch(ctx, flows.Event{Kind: flows.EventConfirmLogout, Session: l.session})
}
