package authflow

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/site"
)

// LoginFlow is one mounted sign-in form.
//
// Submit methods block until the provider call resolves and return the state
// the form settled in. A second submit while one is outstanding returns
// ErrFlowBusy without reaching the provider.
type LoginFlow struct {
	form *form
}

// ID returns the flow identifier used in logs and audit events.
func (l *LoginFlow) ID() uuid.UUID { return l.form.id }

// State returns the current form state.
func (l *LoginFlow) State() FlowState { return l.form.snapshot() }

// Close unmounts the form. Pending calls are abandoned and pending redirects
// never fire.
func (l *LoginFlow) Close() { l.form.Close() }

// SubmitCredentials signs in with email and password. Unverified accounts are
// signed out again and sent a fresh verification mail.
func (l *LoginFlow) SubmitCredentials(ctx context.Context, email, password string) (FlowState, error) {
	return l.form.dispatch(ctx, flows.Event{
		Kind:        flows.EventSubmitCredentials,
		Credentials: idp.Credentials{Email: email, Password: password},
	})
}

// SubmitFederated signs in through a popup provider.
func (l *LoginFlow) SubmitFederated(ctx context.Context, provider idp.Provider) (FlowState, error) {
	if !knownProvider(provider) {
		return l.State(), ErrUnknownProvider
	}
	return l.form.dispatch(ctx, flows.Event{
		Kind:     flows.EventSubmitFederated,
		Provider: provider,
	})
}

// ResendVerification asks for another verification mail. Both fields must be
// filled in; the account is signed in only long enough to send it.
func (l *LoginFlow) ResendVerification(ctx context.Context, email, password string) (FlowState, error) {
	return l.form.dispatch(ctx, flows.Event{
		Kind:        flows.EventResendVerification,
		Credentials: idp.Credentials{Email: email, Password: password},
	})
}

// OpenRegistration moves to the sign-up page.
func (l *LoginFlow) OpenRegistration(ctx context.Context) error {
	_, err := l.form.dispatch(ctx, flows.Event{Kind: flows.EventOpenRoute, Route: site.RouteRegister})
	return err
}

func knownProvider(p idp.Provider) bool {
	return slices.Contains(idp.Providers, p)
}
