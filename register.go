package authflow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/site"
)

// RegisterFlow is one mounted sign-up form. It keeps the draft the user is
// typing; a successful registration clears it.
type RegisterFlow struct {
	form *form

	mu    sync.Mutex
	draft RegistrationDraft
}

// ID returns the flow identifier used in logs and audit events.
func (r *RegisterFlow) ID() uuid.UUID { return r.form.id }

// State returns the current form state.
func (r *RegisterFlow) State() FlowState { return r.form.snapshot() }

// Close unmounts the form. A sign-up in flight is abandoned and its result
// dropped.
func (r *RegisterFlow) Close() { r.form.Close() }

// Draft returns the current form content.
func (r *RegisterFlow) Draft() RegistrationDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// SetDraft replaces the form content without submitting it.
func (r *RegisterFlow) SetDraft(d RegistrationDraft) {
	r.mu.Lock()
	r.draft = d
	r.mu.Unlock()
}

// Submit stores d as the form content and registers it. Local validation
// failures never reach the provider. A submit rejected with ErrFlowBusy
// leaves the stored draft untouched.
func (r *RegisterFlow) Submit(ctx context.Context, d RegistrationDraft) (FlowState, error) {
	return r.form.dispatchAccepted(ctx, flows.Event{Kind: flows.EventSubmitRegistration, Draft: d}, func() {
		r.SetDraft(d)
	})
}

// SubmitFederated signs up through a popup provider.
func (r *RegisterFlow) SubmitFederated(ctx context.Context, provider idp.Provider) (FlowState, error) {
	if !knownProvider(provider) {
		return r.State(), ErrUnknownProvider
	}
	return r.form.dispatch(ctx, flows.Event{
		Kind:     flows.EventSubmitFederated,
		Provider: provider,
	})
}

// OpenLogin moves to the sign-in page.
func (r *RegisterFlow) OpenLogin(ctx context.Context) error {
	_, err := r.form.dispatch(ctx, flows.Event{Kind: flows.EventOpenRoute, Route: site.RouteLogin})
	return err
}

func (r *RegisterFlow) clearDraft() {
	r.SetDraft(RegistrationDraft{})
}
