package authflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/MrEthical07/authflow/idp"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/internal/limiters"
	"github.com/MrEthical07/authflow/internal/logging"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/session"
	"github.com/MrEthical07/authflow/site"
)

type reducer func(flows.State, flows.Event, flows.Deps) flows.Transition

// form is the adapter shared by every flow. It owns the reducer state, runs
// effects against the engine's collaborators and scopes provider calls and
// timers to its own lifetime.
type form struct {
	engine    *Engine
	kind      string
	id        uuid.UUID
	reduce    reducer
	notifier  notify.Notifier
	navigator site.Navigator
	logger    *slog.Logger

	// scope is cancelled by Close.
	scope  context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     flows.State
	closed    bool
	timers    map[uint64]*time.Timer
	nextTimer uint64
	timerWG   sync.WaitGroup

	clearDraft func()
}

func newForm(e *Engine, kind string, reduce reducer, o flowOptions) *form {
	scope, cancel := context.WithCancel(context.Background())
	id := uuid.New()
	return &form{
		engine:    e,
		kind:      kind,
		id:        id,
		reduce:    reduce,
		notifier:  o.notifier,
		navigator: o.navigator,
		logger:    e.logger.With("flow", kind, "flow_id", id.String()),
		scope:     scope,
		cancel:    cancel,
		timers:    make(map[uint64]*time.Timer),
	}
}

func (f *form) snapshot() flows.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *form) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close cancels outstanding provider calls, stops pending redirects and
// detaches the form from its engine. A redirect that already fired may still
// be reaching the navigator, which is free to call Close from there. Close is
// idempotent.
func (f *form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	stopped := 0
	for id, t := range f.timers {
		if t.Stop() {
			f.timerWG.Done()
			stopped++
		}
		delete(f.timers, id)
	}
	f.mu.Unlock()

	f.cancel()
	f.timerWG.Wait()
	for i := 0; i < stopped; i++ {
		f.engine.metricInc(MetricRedirectCancelled)
	}
	f.engine.unmount(f)
	f.logger.Debug("flow closed", "redirects_cancelled", stopped)
}

// dispatch feeds ev to the reducer and runs the resulting effects. It returns
// once every effect, including a provider call and the handling of its
// result, has finished.
func (f *form) dispatch(ctx context.Context, ev flows.Event) (flows.State, error) {
	return f.dispatchAccepted(ctx, ev, nil)
}

// dispatchAccepted is dispatch with a hook that runs, under the form lock,
// only when the reducer accepts ev.
func (f *form) dispatchAccepted(ctx context.Context, ev flows.Event, accepted func()) (flows.State, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return flows.State{}, ErrFlowClosed
	}
	tr := f.reduce(f.state, ev, f.engine.deps)
	if tr.Ignored {
		st := f.state
		f.mu.Unlock()
		if st.Busy() {
			f.engine.metricInc(MetricDuplicateSubmit)
			f.logger.DebugContext(ctx, "event ignored while busy", "status", st.Status.String())
			return st, ErrFlowBusy
		}
		return st, nil
	}
	f.state = tr.State
	if accepted != nil {
		accepted()
	}
	f.mu.Unlock()

	return f.run(ctx, tr.Effects)
}

func (f *form) run(ctx context.Context, effects []flows.Effect) (flows.State, error) {
	for _, eff := range effects {
		if eff.Kind != flows.EffectCall {
			f.apply(ctx, eff)
			continue
		}
		if _, err := f.call(ctx, eff); err != nil {
			return f.snapshot(), err
		}
	}
	return f.snapshot(), nil
}

// call performs one provider operation and feeds its result back to the
// reducer. A result that lands after Close is dropped.
func (f *form) call(ctx context.Context, eff flows.Effect) (flows.State, error) {
	cctx, done := f.callContext(ctx)
	start := time.Now()
	s, err := f.invoke(cctx, eff)
	done()
	f.engine.metrics.Observe(MetricGatewayLatency, time.Since(start))

	var ev flows.Event
	if err != nil {
		code, msg := providerCode(err)
		ev = flows.Failed(eff, code, msg)
	} else {
		ev = flows.Succeeded(eff, s)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		f.engine.metricInc(MetricLateResultDropped)
		f.logger.DebugContext(ctx, "result dropped after close", "op", eff.Op.String())
		return flows.State{}, ErrFlowClosed
	}
	tr := f.reduce(f.state, ev, f.engine.deps)
	if tr.Ignored {
		st := f.state
		f.mu.Unlock()
		f.engine.metricInc(MetricLateResultDropped)
		return st, nil
	}
	f.state = tr.State
	f.mu.Unlock()

	return f.run(ctx, tr.Effects)
}

// callContext derives a provider call context from ctx that is also cancelled
// when the form closes and bounded by the gateway call timeout.
func (f *form) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		cctx   context.Context
		cancel context.CancelFunc
	)
	if t := f.engine.config.Gateway.CallTimeout; t > 0 {
		cctx, cancel = context.WithTimeout(ctx, t)
	} else {
		cctx, cancel = context.WithCancel(ctx)
	}
	stop := context.AfterFunc(f.scope, cancel)
	return cctx, func() {
		stop()
		cancel()
	}
}

func (f *form) invoke(ctx context.Context, eff flows.Effect) (*session.Session, error) {
	gw := f.engine.gateway
	switch eff.Op {
	case flows.OpPasswordSignIn:
		return gw.SignInWithCredentials(ctx, strings.TrimSpace(eff.Credentials.Email), eff.Credentials.Password)
	case flows.OpFederatedSignIn:
		return gw.SignInWithProvider(ctx, eff.Provider)
	case flows.OpRegister:
		return gw.SignUpWithCredentials(ctx, strings.TrimSpace(eff.Draft.Email), eff.Draft.Password)
	case flows.OpResendVerification:
		return nil, f.resend(ctx, eff.Credentials)
	case flows.OpSendVerification:
		return nil, f.sendVerification(ctx, eff.Session)
	case flows.OpSignOut:
		return nil, f.signOut(ctx, eff.Session)
	default:
		return nil, oops.Code("UNSUPPORTED_OPERATION").Errorf("unsupported operation %s", eff.Op)
	}
}

// resend re-authenticates, dispatches a fresh verification mail and ends the
// temporary session again.
func (f *form) resend(ctx context.Context, creds idp.Credentials) error {
	gw := f.engine.gateway
	s, err := gw.SignInWithCredentials(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		return err
	}
	defer f.endSession(ctx, s)

	if err := f.allowDispatch(ctx, s, creds.Email); err != nil {
		return err
	}
	return gw.SendVerificationEmail(ctx, s)
}

// allowDispatch charges one verification mail to the account. A limiter that
// cannot reach Redis lets the dispatch through.
func (f *form) allowDispatch(ctx context.Context, s *session.Session, email string) error {
	if f.engine.limiter == nil {
		return nil
	}
	account := email
	if s != nil && s.UserID != "" {
		account = s.UserID
	}
	err := f.engine.limiter.Allow(ctx, account)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiters.ErrVerificationRateLimited):
		f.engine.metricInc(MetricVerificationRateLimited)
		return idp.NewError(idp.CodeTooManyRequests, "verification dispatch limit reached")
	default:
		logging.LogErrorLevel(ctx, f.logger, slog.LevelWarn, "verification limiter unavailable", err)
		return nil
	}
}

// signOut ends s and keeps the logging-out phase visible for at least the
// configured minimum duration.
func (f *form) signOut(ctx context.Context, s *session.Session) error {
	start := time.Now()
	err := f.engine.gateway.SignOut(ctx, s)
	if floor := f.engine.config.Logout.MinDuration; floor > 0 {
		if wait := floor - time.Since(start); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
			}
		}
	}
	return err
}

// endSession signs s out as cleanup. It runs even when ctx is already done.
func (f *form) endSession(ctx context.Context, s *session.Session) {
	if s == nil {
		return
	}
	cctx, done := f.cleanupContext(ctx)
	defer done()
	if err := f.engine.gateway.SignOut(cctx, s); err != nil {
		f.logDispatch(ctx, "session sign-out failed", err)
	}
}

func (f *form) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if t := f.engine.config.Gateway.CallTimeout; t > 0 {
		return context.WithTimeout(base, t)
	}
	return context.WithCancel(base)
}

func (f *form) apply(ctx context.Context, eff flows.Effect) {
	switch eff.Kind {
	case flows.EffectUpdateProfile:
		f.updateProfile(ctx, eff.Session, eff.Message)
	case flows.EffectNotify:
		f.notifier.Notify(ctx, notify.New(eff.Severity, eff.Message, eff.AutoClose))
	case flows.EffectNavigateExternal:
		f.navigateExternal(ctx, eff.URL, eff.Delay)
	case flows.EffectNavigateInternal:
		f.navigator.NavigateInternal(ctx, eff.Route)
	case flows.EffectClearDraft:
		if f.clearDraft != nil {
			f.clearDraft()
		}
	case flows.EffectRecord:
		f.record(ctx, eff)
	}
}

// sendVerification mails s a verification link and then ends s, whether or
// not the mail went out. The session is ended even if the form closes first.
func (f *form) sendVerification(ctx context.Context, s *session.Session) error {
	if s == nil {
		return idp.NewError(idp.CodeInternalError, "no session to verify")
	}
	defer f.endSession(ctx, s)

	if err := f.allowDispatch(ctx, s, s.Email); err != nil {
		f.logDispatch(ctx, "verification dispatch skipped", err)
		return err
	}
	if err := f.engine.gateway.SendVerificationEmail(ctx, s); err != nil {
		f.engine.metricInc(MetricVerificationFailed)
		f.logDispatch(ctx, "verification dispatch failed", err)
		return err
	}
	f.engine.metricInc(MetricVerificationSent)
	return nil
}

func (f *form) updateProfile(ctx context.Context, s *session.Session, name string) {
	if s == nil {
		return
	}
	cctx, done := f.callContext(ctx)
	defer done()
	if err := f.engine.gateway.UpdateDisplayName(cctx, s, name); err != nil {
		f.logDispatch(ctx, "display name update failed", err)
		return
	}
	s.DisplayName = name
}

// logDispatch logs a side call failure.
func (f *form) logDispatch(ctx context.Context, msg string, err error) {
	code, _ := providerCode(err)
	logging.LogErrorLevel(ctx, f.logger, slog.LevelWarn, msg, oops.
		Code(CodeTransientDispatch).
		With("flow", f.kind).
		With("flow_id", f.id.String()).
		With("provider_code", code).
		Wrap(err))
}

func (f *form) navigateExternal(ctx context.Context, url string, delay time.Duration) {
	if !f.engine.allowlist.Allows(url) {
		f.engine.metricInc(MetricRedirectBlocked)
		f.logger.WarnContext(ctx, "redirect target not allowed", "url", url)
		return
	}
	if delay <= 0 {
		f.navigator.NavigateExternal(f.scope, url)
		return
	}
	f.schedule(delay, func() {
		f.navigator.NavigateExternal(f.scope, url)
	})
}

// schedule runs fn after d unless the form closes first.
func (f *form) schedule(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	id := f.nextTimer
	f.nextTimer++
	f.timerWG.Add(1)
	f.timers[id] = time.AfterFunc(d, func() {
		f.mu.Lock()
		_, live := f.timers[id]
		delete(f.timers, id)
		f.mu.Unlock()
		if !live {
			return
		}
		// Released before fn so a callback that unmounts the form does not
		// wait on itself.
		f.timerWG.Done()
		fn()
	})
}

// pendingTimers reports scheduled callbacks that have not fired.
func (f *form) pendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *form) record(ctx context.Context, eff flows.Effect) {
	if id, ok := outcomeMetrics[eff.Outcome]; ok {
		f.engine.metricInc(id)
	}
	if err := outcomeError(f, eff.Outcome, eff.Code); err != nil {
		logging.LogErrorLevel(ctx, f.logger, slog.LevelWarn, "flow outcome", err)
	} else {
		f.logger.InfoContext(ctx, "flow outcome", "outcome", string(eff.Outcome))
	}

	ev := internalaudit.Event{
		Timestamp: time.Now().UTC(),
		EventType: string(eff.Outcome),
		Flow:      f.kind,
		FlowID:    f.id.String(),
		Email:     eff.Credentials.Email,
		Provider:  string(eff.Provider),
		Success:   eff.Outcome.Success(),
		Error:     eff.Code,
	}
	if eff.Session != nil {
		ev.UserID = eff.Session.UserID
		if ev.Provider == "" && eff.Session.Federated() {
			ev.Provider = eff.Session.Provider
		}
	}
	f.engine.audit.Emit(ctx, ev)
}

// providerCode maps err to a provider code. Cancellation and deadline errors
// count as network failures.
func providerCode(err error) (string, string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		var pe *idp.Error
		if !errors.As(err, &pe) {
			return idp.CodeNetworkRequestFailed, err.Error()
		}
	}
	return idp.CodeOf(err)
}
