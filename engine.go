package authflow

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authflow/idp"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/internal/limiters"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/site"
)

// Engine mints flows and owns the resources they share.
//
// Engine methods are safe to call from multiple goroutines after Build.
type Engine struct {
	config    Config
	deps      flows.Deps
	gateway   idp.Gateway
	notifier  notify.Notifier
	navigator site.Navigator
	allowlist *site.Allowlist
	limiter   *limiters.VerificationLimiter
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	logger    *slog.Logger

	mu     sync.Mutex
	open   map[*form]struct{}
	closed atomic.Bool
}

// FlowOption overrides engine defaults for one flow.
type FlowOption func(*flowOptions)

type flowOptions struct {
	notifier  notify.Notifier
	navigator site.Navigator
}

// WithFlowNotifier routes one flow's notifications to n.
func WithFlowNotifier(n notify.Notifier) FlowOption {
	return func(o *flowOptions) { o.notifier = n }
}

// WithFlowNavigator routes one flow's navigation to n.
func WithFlowNavigator(n site.Navigator) FlowOption {
	return func(o *flowOptions) { o.navigator = n }
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return DefaultConfig()
	}
	return cloneConfig(e.config)
}

// NewLoginFlow mounts a sign-in form.
func (e *Engine) NewLoginFlow(opts ...FlowOption) (*LoginFlow, error) {
	f, err := e.mount("login", flows.Login, opts)
	if err != nil {
		return nil, err
	}
	return &LoginFlow{form: f}, nil
}

// NewRegisterFlow mounts a sign-up form.
func (e *Engine) NewRegisterFlow(opts ...FlowOption) (*RegisterFlow, error) {
	f, err := e.mount("register", flows.Register, opts)
	if err != nil {
		return nil, err
	}
	r := &RegisterFlow{form: f}
	f.clearDraft = r.clearDraft
	return r, nil
}

// NewLogoutFlow mounts the logout control for an authenticated session.
func (e *Engine) NewLogoutFlow(s *Session, opts ...FlowOption) (*LogoutFlow, error) {
	if s == nil {
		return nil, ErrSessionRequired
	}
	if s.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	f, err := e.mount("logout", flows.Logout, opts)
	if err != nil {
		return nil, err
	}
	return &LogoutFlow{form: f, session: s}, nil
}

func (e *Engine) mount(kind string, reduce reducer, opts []FlowOption) (*form, error) {
	if e == nil || e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	o := flowOptions{notifier: e.notifier, navigator: e.navigator}
	for _, opt := range opts {
		opt(&o)
	}
	f := newForm(e, kind, reduce, o)

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		f.Close()
		return nil, ErrEngineNotReady
	}
	e.open[f] = struct{}{}
	e.mu.Unlock()
	return f, nil
}

func (e *Engine) unmount(f *form) {
	e.mu.Lock()
	delete(e.open, f)
	e.mu.Unlock()
}

// OpenFlows reports how many flows are mounted.
func (e *Engine) OpenFlows() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.open)
}

// Close tears down every open flow and flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	open := make([]*form, 0, len(e.open))
	for f := range e.open {
		open = append(open, f)
	}
	e.mu.Unlock()

	for _, f := range open {
		f.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) auditDropped(ev internalaudit.Event, reason internalaudit.DropReason) {
	e.logger.Warn("audit event dropped",
		"reason", string(reason),
		"event_type", ev.EventType,
		"flow", ev.Flow,
		"flow_id", ev.FlowID,
	)
}

// AuditDropped reports audit events that never reached the sink.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the in-process metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
