package authflow

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/authflow/classify"
	"github.com/MrEthical07/authflow/idp"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/internal/limiters"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/site"
)

// Builder assembles an Engine.
//
// Builder instances are intended to be configured during initialization and
// then discarded; Build may be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	gateway   idp.Gateway
	notifier  notify.Notifier
	navigator site.Navigator
	auditSink AuditSink
	logger    *slog.Logger
	tracer    trace.TracerProvider

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithGateway sets the identity provider gateway. Required.
func (b *Builder) WithGateway(gw idp.Gateway) *Builder {
	b.gateway = gw
	return b
}

// WithNotifier sets the default notification sink for new flows.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// WithNavigator sets the default navigator for new flows.
func (b *Builder) WithNavigator(n site.Navigator) *Builder {
	b.navigator = n
	return b
}

// WithRedis enables verification dispatch throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets where audit events are delivered.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTracerProvider wraps the gateway so every provider call gets a span.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracer = tp
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the gateway latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.gateway == nil {
		return nil, ErrGatewayRequired
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	allow, err := site.NewAllowlist(cfg.Navigation.AllowedRedirects)
	if err != nil {
		return nil, err
	}

	gw := b.gateway
	if b.tracer != nil {
		gw = idp.WithTracing(gw, b.tracer)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	navigator := b.navigator
	if navigator == nil {
		navigator = site.Discard{}
	}

	engine := &Engine{
		config:    cfg,
		deps:      depsFromConfig(cfg),
		gateway:   gw,
		notifier:  notifier,
		navigator: navigator,
		allowlist: allow,
		logger:    logger.With("component", "authflow"),
		metrics:   NewMetrics(cfg.Metrics),
		open:      make(map[*form]struct{}),
	}

	if b.redis != nil && cfg.Verification.ThrottleEnabled {
		engine.limiter = limiters.NewVerificationLimiter(b.redis, limiters.VerificationConfig{
			Enabled:       true,
			Window:        cfg.Verification.Window,
			MaxDispatches: cfg.Verification.MaxDispatches,
			KeyPrefix:     cfg.Verification.RedisPrefix,
		})
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop:     engine.auditDropped,
	}, b.auditSink)

	b.built = true

	return engine, nil
}

func depsFromConfig(cfg Config) flows.Deps {
	return flows.Deps{
		PostAuthURL:         cfg.Navigation.PostAuthURL,
		RedirectDelay:       cfg.Navigation.RedirectDelay,
		PostLogoutRoute:     cfg.Navigation.PostLogoutRoute,
		SuccessAutoClose:    cfg.Notifications.Success,
		ErrorAutoClose:      cfg.Notifications.Error,
		VerifyWarnAutoClose: cfg.Notifications.VerificationWarning,
		ResendAutoClose:     cfg.Notifications.ResendSuccess,
		RegisteredAutoClose: cfg.Notifications.Registered,
		LoggingOutAutoClose: cfg.Notifications.LoggingOut,
		MinPasswordLength:   cfg.Registration.MinPasswordLength,
		LoginErrors:         classify.Login,
		RegisterErrors:      classify.Register,
	}
}
