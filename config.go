package authflow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authflow/site"
)

// Config holds every policy knob of an Engine. Start from DefaultConfig and
// override fields; Build validates the result.
type Config struct {
	Navigation    NavigationConfig   `koanf:"navigation"`
	Notifications NotificationConfig `koanf:"notifications"`
	Registration  RegistrationConfig `koanf:"registration"`
	Verification  VerificationConfig `koanf:"verification"`
	Logout        LogoutConfig       `koanf:"logout"`
	Gateway       GatewayConfig      `koanf:"gateway"`
	Audit         AuditConfig        `koanf:"audit"`
	Metrics       MetricsConfig      `koanf:"metrics"`
}

/*
====================================
NAVIGATION CONFIG
====================================
*/

// NavigationConfig controls where a flow sends the user.
type NavigationConfig struct {
	// PostAuthURL is the external destination after a successful sign-in.
	PostAuthURL   string        `koanf:"post_auth_url"`
	RedirectDelay time.Duration `koanf:"redirect_delay"`
	// PostLogoutRoute is the in-app route shown after logging out.
	PostLogoutRoute site.Route `koanf:"post_logout_route"`
	// AllowedRedirects are glob patterns external navigation must match.
	// Empty allows any destination.
	AllowedRedirects []string `koanf:"allowed_redirects"`
}

/*
====================================
NOTIFICATION CONFIG
====================================
*/

// NotificationConfig sets the auto-close duration of each notification class.
type NotificationConfig struct {
	Success             time.Duration `koanf:"success"`
	Error               time.Duration `koanf:"error"`
	VerificationWarning time.Duration `koanf:"verification_warning"`
	ResendSuccess       time.Duration `koanf:"resend_success"`
	Registered          time.Duration `koanf:"registered"`
	LoggingOut          time.Duration `koanf:"logging_out"`
}

/*
====================================
REGISTRATION / VERIFICATION CONFIG
====================================
*/

// RegistrationConfig tunes local sign-up validation. MinPasswordLength may be
// raised but never set below PasswordLengthFloor.
type RegistrationConfig struct {
	MinPasswordLength int `koanf:"min_password_length"`
}

// PasswordLengthFloor is the shortest password any configuration accepts.
const PasswordLengthFloor = 6

// VerificationConfig controls throttling of verification dispatch. The gate
// itself is always on. Throttling needs a Redis client on the Builder.
type VerificationConfig struct {
	ThrottleEnabled bool          `koanf:"throttle_enabled"`
	MaxDispatches   int           `koanf:"max_dispatches"`
	Window          time.Duration `koanf:"window"`
	RedisPrefix     string        `koanf:"redis_prefix"`
}

/*
====================================
LOGOUT / GATEWAY CONFIG
====================================
*/

type LogoutConfig struct {
	// MinDuration keeps the logging-out state visible for at least this long.
	// Zero makes logout instantaneous.
	MinDuration time.Duration `koanf:"min_duration"`
}

type GatewayConfig struct {
	// CallTimeout bounds a single provider call. Zero means no bound beyond
	// the caller's context.
	CallTimeout time.Duration `koanf:"call_timeout"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Navigation: NavigationConfig{
			PostAuthURL:     "https://codenovabd.com",
			RedirectDelay:   2 * time.Second,
			PostLogoutRoute: site.RouteHome,
		},
		Notifications: NotificationConfig{
			Success:             3 * time.Second,
			Error:               5 * time.Second,
			VerificationWarning: 8 * time.Second,
			ResendSuccess:       6 * time.Second,
			Registered:          8 * time.Second,
			LoggingOut:          1500 * time.Millisecond,
		},
		Registration: RegistrationConfig{
			MinPasswordLength: PasswordLengthFloor,
		},
		Verification: VerificationConfig{
			ThrottleEnabled: true,
			MaxDispatches:   5,
			Window:          time.Hour,
			RedisPrefix:     "afvd",
		},
		Logout: LogoutConfig{
			MinDuration: 1500 * time.Millisecond,
		},
		Gateway: GatewayConfig{
			CallTimeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Navigation.AllowedRedirects != nil {
		out.Navigation.AllowedRedirects = append([]string(nil), cfg.Navigation.AllowedRedirects...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Navigation.PostAuthURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return errors.New("Navigation PostAuthURL must be an absolute http(s) URL")
	}
	if c.Navigation.RedirectDelay < 0 {
		return errors.New("Navigation RedirectDelay must be >= 0")
	}
	if _, ok := site.Path(c.Navigation.PostLogoutRoute); !ok {
		return errors.New("Navigation PostLogoutRoute is not a known route")
	}
	for _, p := range c.Navigation.AllowedRedirects {
		if strings.TrimSpace(p) == "" {
			return errors.New("Navigation AllowedRedirects must not contain blank patterns")
		}
	}

	n := c.Notifications
	if n.Success <= 0 || n.Error <= 0 || n.VerificationWarning <= 0 || n.ResendSuccess <= 0 || n.Registered <= 0 {
		return errors.New("Notifications durations must be > 0")
	}
	if n.LoggingOut < 0 {
		return errors.New("Notifications LoggingOut must be >= 0")
	}

	if c.Registration.MinPasswordLength < PasswordLengthFloor {
		return fmt.Errorf("Registration MinPasswordLength must be >= %d", PasswordLengthFloor)
	}

	if c.Verification.ThrottleEnabled {
		if c.Verification.MaxDispatches <= 0 {
			return errors.New("Verification MaxDispatches must be > 0 when throttling is enabled")
		}
		if c.Verification.Window <= 0 {
			return errors.New("Verification Window must be > 0 when throttling is enabled")
		}
	}

	if c.Logout.MinDuration < 0 {
		return errors.New("Logout MinDuration must be >= 0")
	}
	if c.Gateway.CallTimeout < 0 {
		return errors.New("Gateway CallTimeout must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is a setting that is valid but probably unintended.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the list returned by Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (ws LintResult) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint flags risky but valid settings.
func (c *Config) Lint() LintResult {
	var ws LintResult
	if len(c.Navigation.AllowedRedirects) == 0 {
		ws = append(ws, LintWarning{"redirect_allowlist_empty", "external navigation is not restricted"})
	}
	if strings.HasPrefix(c.Navigation.PostAuthURL, "http://") {
		ws = append(ws, LintWarning{"post_auth_insecure", "post-auth destination is not https"})
	}
	if !c.Verification.ThrottleEnabled {
		ws = append(ws, LintWarning{"verification_throttle_disabled", "verification dispatch is unthrottled"})
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		ws = append(ws, LintWarning{"audit_drop_if_full", "audit events are dropped under backpressure"})
	}
	return ws
}
