package authflow

import (
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authflow/site"
)

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Navigation.PostAuthURL != "https://codenovabd.com" {
		t.Fatalf("unexpected post-auth url %q", cfg.Navigation.PostAuthURL)
	}
	if cfg.Navigation.RedirectDelay != 2*time.Second {
		t.Fatalf("unexpected redirect delay %v", cfg.Navigation.RedirectDelay)
	}
	if cfg.Logout.MinDuration != 1500*time.Millisecond {
		t.Fatalf("unexpected logout minimum %v", cfg.Logout.MinDuration)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative post-auth url", func(c *Config) { c.Navigation.PostAuthURL = "/home" }, "PostAuthURL"},
		{"ftp post-auth url", func(c *Config) { c.Navigation.PostAuthURL = "ftp://x.y" }, "PostAuthURL"},
		{"negative redirect delay", func(c *Config) { c.Navigation.RedirectDelay = -time.Second }, "RedirectDelay"},
		{"unknown logout route", func(c *Config) { c.Navigation.PostLogoutRoute = site.Route("nowhere") }, "PostLogoutRoute"},
		{"blank allowlist entry", func(c *Config) { c.Navigation.AllowedRedirects = []string{" "} }, "AllowedRedirects"},
		{"zero error toast", func(c *Config) { c.Notifications.Error = 0 }, "Notifications"},
		{"zero password length", func(c *Config) { c.Registration.MinPasswordLength = 0 }, "MinPasswordLength"},
		{"password length below floor", func(c *Config) { c.Registration.MinPasswordLength = 5 }, "MinPasswordLength"},
		{"throttle without budget", func(c *Config) { c.Verification.MaxDispatches = 0 }, "MaxDispatches"},
		{"throttle without window", func(c *Config) { c.Verification.Window = 0 }, "Window"},
		{"negative logout minimum", func(c *Config) { c.Logout.MinDuration = -1 }, "MinDuration"},
		{"negative call timeout", func(c *Config) { c.Gateway.CallTimeout = -1 }, "CallTimeout"},
		{"audit without buffer", func(c *Config) { c.Audit.BufferSize = 0 }, "BufferSize"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestConfigThrottleDisabledSkipsBudgetChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verification.ThrottleEnabled = false
	cfg.Verification.MaxDispatches = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLintDefaults(t *testing.T) {
	cfg := DefaultConfig()
	codes := cfg.Lint().Codes()
	if !containsCode(codes, "redirect_allowlist_empty") {
		t.Error("expected redirect_allowlist_empty warning")
	}
	if containsCode(codes, "verification_throttle_disabled") {
		t.Error("default config should throttle verification dispatch")
	}
}

func TestLintRiskySettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Navigation.PostAuthURL = "http://codenovabd.com"
	cfg.Navigation.AllowedRedirects = []string{"http://codenovabd.com/**"}
	cfg.Verification.ThrottleEnabled = false
	codes := cfg.Lint().Codes()
	for _, want := range []string{
		"post_auth_insecure",
		"verification_throttle_disabled",
	} {
		if !containsCode(codes, want) {
			t.Errorf("expected %s warning", want)
		}
	}
	if containsCode(codes, "redirect_allowlist_empty") {
		t.Error("allowlist is set")
	}
}

func TestCloneConfigCopiesAllowlist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Navigation.AllowedRedirects = []string{"https://codenovabd.com/**"}
	out := cloneConfig(cfg)
	out.Navigation.AllowedRedirects[0] = "changed"
	if cfg.Navigation.AllowedRedirects[0] != "https://codenovabd.com/**" {
		t.Fatal("clone shares the allowlist slice")
	}
}
