package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/internal/httpapi"
)

// hostConfig is everything `authflow serve` reads. Flows carries the engine
// configuration unchanged.
type hostConfig struct {
	Listen        string `koanf:"listen"`
	MetricsListen string `koanf:"metrics_listen"`

	Log struct {
		Format string `koanf:"format"`
		Level  string `koanf:"level"`
	} `koanf:"log"`

	Redis struct {
		// Addr is a host:port, "memory" for an in-process server, or empty
		// to disable verification throttling.
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	IdentityToolkit struct {
		APIKey     string        `koanf:"api_key"`
		BaseURL    string        `koanf:"base_url"`
		RequestURI string        `koanf:"request_uri"`
		ProjectID  string        `koanf:"project_id"`
		MaxRetries uint64        `koanf:"max_retries"`
		RetryBase  time.Duration `koanf:"retry_base"`
	} `koanf:"identity_toolkit"`

	HTTP struct {
		MaxFlows       int           `koanf:"max_flows"`
		FlowTTL        time.Duration `koanf:"flow_ttl"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
		SweepInterval  time.Duration `koanf:"sweep_interval"`
	} `koanf:"http"`

	Tracing struct {
		SampleRatio float64 `koanf:"sample_ratio"`
	} `koanf:"tracing"`

	Flows authflow.Config `koanf:"flows"`
}

func defaultHostConfig() hostConfig {
	var c hostConfig
	c.Listen = ":8080"
	c.MetricsListen = "127.0.0.1:9090"
	c.Log.Format = "json"
	c.Log.Level = "info"
	c.IdentityToolkit.MaxRetries = 2
	c.IdentityToolkit.RetryBase = 200 * time.Millisecond

	hc := httpapi.DefaultConfig()
	c.HTTP.MaxFlows = hc.MaxFlows
	c.HTTP.FlowTTL = hc.FlowTTL
	c.HTTP.RequestTimeout = hc.RequestTimeout
	c.HTTP.SweepInterval = time.Minute

	c.Flows = authflow.DefaultConfig()
	return c
}

func (c hostConfig) validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if strings.TrimSpace(c.IdentityToolkit.APIKey) == "" {
		errs = append(errs, errors.New("identity_toolkit.api_key is required"))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format))
	}
	if c.HTTP.SweepInterval <= 0 {
		errs = append(errs, errors.New("http.sweep_interval must be > 0"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("tracing.sample_ratio must be within [0, 1]"))
	}
	if err := c.Flows.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c hostConfig) httpConfig() httpapi.Config {
	return httpapi.Config{
		MaxFlows:       c.HTTP.MaxFlows,
		FlowTTL:        c.HTTP.FlowTTL,
		RequestTimeout: c.HTTP.RequestTimeout,
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"listen":         "listen",
	"metrics-listen": "metrics_listen",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"redis-addr":     "redis.addr",
	"api-key":        "identity_toolkit.api_key",
	"project-id":     "identity_toolkit.project_id",
}

func bindServeFlags(fs *pflag.FlagSet) {
	d := defaultHostConfig()
	fs.String("listen", d.Listen, "HTTP listen address")
	fs.String("metrics-listen", d.MetricsListen, "metrics listen address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format: json or text")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("redis-addr", "", `redis address, "memory" for an in-process server`)
	fs.String("api-key", "", "Identity Toolkit API key")
	fs.String("project-id", "", "project id used to check ID token issuer and audience")
}

// loadConfig layers defaults, the optional YAML file at path and explicitly
// set flags, in that order.
func loadConfig(path string, fs *pflag.FlagSet) (hostConfig, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return hostConfig{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return hostConfig{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := defaultHostConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return hostConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
