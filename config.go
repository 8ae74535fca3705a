package babel

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Logical host names used by routes.
const (
	HostAPI     = "api"
	HostContent = "content"
	HostNotify  = "notify"
)

const (
	// DefaultArgHeader carries the ASCII-escaped JSON argument of upload and download routes.
	DefaultArgHeader = "Babel-API-Arg"
	// DefaultResultHeader carries the JSON result of download routes.
	DefaultResultHeader = "Babel-API-Result"
	// DefaultIdleTimeout specifies the default time (300 seconds or 5 minutes)
	// after which idle exchange slots are released. See [Config.IdleTimeout].
	DefaultIdleTimeout = 300
)

// ErrConfig is wrapped by every error returned from [Config.Validate] and [LoadConfig].
var ErrConfig = errors.New("babel: invalid config")

// Config holds the immutable settings of a [Client].
//
// The zero value is not usable; start from [DefaultConfig] or [LoadConfig].
type Config struct {
	// Hosts maps logical host names ([HostAPI], [HostContent], [HostNotify], ...)
	// to base URLs. A route path is appended to its host's base URL.
	Hosts map[string]string `yaml:"hosts"`

	// UserAgent is sent with every request when non-empty.
	UserAgent string `yaml:"user_agent"`

	// ArgHeader names the request header carrying arguments for upload and download routes.
	// Defaults to [DefaultArgHeader].
	ArgHeader string `yaml:"arg_header"`

	// ResultHeader names the response header carrying the result of download routes.
	// Defaults to [DefaultResultHeader].
	ResultHeader string `yaml:"result_header"`

	// RequestIDHeader names the response header echoed into every [CallError].
	// Defaults to [DefaultRequestIDHeader].
	RequestIDHeader string `yaml:"request_id_header"`

	// MaxInFlight bounds the number of concurrent exchanges of a [Client]. Requests
	// started beyond it wait for a free slot. If zero or negative, it defaults to
	// `min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) * 4`.
	MaxInFlight int32 `yaml:"max_in_flight"`

	// IdleTimeout is how long an unused exchange slot, and its response buffer,
	// is kept. Defaults to [DefaultIdleTimeout] seconds if zero. A negative value
	// keeps slots forever.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DefaultConfig returns a Config pointing at the public Babel endpoints.
func DefaultConfig() Config {
	return Config{
		Hosts: map[string]string{
			HostAPI:     "https://api.babel.example.com/2",
			HostContent: "https://content.babel.example.com/2",
			HostNotify:  "https://notify.babel.example.com/2",
		},
		ArgHeader:       DefaultArgHeader,
		ResultHeader:    DefaultResultHeader,
		RequestIDHeader: DefaultRequestIDHeader,
	}
}

// LoadConfig reads a Config from a YAML file, or from a JSON file with comments
// and trailing commas allowed when the name ends in .json or .jsonc.
//
// Settings missing from the file keep their [DefaultConfig] values; hosts listed
// in the file replace or extend the default hosts.
//
// Example file:
//
//	hosts:
//	  api: https://api.internal:8443/2
//	user_agent: backup-agent/1.4
//	max_in_flight: 16
//	idle_timeout: 90s
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	cfg := DefaultConfig()

	// JSON is a subset of YAML, so one decoder serves both.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that every host has an absolute http(s) base URL.
func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("%w: no hosts configured", ErrConfig)
	}

	for name, base := range c.Hosts {
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("%w: host %q: %w", ErrConfig, name, err)
		}

		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: host %q: base URL %q must be absolute http or https", ErrConfig, name, base)
		}
	}

	for _, h := range []struct{ name, value string }{
		{"arg_header", c.ArgHeader},
		{"result_header", c.ResultHeader},
		{"request_id_header", c.RequestIDHeader},
	} {
		if strings.ContainsAny(h.value, " :\r\n") {
			return fmt.Errorf("%w: %s %q is not a valid header name", ErrConfig, h.name, h.value)
		}
	}

	return nil
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.ArgHeader == "" {
		c.ArgHeader = DefaultArgHeader
	}

	if c.ResultHeader == "" {
		c.ResultHeader = DefaultResultHeader
	}

	if c.RequestIDHeader == "" {
		c.RequestIDHeader = DefaultRequestIDHeader
	}

	if c.IdleTimeout == 0 {
		c.IdleTimeout = time.Duration(DefaultIdleTimeout) * time.Second
	}

	if c.MaxInFlight <= 0 {
		//nolint:gosec,mnd //How many cpus do you think we have? Puddle requires int32.
		c.MaxInFlight = int32(min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) * 4)
	}

	return c
}
