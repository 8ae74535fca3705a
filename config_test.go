package babel

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "babel.yaml", `
hosts:
  api: https://api.internal:8443/2
  backup: http://backup.internal/2
user_agent: backup-agent/1.4
max_in_flight: 16
idle_timeout: 90s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.internal:8443/2", cfg.Hosts[HostAPI])
	assert.Equal(t, "http://backup.internal/2", cfg.Hosts["backup"])
	assert.Equal(t, DefaultConfig().Hosts[HostContent], cfg.Hosts[HostContent])
	assert.Equal(t, "backup-agent/1.4", cfg.UserAgent)
	assert.Equal(t, int32(16), cfg.MaxInFlight)
	assert.Equal(t, 90*time.Second, cfg.IdleTimeout)
	assert.Equal(t, DefaultArgHeader, cfg.ArgHeader)
}

func TestLoadConfig_JSONC(t *testing.T) {
	path := writeConfig(t, "babel.jsonc", `{
  // point everything at staging
  "hosts": {
    "api": "https://api.staging.example.com/2",
  },
  "result_header": "X-Result", /* custom */
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.staging.example.com/2", cfg.Hosts[HostAPI])
	assert.Equal(t, "X-Result", cfg.ResultHeader)
	assert.Equal(t, DefaultArgHeader, cfg.ArgHeader)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "bad.yaml", "hosts: [1, 2"))
	require.ErrorIs(t, err, ErrConfig)

	_, err = LoadConfig(writeConfig(t, "relative.yaml", "hosts:\n  api: /2\n"))
	require.ErrorIs(t, err, ErrConfig)
}

func TestConfig_Validate(t *testing.T) {
	//nolint:govet //Do not reorder struct
	tests := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{"Default", func(*Config) {}, true},
		{"NoHosts", func(c *Config) { c.Hosts = nil }, false},
		{"BadScheme", func(c *Config) { c.Hosts = map[string]string{HostAPI: "ws://api.example.com"} }, false},
		{"NoHostPart", func(c *Config) { c.Hosts = map[string]string{HostAPI: "https:///2"} }, false},
		{"Unparsable", func(c *Config) { c.Hosts = map[string]string{HostAPI: "http://[::1"} }, false},
		{"SpaceInHeader", func(c *Config) { c.ArgHeader = "Babel Arg" }, false},
		{"ColonInHeader", func(c *Config) { c.ResultHeader = "Result:" }, false},
		{"NewlineInHeader", func(c *Config) { c.RequestIDHeader = "X-Id\n" }, false},
		{"EmptyHeaderUsesDefault", func(c *Config) { c.ArgHeader = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrConfig)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{IdleTimeout: -1}.withDefaults()

	assert.Positive(t, cfg.MaxInFlight)
	assert.Equal(t, time.Duration(-1), cfg.IdleTimeout)
	assert.Equal(t, DefaultRequestIDHeader, cfg.RequestIDHeader)

	cfg = Config{}.withDefaults()
	assert.Equal(t, DefaultIdleTimeout*time.Second, cfg.IdleTimeout)
}
