package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "bench-sender"
transmitter:
  port: 1300
  interval: 20ms
  header_pause: 5ms
  interface: "wlan0"
  ttl: 2
database:
  path: "/tmp/ulink-test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
  topic_prefix: "lab"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "bench-sender" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "bench-sender")
	}
	if cfg.Transmitter.Port != 1300 {
		t.Errorf("Transmitter.Port = %d, want 1300", cfg.Transmitter.Port)
	}
	if cfg.Transmitter.Interval != 20*time.Millisecond {
		t.Errorf("Transmitter.Interval = %v, want 20ms", cfg.Transmitter.Interval)
	}
	if cfg.Transmitter.HeaderPause != 5*time.Millisecond {
		t.Errorf("Transmitter.HeaderPause = %v, want 5ms", cfg.Transmitter.HeaderPause)
	}
	if cfg.Transmitter.Interface != "wlan0" {
		t.Errorf("Transmitter.Interface = %q, want %q", cfg.Transmitter.Interface, "wlan0")
	}
	if cfg.MQTT.TopicPrefix != "lab" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "lab")
	}
	// Values absent from the file keep their defaults.
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
site:
  id: ""
transmitter:
  interval: 0s
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"site.id", "transmitter.interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Load() error = %q, want mention of %q", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: true},
		{name: "port zero", mutate: func(c *Config) { c.Transmitter.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.Transmitter.Port = 70000 }, wantErr: true},
		{name: "negative header pause", mutate: func(c *Config) { c.Transmitter.HeaderPause = -time.Millisecond }, wantErr: true},
		{name: "zero header pause", mutate: func(c *Config) { c.Transmitter.HeaderPause = 0 }, wantErr: true},
		{name: "ttl zero", mutate: func(c *Config) { c.Transmitter.TTL = 0 }, wantErr: true},
		{
			name:    "database enabled without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name: "database disabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = false
				c.Database.Path = ""
			},
			wantErr: false,
		},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{
			name: "mqtt enabled without prefix",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.TopicPrefix = ""
			},
			wantErr: true,
		},
		{name: "api port invalid", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{
			name: "api disabled ignores port",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
			wantErr: false,
		},
		{name: "influx enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "JWT secret valid", mutate: func(c *Config) { c.Security.JWT.Secret = validJWTSecret }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIConfig_Timeouts(t *testing.T) {
	cfg := APIConfig{
		Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60},
	}

	if got := cfg.ReadTimeout().Seconds(); got != 30 {
		t.Errorf("ReadTimeout() = %v, want 30", got)
	}
	if got := cfg.WriteTimeout().Seconds(); got != 45 {
		t.Errorf("WriteTimeout() = %v, want 45", got)
	}
	if got := cfg.IdleTimeout().Seconds(); got != 60 {
		t.Errorf("IdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ULINK_SITE_ID", "env-site")
	t.Setenv("ULINK_TRANSMITTER_INTERFACE", "eth1")
	t.Setenv("ULINK_TRANSMITTER_PORT", "1400")
	t.Setenv("ULINK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("ULINK_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ULINK_MQTT_USERNAME", "testuser")
	t.Setenv("ULINK_MQTT_PASSWORD", "testpass")
	t.Setenv("ULINK_API_HOST", "192.168.1.1")
	t.Setenv("ULINK_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ULINK_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"Site.ID", cfg.Site.ID, "env-site"},
		{"Transmitter.Interface", cfg.Transmitter.Interface, "eth1"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if cfg.Transmitter.Port != 1400 {
		t.Errorf("Transmitter.Port = %d, want 1400", cfg.Transmitter.Port)
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("ULINK_TRANSMITTER_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.Transmitter.Port != 1200 {
		t.Errorf("Transmitter.Port = %d, want 1200", cfg.Transmitter.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Transmitter.Port != 1200 {
		t.Errorf("Transmitter.Port = %d, want 1200", cfg.Transmitter.Port)
	}
	if cfg.Transmitter.Interval != 10*time.Millisecond {
		t.Errorf("Transmitter.Interval = %v, want 10ms", cfg.Transmitter.Interval)
	}
	if cfg.Transmitter.HeaderPause != 3*time.Millisecond {
		t.Errorf("Transmitter.HeaderPause = %v, want 3ms", cfg.Transmitter.HeaderPause)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}
