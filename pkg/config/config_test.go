package config

import (
	"strings"
	"testing"
	"time"
)

func validProductionConfig() *Config {
	return &Config{
		Environment:          EnvProduction,
		LogLevel:             "info",
		SessionAuthKey:       strings.Repeat("a", 32),
		SessionEncryptionKey: strings.Repeat("b", 32),
		AdminPasswordHash:    "$2a$10$abcdefghijklmnopqrstuuAbCdEfGhIjKlMnOpQrStUvWxYz01234",
		LockTimeout:          5 * time.Second,
	}
}

func TestValidateForProduction_NonProductionNoop(t *testing.T) {
	cfg := &Config{Environment: EnvDevelopment, LogLevel: "debug"}
	if err := ValidateForProduction(cfg); err != nil {
		t.Fatalf("expected nil for development, got %v", err)
	}
}

func TestValidateForProduction_Valid(t *testing.T) {
	if err := ValidateForProduction(validProductionConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForProduction_Violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"short auth key", func(c *Config) { c.SessionAuthKey = "short" }, "SESSION_AUTH_KEY"},
		{"short encryption key", func(c *Config) { c.SessionEncryptionKey = "short" }, "SESSION_ENCRYPTION_KEY"},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, "LOG_LEVEL"},
		{"default admin hash", func(c *Config) { c.AdminPasswordHash = defaultAdminPasswordHash }, "ADMIN_PASSWORD_HASH"},
		{"zero lock timeout", func(c *Config) { c.LockTimeout = 0 }, "LOCK_TIMEOUT"},
		{"sub-millisecond lock timeout", func(c *Config) { c.LockTimeout = time.Microsecond }, "LOCK_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validProductionConfig()
			tt.mutate(cfg)
			err := ValidateForProduction(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in error, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestKafkaBrokerList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"localhost:9092", 1},
		{"a:9092, b:9092 ,,c:9092", 3},
	}
	for _, tt := range tests {
		cfg := &Config{KafkaBrokers: tt.in}
		if got := len(cfg.KafkaBrokerList()); got != tt.want {
			t.Errorf("KafkaBrokerList(%q): got %d entries, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidate_LockTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"default", 5 * time.Second, false},
		{"one millisecond", time.Millisecond, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
		{"sub-millisecond", 500 * time.Microsecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: EnvDevelopment, LockTimeout: tt.timeout}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "LOCK_TIMEOUT") {
				t.Errorf("expected LOCK_TIMEOUT in error, got %v", err)
			}
		})
	}
}
