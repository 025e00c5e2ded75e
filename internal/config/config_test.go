package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "render" {
		t.Errorf("Expected default mode to be 'render', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.RecipientEmail != "maxcoopforms@gmail.com" {
		t.Errorf("Expected default recipient to be 'maxcoopforms@gmail.com', got '%s'", cfg.RecipientEmail)
	}

	if cfg.ServiceName != "maxcoop-form" {
		t.Errorf("Expected default service name to be 'maxcoop-form', got '%s'", cfg.ServiceName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Errorf("Expected default max upload size to be 10MB, got %d", cfg.MaxUploadSize)
	}

	if cfg.FollowupDelay != 500*time.Millisecond {
		t.Errorf("Expected default followup delay to be 500ms, got %s", cfg.FollowupDelay)
	}

	// Test that the output directory defaults to the current working directory
	currentDir, _ := os.Getwd()
	if cfg.OutputDirectory != currentDir {
		t.Errorf("Expected default output directory to be '%s', got '%s'", currentDir, cfg.OutputDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tmp := t.TempDir()

	valid := func() *Config {
		return &Config{
			Mode:            ModeRender,
			Host:            "127.0.0.1",
			Port:            8080,
			OutputDirectory: tmp,
			RecipientEmail:  "maxcoopforms@gmail.com",
			MaxUploadSize:   1024,
			FollowupDelay:   time.Millisecond,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config - render mode",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid config - server mode",
			mutate:  func(c *Config) { c.Mode = ModeServer },
			wantErr: false,
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "invalid" },
			wantErr: true,
		},
		{
			name: "invalid port - too low (server mode)",
			mutate: func(c *Config) {
				c.Mode = ModeServer
				c.Port = 0
			},
			wantErr: true,
		},
		{
			name: "invalid port - too high (server mode)",
			mutate: func(c *Config) {
				c.Mode = ModeServer
				c.Port = 70000
			},
			wantErr: true,
		},
		{
			name:    "invalid port ignored in render mode",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: false,
		},
		{
			name:    "empty output directory",
			mutate:  func(c *Config) { c.OutputDirectory = "" },
			wantErr: true,
		},
		{
			name:    "recipient without at sign",
			mutate:  func(c *Config) { c.RecipientEmail = "not-an-address" },
			wantErr: true,
		},
		{
			name:    "zero max upload size",
			mutate:  func(c *Config) { c.MaxUploadSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative followup delay",
			mutate:  func(c *Config) { c.FollowupDelay = -time.Second },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateCreatesMissingDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/output"
	cfg := DefaultConfig()
	cfg.OutputDirectory = dir

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected output directory to be created, stat failed: %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9000}
	if got := cfg.Address(); got != "0.0.0.0:9000" {
		t.Errorf("Address() = %s, want 0.0.0.0:9000", got)
	}
}

func TestConfigModePredicates(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsRenderMode() || cfg.IsServerMode() {
		t.Errorf("Expected default config to be in render mode")
	}

	cfg.Mode = ModeServer
	if cfg.IsRenderMode() || !cfg.IsServerMode() {
		t.Errorf("Expected server mode predicates to flip")
	}

	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Errorf("Expected IsDebug() to be true for debug log level")
	}
}
