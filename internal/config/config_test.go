package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Guliveer/squirrelhost/host"
)

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("service:\n  name: \"embedded-svc\"\nlogging:\n  level: \"warn\"")
	t.Setenv("SQH_SERVICE_NAME", "env-svc")
	t.Setenv("SQH_LOG_LEVEL", "error")
	cli := CLIOverrides{ServiceName: "cli-svc", LogLevel: "debug"}

	cfg, err := LoadLayered(cli, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Service.Name != "cli-svc" {
		t.Errorf("Name = %q, want CLI override", cfg.Service.Name)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want CLI override", cfg.Logging.Level)
	}
}

func TestLoadLayered_EnvOverridesEmbed(t *testing.T) {
	embedded := []byte("service:\n  name: \"embedded-svc\"\n  run_as: \"local-service\"")
	t.Setenv("SQH_SERVICE_NAME", "env-svc")
	t.Setenv("SQH_UPDATE_ENABLED", "true")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Service.Name != "env-svc" {
		t.Errorf("Name = %q, want env override", cfg.Service.Name)
	}
	if cfg.Service.RunAs != "local-service" {
		t.Errorf("RunAs = %q, want embedded value", cfg.Service.RunAs)
	}
	if !cfg.Update.Enabled {
		t.Error("Update.Enabled = false, want env override")
	}
}

func TestLoadLayered_FileOverridesEmbed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("heartbeat:\n  interval: 5s\n"), 0600); err != nil {
		t.Fatal(err)
	}
	embedded := []byte("heartbeat:\n  interval: 1m")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Heartbeat.Interval.Duration != 5*time.Second {
		t.Errorf("Interval = %v, want 5s from file", cfg.Heartbeat.Interval.Duration)
	}
}

func TestLoadLayered_MissingFileIgnored(t *testing.T) {
	_, err := LoadLayered(CLIOverrides{}, nil, filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestLoadLayered_BadDuration(t *testing.T) {
	_, err := LoadLayered(CLIOverrides{}, []byte("heartbeat:\n  interval: soon"), "")
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Heartbeat.Interval.Duration != 30*time.Second {
		t.Errorf("Interval = %v, want 30s default", cfg.Heartbeat.Interval.Duration)
	}
	if cfg.Service.StopTimeout.Duration != 30*time.Second {
		t.Errorf("StopTimeout = %v, want 30s default", cfg.Service.StopTimeout.Duration)
	}
	runAs, err := cfg.RunAs()
	if err != nil || runAs != host.RunAsLocalSystem {
		t.Errorf("RunAs = %v, %v; want local-system", runAs, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown run_as", func(c *Config) { c.Service.RunAs = "root" }, true},
		{"user without name", func(c *Config) { c.Service.RunAs = "user" }, true},
		{"user with name", func(c *Config) {
			c.Service.RunAs = "user"
			c.Service.Username = "svc"
		}, false},
		{"zero heartbeat", func(c *Config) { c.Heartbeat.Interval.Duration = 0 }, true},
		{"update without repo", func(c *Config) { c.Update.Enabled = true }, true},
		{"update too frequent", func(c *Config) {
			c.Update.Enabled = true
			c.Update.Repository = "acme/agent"
			c.Update.CheckInterval.Duration = time.Second
		}, true},
		{"update plain http", func(c *Config) {
			c.Update.Enabled = true
			c.Update.Repository = "acme/agent"
			c.Update.APIURL = "http://releases.example.com"
		}, true},
		{"update localhost http", func(c *Config) {
			c.Update.Enabled = true
			c.Update.Repository = "acme/agent"
			c.Update.APIURL = "http://127.0.0.1:8080"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfig_RoundTripsDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Service.Name = "heartbeat"
	cfg.Heartbeat.Interval.Duration = 45 * time.Second

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadLayered(CLIOverrides{}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Service.Name != "heartbeat" {
		t.Errorf("Name = %q, want heartbeat", loaded.Service.Name)
	}
	if loaded.Heartbeat.Interval.Duration != 45*time.Second {
		t.Errorf("Interval = %v, want 45s", loaded.Heartbeat.Interval.Duration)
	}
}
