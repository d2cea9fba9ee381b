package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/host"
	"github.com/Guliveer/squirrelhost/internal/config"
	"github.com/Guliveer/squirrelhost/svcmgr"
)

func TestLifecycleArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"empty", nil, []string{}},
		{"only lifecycle", []string{"install", "1.2.0"}, []string{"install", "1.2.0"}},
		{"config with value", []string{"--config", "/etc/a.yaml", "uninstall"}, []string{"uninstall"}},
		{"config inline", []string{"--config=/etc/a.yaml", "--squirrel-updated", "1.3.0"}, []string{"--squirrel-updated", "1.3.0"}},
		{"bool flag leaves next token", []string{"--version", "install"}, []string{"install"}},
		{"squirrel hooks untouched", []string{"--squirrel-firstrun"}, []string{"--squirrel-firstrun"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flags
			fs := newFlagSet(&f)
			require.NoError(t, fs.Parse(tt.args))
			assert.Equal(t, tt.want, lifecycleArgs(fs, tt.args))
		})
	}
}

func TestFlagSet_ToleratesLifecycleFlags(t *testing.T) {
	var f flags
	fs := newFlagSet(&f)
	require.NoError(t, fs.Parse([]string{"--squirrel-install", "--config", "agent.yaml", "--log-level=debug"}))
	assert.Equal(t, "agent.yaml", f.configPath)
	assert.Equal(t, "debug", f.logLevel)
}

func TestRun_Version(t *testing.T) {
	assert.Equal(t, svcmgr.ExitOK, run([]string{"--version"}))
}

func TestNewHost_IdentityFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.Name = "hb"
	cfg.Service.DisplayName = "Heartbeat"
	cfg.Service.RunAs = "user"
	cfg.Service.Username = "svc"

	h, err := newHost(cfg, zap.NewNop(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, host.Identity{Name: "hb", DisplayName: "Heartbeat"}, h.Identity())
}

func TestNewHost_RejectsUnknownRunAs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.RunAs = "nobody"
	_, err := newHost(cfg, zap.NewNop(), nil, nil)
	assert.Error(t, err)
}

func TestServiceExtras(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.Env = map[string]string{"HB_MODE": "quiet"}

	c := svcmgr.NewConfigurator()
	c.SetServiceName("hb")
	serviceExtras(cfg, []string{"--config", "/etc/hb/agent.yaml"})(c)

	s := c.Settings()
	assert.Equal(t, []string{"--config", "/etc/hb/agent.yaml"}, s.Arguments)
	assert.Equal(t, "quiet", s.EnvVars["HB_MODE"])
}

func TestPersistentArgs(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "agent.yaml")
	tests := []struct {
		name string
		f    flags
		want []string
	}{
		{"none", flags{}, nil},
		{"config only", flags{configPath: cfgPath}, []string{"--config", cfgPath}},
		{"all", flags{configPath: cfgPath, serviceName: "hb", logLevel: "debug", updateURL: "http://127.0.0.1:8080"},
			[]string{"--config", cfgPath, "--service-name", "hb", "--log-level", "debug", "--update-url", "http://127.0.0.1:8080"}},
		{"not persisted", flags{showVersion: true, writeConfig: "out.yaml"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, persistentArgs(tt.f))
		})
	}
}

func TestPersistentArgs_RelativeConfigMadeAbsolute(t *testing.T) {
	args := persistentArgs(flags{configPath: "agent.yaml"})
	require.Len(t, args, 2)
	assert.True(t, filepath.IsAbs(args[1]), "got %q", args[1])
}

// The flags handed to an updated binary must select the same service.
func TestPersistentArgs_ParseBackToSameFlags(t *testing.T) {
	in := flags{configPath: filepath.Join(t.TempDir(), "agent.yaml"), serviceName: "hb"}
	args := append([]string{"--squirrel-updated", "v1.3.0"}, persistentArgs(in)...)

	var out flags
	fs := newFlagSet(&out)
	require.NoError(t, fs.Parse(args))
	assert.Equal(t, in.configPath, out.configPath)
	assert.Equal(t, "hb", out.serviceName)
	assert.Equal(t, []string{"--squirrel-updated", "v1.3.0"}, lifecycleArgs(fs, args))
}

func TestRun_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "effective.yaml")

	code := run([]string{"--config", filepath.Join(dir, "absent.yaml"), "--service-name", "hb", "--write-config", out})
	require.Equal(t, svcmgr.ExitOK, code)

	_, err := os.Stat(out)
	require.NoError(t, err)
	cfg, err := config.LoadLayered(config.CLIOverrides{}, nil, out)
	require.NoError(t, err)
	assert.Equal(t, "hb", cfg.Service.Name)
}
