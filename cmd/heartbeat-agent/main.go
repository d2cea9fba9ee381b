// Package main is the entry point for the heartbeat agent: a small service that
// installs itself, runs under the configured account and keeps itself updated.
//
// Besides its own flags it accepts the lifecycle invocations understood by the
// host (install, uninstall, and the --squirrel-* hooks).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/host"
	"github.com/Guliveer/squirrelhost/internal/config"
	"github.com/Guliveer/squirrelhost/internal/heartbeat"
	"github.com/Guliveer/squirrelhost/internal/logging"
	"github.com/Guliveer/squirrelhost/internal/updater"
	"github.com/Guliveer/squirrelhost/svcmgr"
)

// version is set at build time via -ldflags.
var version = "dev"

const assetPrefix = "heartbeat-agent"

type flags struct {
	configPath  string
	showVersion bool
	logLevel    string
	serviceName string
	updateURL   string
	writeConfig string
}

func newFlagSet(f *flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("heartbeat-agent", pflag.ContinueOnError)
	// Lifecycle tokens are left for the host.
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.StringVar(&f.configPath, "config", "", "Path to configuration file (default: search standard locations)")
	fs.BoolVar(&f.showVersion, "version", false, "Show version and exit")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.serviceName, "service-name", "", "Override the service name")
	fs.StringVar(&f.updateURL, "update-url", "", "Override the release API base URL")
	fs.StringVar(&f.writeConfig, "write-config", "", "Write the effective configuration to this path and exit")
	return fs
}

func main() {
	os.Exit(int(run(os.Args[1:])))
}

func run(args []string) svcmgr.ExitCode {
	var f flags
	fs := newFlagSet(&f)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return svcmgr.ExitOK
		}
		fmt.Fprintf(os.Stderr, "Invalid arguments: %v\n", err)
		return svcmgr.ExitInvalidInvocation
	}

	if f.showVersion {
		fmt.Printf("heartbeat-agent %s\n", version)
		return svcmgr.ExitOK
	}

	cli := config.CLIOverrides{ServiceName: f.serviceName, LogLevel: f.logLevel}
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, f.configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return svcmgr.ExitAbnormal
	}
	if f.updateURL != "" {
		cfg.Update.APIURL = f.updateURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return svcmgr.ExitAbnormal
	}

	if f.writeConfig != "" {
		if err := config.WriteConfig(cfg, f.writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			return svcmgr.ExitAbnormal
		}
		fmt.Printf("Configuration written to %s\n", f.writeConfig)
		return svcmgr.ExitOK
	}

	logger, closer := logging.New(cfg.Logging)
	defer closer.Close()

	logger.Info("Starting heartbeat agent",
		zap.String("version", version),
		zap.String("os", runtime.GOOS))

	own := persistentArgs(f)
	h, err := newHost(cfg, logger, lifecycleArgs(fs, args), own)
	if err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return svcmgr.ExitAbnormal
	}

	return h.Run(serviceExtras(cfg, own))
}

// persistentArgs renders the flags that select configuration, so that the
// installed service and an updated binary resolve the same settings as this
// invocation.
func persistentArgs(f flags) []string {
	var args []string
	if f.configPath != "" {
		path := f.configPath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		args = append(args, "--config", path)
	}
	if f.serviceName != "" {
		args = append(args, "--service-name", f.serviceName)
	}
	if f.logLevel != "" {
		args = append(args, "--log-level", f.logLevel)
	}
	if f.updateURL != "" {
		args = append(args, "--update-url", f.updateURL)
	}
	return args
}

// newHost wires the heartbeat service and updater into a host. handOff are
// the flags an updated binary is started with.
func newHost(cfg *config.Config, logger *zap.Logger, args, handOff []string) (*host.Host, error) {
	runAs, err := cfg.RunAs()
	if err != nil {
		return nil, err
	}

	hb := heartbeat.New(cfg.Heartbeat.Interval.Duration,
		heartbeat.WithLogger(logger.Named("heartbeat")))

	upd := updater.New(version, updater.Config{
		Enabled:       cfg.Update.Enabled,
		CheckInterval: cfg.Update.CheckInterval.Duration,
		InitialDelay:  cfg.Update.InitialDelay.Duration,
		APIURL:        cfg.Update.APIURL,
		Repository:    cfg.Update.Repository,
		AssetPrefix:   assetPrefix,
		Prerelease:    cfg.Update.Prerelease,
		HandOffArgs:   handOff,
	}, logger)

	env := svcmgr.DefaultEnvironment(logger)
	env.Args = args
	env.StopTimeout = cfg.Service.StopTimeout.Duration

	h := host.New(hb,
		host.WithServiceName(cfg.Service.Name),
		host.WithDisplayName(cfg.Service.DisplayName),
		host.WithDescription(cfg.Service.Description),
		host.WithUpdater(upd),
		host.WithOverlapping(cfg.Service.Overlapping),
		host.WithRunAs(runAs),
		host.WithLogger(logger),
		host.WithEnvironment(env),
	)
	if runAs == host.RunAsSpecificUser {
		h.SetCredentials(cfg.Service.Username, cfg.Service.Password)
	}
	return h, nil
}

// serviceExtras registers what the installed service needs beyond the host
// defaults: the flags it was installed with and its environment.
func serviceExtras(cfg *config.Config, own []string) svcmgr.ConfigureFunc {
	return func(c *svcmgr.Configurator) {
		if len(own) > 0 {
			c.SetArguments(own...)
		}
		for k, v := range cfg.Service.Env {
			c.SetEnvVar(k, v)
		}
		if runtime.GOOS == "windows" {
			c.SetOption("OnFailure", "restart")
		}
	}
}

// lifecycleArgs drops the agent's own flags (and their values) from args so
// that only host invocation tokens remain.
func lifecycleArgs(fs *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) < 3 || !strings.HasPrefix(arg, "--") {
			out = append(out, arg)
			continue
		}
		name, _, hasValue := strings.Cut(arg[2:], "=")
		fl := fs.Lookup(name)
		if fl == nil {
			out = append(out, arg)
			continue
		}
		if !hasValue && fl.NoOptDefVal == "" && i+1 < len(args) {
			i++
		}
	}
	return out
}
