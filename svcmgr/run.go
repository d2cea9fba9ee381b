package svcmgr

import (
	"context"

	"go.uber.org/zap"
)

// HostBuilder performs one lifecycle action against the service manager.
type HostBuilder interface {
	Run(ctx context.Context) error
}

// BuilderFactory creates the HostBuilder for the sealed settings.
type BuilderFactory func(env *Environment, s Settings) HostBuilder

// Run applies configure in order, resolves the invocation from env.Args and
// executes the selected host builder. Without a matching command-line
// definition the service is hosted in-process and Run blocks until it stops.
func Run(ctx context.Context, env *Environment, configure ...ConfigureFunc) ExitCode {
	if env == nil {
		env = DefaultEnvironment(nil)
	}
	env = env.WithDefaults()
	logger := env.Logger

	c := NewConfigurator()
	for _, fn := range configure {
		if fn != nil {
			fn(c)
		}
	}

	invocation := c.ApplyCommandLine(env.Args)
	if c.exitCode != nil {
		logger.Info("Exiting without running the service",
			zap.String("invocation", invocation),
			zap.Int("code", int(*c.exitCode)))
		return *c.exitCode
	}

	s := c.Settings()
	if err := s.Validate(); err != nil {
		logger.Error("Invalid service configuration", zap.Error(err))
		return ExitAbnormal
	}

	factory := c.builder
	if factory == nil {
		factory = PlainRun
	}
	if invocation == "" {
		invocation = "run"
	}

	logger.Info("Running host",
		zap.String("service", s.Name),
		zap.String("invocation", invocation),
		zap.Stringer("account", s.Account.Kind))

	if err := factory(env, s).Run(ctx); err != nil {
		code := ExitCodeFor(err)
		logger.Error("Host failed",
			zap.String("service", s.Name),
			zap.String("invocation", invocation),
			zap.Int("code", int(code)),
			zap.Error(err))
		return code
	}
	return ExitOK
}

// PlainRun hosts the service in the current process.
func PlainRun(env *Environment, s Settings) HostBuilder {
	return &runBuilder{env: env, settings: s}
}

type runBuilder struct {
	env      *Environment
	settings Settings
}

func (b *runBuilder) Run(ctx context.Context) error {
	ctl, err := b.env.Controller(ctx, b.settings)
	if err != nil {
		return err
	}
	return ctl.Run()
}
