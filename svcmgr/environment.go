package svcmgr

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/internal/privilege"
)

// DefaultStopTimeout bounds how long an update waits for the old instance.
const DefaultStopTimeout = 30 * time.Second

// CredentialPrompter asks the operator for the account a service runs under.
type CredentialPrompter func(serviceName string) (username, password string, err error)

// Environment holds the collaborators host builders use to reach the OS.
// WithDefaults fills zero-valued fields with the production implementations,
// except CheckPrivileges which is only installed by DefaultEnvironment.
type Environment struct {
	Logger *zap.Logger

	// Args are the process arguments without the program name.
	Args []string

	NewController   ControllerFactory
	PromptAccount   CredentialPrompter
	CheckPrivileges func() error

	// StopTimeout bounds the stop-before-start wait of a non-overlapping update.
	StopTimeout time.Duration
}

// DefaultEnvironment returns an Environment for the current process.
func DefaultEnvironment(logger *zap.Logger) *Environment {
	env := &Environment{
		Logger:          logger,
		Args:            os.Args[1:],
		CheckPrivileges: privilege.Check,
	}
	return env.WithDefaults()
}

// WithDefaults returns a copy of e with zero-valued fields filled in.
func (e *Environment) WithDefaults() *Environment {
	out := *e
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.NewController == nil {
		out.NewController = NewKardianosController
	}
	if out.PromptAccount == nil {
		out.PromptAccount = TerminalPrompt
	}
	if out.CheckPrivileges == nil {
		out.CheckPrivileges = func() error { return nil }
	}
	if out.StopTimeout <= 0 {
		out.StopTimeout = DefaultStopTimeout
	}
	return &out
}

// Controller builds a controller for s whose in-process program runs the
// hooks registered on the configurator.
func (e *Environment) Controller(ctx context.Context, s Settings) (Controller, error) {
	return e.NewController(s, newProgram(ctx, s, e.Logger.Named("program")))
}
