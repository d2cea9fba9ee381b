// Package host bootstraps a service that installs itself into the OS service
// manager and cooperates with Squirrel-style self updates.
//
// A Host inspects the process arguments once and either exits immediately
// (firstrun, obsolete), performs a lifecycle action (install, uninstall,
// updated) or hosts the service until the service manager stops it.
package host

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/hostbuilder"
	"github.com/Guliveer/squirrelhost/internal/privilege"
	"github.com/Guliveer/squirrelhost/svcmgr"
)

// Command-line tokens recognized by the dispatcher.
const (
	SwitchSquirrel = "squirrel"
	CmdFirstRun    = "firstrun"
	CmdObsolete    = "obsolete"
	CmdUpdated     = "updated"
	CmdInstall     = "install"
	CmdUninstall   = "uninstall"
)

// Host is the bootstrap dispatcher for one hosted service.
type Host struct {
	service     Service
	updater     Updater
	serviceName string
	displayName string
	description string
	overlapping bool
	runAs       RunAs

	login    string
	password string

	logger *zap.Logger
	env    *svcmgr.Environment
}

// New creates a Host for svc.
func New(svc Service, opts ...Option) *Host {
	h := &Host{
		service: svc,
		runAs:   RunAsLocalSystem,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// SetCredentials sets the account used with RunAsSpecificUser. Call it
// before Run; the last call wins.
func (h *Host) SetCredentials(login, password string) {
	h.login = login
	h.password = password
}

// Run is RunContext with a background context.
func (h *Host) Run(ext ...svcmgr.ConfigureFunc) svcmgr.ExitCode {
	return h.RunContext(context.Background(), ext...)
}

// RunContext configures the service manager and runs the action selected by
// the command line. ext callbacks run after the built-in configuration and
// may override any of it. For a plain run it blocks until the service stops.
func (h *Host) RunContext(ctx context.Context, ext ...svcmgr.ConfigureFunc) svcmgr.ExitCode {
	configure := make([]svcmgr.ConfigureFunc, 0, len(ext)+1)
	configure = append(configure, h.configure)
	configure = append(configure, ext...)
	return svcmgr.Run(ctx, h.environment(), configure...)
}

func (h *Host) environment() *svcmgr.Environment {
	if h.env == nil {
		return svcmgr.DefaultEnvironment(h.logger)
	}
	env := *h.env
	if env.Logger == nil {
		env.Logger = h.logger
	}
	if env.Args == nil {
		env.Args = os.Args[1:]
	}
	if env.CheckPrivileges == nil {
		env.CheckPrivileges = privilege.Check
	}
	return &env
}

// Identity returns the resolved service identity.
func (h *Host) Identity() Identity {
	return resolveIdentity(h.serviceName, h.displayName, ExecutableName())
}

func (h *Host) configure(c *svcmgr.Configurator) {
	id := h.Identity()

	c.Service(svcmgr.Hooks{
		Start: h.service.Start,
		AfterStarted: func(ctx context.Context) {
			if h.updater != nil {
				h.updater.Start(ctx)
			}
		},
		Stop: h.service.Stop,
	})

	c.SetServiceName(id.Name)
	c.SetDisplayName(id.DisplayName)
	if h.description != "" {
		c.SetDescription(h.description)
	}
	c.StartAutomatically()
	c.EnableShutdown()

	switch h.runAs {
	case RunAsPrompt:
		c.RunAsPrompt()
	case RunAsLocalService:
		c.RunAsLocalService()
	case RunAsNetworkService:
		c.RunAsNetworkService()
	case RunAsSpecificUser:
		c.RunAs(h.login, h.password)
	default:
		c.RunAsLocalSystem()
	}

	c.AddCommandLineSwitch(SwitchSquirrel, func(bool) {})
	c.AddCommandLineDefinition(CmdFirstRun, func(string) { c.Exit(svcmgr.ExitOK) })
	c.AddCommandLineDefinition(CmdObsolete, func(string) { c.Exit(svcmgr.ExitOK) })
	c.AddCommandLineDefinition(CmdUpdated, func(version string) {
		c.UseHostBuilder(hostbuilder.For(hostbuilder.Update{Version: version, Overlap: h.overlapping}))
	})
	c.AddCommandLineDefinition(CmdInstall, func(version string) {
		c.UseHostBuilder(hostbuilder.For(hostbuilder.Install{Version: version}))
	})
	c.AddCommandLineDefinition(CmdUninstall, func(string) {
		c.UseHostBuilder(hostbuilder.For(hostbuilder.Uninstall{}))
	})
}
