// Package svcmgr is the service-manager integration used by the bootstrap
// dispatcher. It collects host configuration through a Configurator,
// recognizes lifecycle tokens on the command line, and drives the OS service
// manager (via github.com/kardianos/service) through a HostBuilder.
package svcmgr

import (
	"context"
	"maps"
	"slices"
)

// Hooks are the lifecycle callbacks of the hosted service.
type Hooks struct {
	// Start is invoked when the service manager starts the service.
	Start func() error
	// AfterStarted fires once, after Start succeeded. The context is
	// cancelled when the service stops.
	AfterStarted func(ctx context.Context)
	// Stop is invoked when the service manager stops the service.
	Stop func() error
}

// ConfigureFunc customizes a Configurator.
type ConfigureFunc func(c *Configurator)

// Configurator is the live, mutable host configuration. Every setter
// overwrites the previous value, so later callbacks win.
type Configurator struct {
	settings Settings

	switches    []commandLineSwitch
	definitions []commandLineDefinition

	builder  BuilderFactory
	exitCode *ExitCode
}

// NewConfigurator returns a Configurator with automatic start and no shutdown
// handling, running as LocalSystem.
func NewConfigurator() *Configurator {
	return &Configurator{
		settings: Settings{
			StartMode: StartAutomatic,
			Account:   Account{Kind: AccountLocalSystem},
			EnvVars:   make(map[string]string),
			Options:   make(map[string]interface{}),
		},
	}
}

// Service registers the hosted service's lifecycle hooks.
func (c *Configurator) Service(h Hooks) { c.settings.hooks = h }

func (c *Configurator) SetServiceName(name string)        { c.settings.Name = name }
func (c *Configurator) SetDisplayName(name string)        { c.settings.DisplayName = name }
func (c *Configurator) SetDescription(description string) { c.settings.Description = description }

// StartAutomatically registers the service to start on boot.
func (c *Configurator) StartAutomatically() { c.settings.StartMode = StartAutomatic }

// StartManually registers the service to start only on demand.
func (c *Configurator) StartManually() { c.settings.StartMode = StartManual }

// Disabled registers the service but prevents it from starting.
func (c *Configurator) Disabled() { c.settings.StartMode = StartDisabled }

// EnableShutdown makes the service stop gracefully on OS shutdown.
func (c *Configurator) EnableShutdown() { c.settings.EnableShutdown = true }

func (c *Configurator) RunAsLocalSystem()    { c.settings.Account = Account{Kind: AccountLocalSystem} }
func (c *Configurator) RunAsLocalService()   { c.settings.Account = Account{Kind: AccountLocalService} }
func (c *Configurator) RunAsNetworkService() { c.settings.Account = Account{Kind: AccountNetworkService} }

// RunAsPrompt asks the operator for credentials when the service is installed.
func (c *Configurator) RunAsPrompt() { c.settings.Account = Account{Kind: AccountPrompt} }

// RunAs runs the service under a specific account.
func (c *Configurator) RunAs(username, password string) {
	c.settings.Account = Account{Kind: AccountUser, Username: username, Password: password}
}

// SetArguments sets the arguments the OS service manager passes on start.
func (c *Configurator) SetArguments(args ...string) { c.settings.Arguments = slices.Clone(args) }

// AddDependency adds a service (or systemd directive) the service depends on.
func (c *Configurator) AddDependency(dep string) {
	c.settings.Dependencies = append(c.settings.Dependencies, dep)
}

// SetEnvVar sets an environment variable in the registered service definition.
func (c *Configurator) SetEnvVar(key, value string) { c.settings.EnvVars[key] = value }

// SetOption sets a platform specific kardianos/service option
// (e.g. "OnFailure", "Restart", "UserService").
func (c *Configurator) SetOption(key string, value interface{}) { c.settings.Options[key] = value }

// UseHostBuilder replaces the default plain-run builder.
func (c *Configurator) UseHostBuilder(f BuilderFactory) { c.builder = f }

// Exit requests that Run return code without touching the service manager.
func (c *Configurator) Exit(code ExitCode) { c.exitCode = &code }

// Settings returns a snapshot of the current configuration.
func (c *Configurator) Settings() Settings {
	s := c.settings
	s.Arguments = slices.Clone(s.Arguments)
	s.Dependencies = slices.Clone(s.Dependencies)
	s.EnvVars = maps.Clone(s.EnvVars)
	s.Options = maps.Clone(s.Options)
	return s
}
