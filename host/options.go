package host

import (
	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/svcmgr"
)

// Option configures a Host at construction.
type Option func(*Host)

// WithServiceName sets the service name. Defaults to the executable name.
func WithServiceName(name string) Option {
	return func(h *Host) { h.serviceName = name }
}

// WithDisplayName sets the display name. Defaults to the executable name.
func WithDisplayName(name string) Option {
	return func(h *Host) { h.displayName = name }
}

// WithDescription sets the service description shown by the OS.
func WithDescription(description string) Option {
	return func(h *Host) { h.description = description }
}

// WithUpdater attaches the updater started after the service.
func WithUpdater(u Updater) Option {
	return func(h *Host) { h.updater = u }
}

// WithOverlapping lets an update start the new instance before the old one
// has fully stopped.
func WithOverlapping(overlap bool) Option {
	return func(h *Host) { h.overlapping = overlap }
}

// WithRunAs sets the identity policy. Defaults to RunAsLocalSystem.
func WithRunAs(r RunAs) Option {
	return func(h *Host) { h.runAs = r }
}

// WithLogger sets the logger passed to the service manager and host builders.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithEnvironment replaces the service-manager environment. Fields left empty
// are filled with process defaults, including the elevation check run before
// install, uninstall and update.
func WithEnvironment(env *svcmgr.Environment) Option {
	return func(h *Host) { h.env = env }
}
