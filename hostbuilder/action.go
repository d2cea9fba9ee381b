// Package hostbuilder implements the lifecycle actions the dispatcher can
// select from the command line: install-and-start, stop-and-uninstall, and
// update-with-restart.
package hostbuilder

import (
	"fmt"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/svcmgr"
)

// Action is one of Install, Uninstall or Update.
type Action interface {
	action()
}

// Install registers the service with the OS and starts it. Version is
// recorded in logs only.
type Install struct {
	Version string
}

// Uninstall stops the service if it runs and removes its registration.
type Uninstall struct{}

// Update restarts the registered service on a freshly staged version.
// With Overlap the new instance is started without waiting for the old one
// to finish stopping.
type Update struct {
	Version string
	Overlap bool
}

func (Install) action()   {}
func (Uninstall) action() {}
func (Update) action()    {}

// For returns the builder factory performing a.
func For(a Action) svcmgr.BuilderFactory {
	return func(env *svcmgr.Environment, s svcmgr.Settings) svcmgr.HostBuilder {
		env = env.WithDefaults()
		switch a := a.(type) {
		case Install:
			return &installBuilder{env: env, settings: s, version: a.Version}
		case Uninstall:
			return &uninstallBuilder{env: env, settings: s}
		case Update:
			return &updateBuilder{env: env, settings: s, version: a.Version, overlap: a.Overlap}
		default:
			panic(fmt.Sprintf("hostbuilder: unsupported action %T", a))
		}
	}
}

// versionField renders a version argument for logging. Unparseable versions
// are logged verbatim; they never affect the action.
func versionField(raw string) zap.Field {
	if raw == "" {
		return zap.Skip()
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return zap.String("version_raw", raw)
	}
	return zap.String("version", v.String())
}
