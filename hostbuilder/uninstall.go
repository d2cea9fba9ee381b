package hostbuilder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/svcmgr"
)

type uninstallBuilder struct {
	env      *svcmgr.Environment
	settings svcmgr.Settings
}

func (b *uninstallBuilder) Run(ctx context.Context) error {
	logger := b.env.Logger.Named("uninstall")
	s := b.settings

	if err := b.env.CheckPrivileges(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrUninstallFailed, err)
	}

	ctl, err := b.env.Controller(ctx, s)
	if err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrUninstallFailed, err)
	}

	// A service that is not running refuses to stop; that is not a reason
	// to keep it registered.
	if err := ctl.Stop(); err != nil {
		logger.Warn("Stop before uninstall failed, continuing",
			zap.String("service", s.Name),
			zap.Error(err))
	}

	if err := ctl.Uninstall(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrUninstallFailed, err)
	}

	logger.Info("Service uninstalled", zap.String("service", s.Name))
	return nil
}
