package hostbuilder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Guliveer/squirrelhost/svcmgr"
)

var errNoUsername = errors.New("account requires a username")

type installBuilder struct {
	env      *svcmgr.Environment
	settings svcmgr.Settings
	version  string
}

func (b *installBuilder) Run(ctx context.Context) error {
	logger := b.env.Logger.Named("install")
	s := b.settings

	if err := b.env.CheckPrivileges(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrInstallFailed, err)
	}

	if s.Account.Kind == svcmgr.AccountPrompt {
		username, password, err := b.env.PromptAccount(s.Name)
		if err != nil {
			return fmt.Errorf("%w: prompt for account: %w", svcmgr.ErrInstallFailed, err)
		}
		s = s.WithAccount(svcmgr.Account{Kind: svcmgr.AccountPrompt, Username: username, Password: password})
	}

	if s.Account.RequiresCredentials() && s.Account.Username == "" {
		return fmt.Errorf("%w: %w", svcmgr.ErrInstallFailed, errNoUsername)
	}

	ctl, err := b.env.Controller(ctx, s)
	if err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrInstallFailed, err)
	}

	logger.Info("Installing service",
		zap.String("service", s.Name),
		zap.Stringer("account", s.Account.Kind),
		zap.Stringer("start_mode", s.StartMode),
		versionField(b.version))

	if err := ctl.Install(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrInstallFailed, err)
	}
	if err := ctl.Start(); err != nil {
		return fmt.Errorf("%w: start after install: %w", svcmgr.ErrInstallFailed, err)
	}

	logger.Info("Service installed and started", zap.String("service", s.Name))
	return nil
}
