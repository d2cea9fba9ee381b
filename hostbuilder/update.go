package hostbuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Guliveer/squirrelhost/svcmgr"
)

const (
	stopPollInitial = 100 * time.Millisecond
	stopPollMax     = 2 * time.Second
)

var errStillRunning = errors.New("service still running")

type updateBuilder struct {
	env      *svcmgr.Environment
	settings svcmgr.Settings
	version  string
	overlap  bool
}

func (b *updateBuilder) Run(ctx context.Context) error {
	logger := b.env.Logger.Named("update").With(
		zap.String("service", b.settings.Name),
		zap.Bool("overlap", b.overlap),
		versionField(b.version))

	if err := b.env.CheckPrivileges(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrUpdateFailed, err)
	}

	ctl, err := b.env.Controller(ctx, b.settings)
	if err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrUpdateFailed, err)
	}

	logger.Info("Restarting service on new version")

	if b.overlap {
		err = b.restartOverlapping(ctx, ctl, logger)
	} else {
		err = b.restartSequential(ctx, ctl, logger)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrUpdateFailed, err)
	}

	logger.Info("Service restarted on new version")
	return nil
}

// restartSequential stops the old instance and starts the new one only once
// the service manager reports it stopped.
func (b *updateBuilder) restartSequential(ctx context.Context, ctl svcmgr.Controller, logger *zap.Logger) error {
	if err := ctl.Stop(); err != nil {
		logger.Warn("Stop of previous instance failed, waiting for it anyway", zap.Error(err))
	}

	if err := waitStopped(ctx, ctl, b.env.StopTimeout); err != nil {
		return fmt.Errorf("%w: previous instance did not stop: %w", svcmgr.ErrStopFailed, err)
	}

	if err := ctl.Start(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrStartFailed, err)
	}
	return nil
}

// restartOverlapping issues stop and start together. Both instances may run
// for a moment; the hosted service must tolerate that. A service manager that
// refuses the start while the old instance is still up gets a second start
// once the stop has completed.
func (b *updateBuilder) restartOverlapping(ctx context.Context, ctl svcmgr.Controller, logger *zap.Logger) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := ctl.Stop(); err != nil {
			logger.Warn("Stop of previous instance failed", zap.Error(err))
		}
		return nil
	})
	g.Go(ctl.Start)

	startErr := g.Wait()
	if startErr == nil {
		return nil
	}

	logger.Warn("Overlapping start rejected, retrying after the previous instance stops", zap.Error(startErr))
	if err := waitStopped(ctx, ctl, b.env.StopTimeout); err != nil {
		return fmt.Errorf("%w: previous instance did not stop: %w", svcmgr.ErrStopFailed, err)
	}
	if err := ctl.Start(); err != nil {
		return fmt.Errorf("%w: %w", svcmgr.ErrStartFailed, err)
	}
	return nil
}

func waitStopped(ctx context.Context, ctl svcmgr.Controller, timeout time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = stopPollInitial
	bo.MaxInterval = stopPollMax
	bo.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		st, err := ctl.Status()
		if err != nil {
			return err
		}
		switch st {
		case svcmgr.StatusStopped, svcmgr.StatusNotInstalled:
			return nil
		default:
			return errStillRunning
		}
	}, backoff.WithContext(bo, ctx))
}
