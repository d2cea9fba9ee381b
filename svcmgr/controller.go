package svcmgr

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"sync"

	"github.com/kardianos/service"
	"go.uber.org/zap"
)

// Status is the state of the registered service as reported by the OS.
type Status int

const (
	StatusUnknown Status = iota
	StatusRunning
	StatusStopped
	StatusNotInstalled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	case StatusNotInstalled:
		return "not-installed"
	default:
		return "unknown"
	}
}

// Controller drives the OS service manager for one service definition.
type Controller interface {
	// Run hosts the service in this process and blocks until it is stopped.
	Run() error
	Start() error
	Stop() error
	Install() error
	Uninstall() error
	Status() (Status, error)
}

// ControllerFactory builds a Controller for settings. The program receives
// start/stop signals when the controller hosts the service in-process.
type ControllerFactory func(s Settings, p service.Interface) (Controller, error)

// NewKardianosController is the default ControllerFactory.
func NewKardianosController(s Settings, p service.Interface) (Controller, error) {
	svc, err := service.New(p, serviceConfig(s, runtime.GOOS))
	if err != nil {
		return nil, fmt.Errorf("create service %s: %w", s.Name, err)
	}
	return &kardianosController{svc: svc}, nil
}

type kardianosController struct {
	svc service.Service
}

func (k *kardianosController) Run() error       { return k.svc.Run() }
func (k *kardianosController) Start() error     { return k.svc.Start() }
func (k *kardianosController) Stop() error      { return k.svc.Stop() }
func (k *kardianosController) Install() error   { return k.svc.Install() }
func (k *kardianosController) Uninstall() error { return k.svc.Uninstall() }

func (k *kardianosController) Status() (Status, error) {
	st, err := k.svc.Status()
	if errors.Is(err, service.ErrNotInstalled) {
		return StatusNotInstalled, nil
	}
	if err != nil {
		return StatusUnknown, err
	}
	switch st {
	case service.StatusRunning:
		return StatusRunning, nil
	case service.StatusStopped:
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}

// serviceConfig translates sealed settings into a kardianos config. Options
// set through the configurator are applied last and override derived ones.
func serviceConfig(s Settings, goos string) *service.Config {
	cfg := &service.Config{
		Name:         s.Name,
		DisplayName:  s.DisplayName,
		Description:  s.Description,
		UserName:     s.Account.ServiceUserName(goos),
		Arguments:    s.Arguments,
		Dependencies: s.Dependencies,
		Option:       make(service.KeyValue),
		EnvVars:      maps.Clone(s.EnvVars),
	}

	if goos == "windows" {
		cfg.Option["StartType"] = s.StartMode.String()
		if s.Account.Password != "" {
			cfg.Option["Password"] = s.Account.Password
		}
	} else if s.StartMode == StartAutomatic {
		cfg.Option["RunAtLoad"] = true
	}

	for k, v := range s.Options {
		cfg.Option[k] = v
	}
	return cfg
}

// program adapts Hooks to kardianos' service.Interface.
type program struct {
	hooks  Hooks
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newProgram(ctx context.Context, s Settings, logger *zap.Logger) service.Interface {
	ctx, cancel := context.WithCancel(ctx)
	p := &program{
		hooks:  s.Hooks(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	if s.EnableShutdown {
		return &shutdownProgram{p}
	}
	return p
}

// Start must not block: the hosted service does its work asynchronously.
func (p *program) Start(service.Service) error {
	p.logger.Info("starting service")
	if p.hooks.Start != nil {
		if err := p.hooks.Start(); err != nil {
			return fmt.Errorf("%w: %w", ErrStartFailed, err)
		}
	}
	p.once.Do(func() {
		if p.hooks.AfterStarted != nil {
			p.logger.Debug("service started, running after-start hook")
			p.hooks.AfterStarted(p.ctx)
		}
	})
	return nil
}

func (p *program) Stop(service.Service) error {
	p.logger.Info("stopping service")
	p.cancel()
	if p.hooks.Stop != nil {
		if err := p.hooks.Stop(); err != nil {
			return fmt.Errorf("%w: %w", ErrStopFailed, err)
		}
	}
	return nil
}

// shutdownProgram additionally implements service.Shutdowner so the OS
// shutdown event runs the stop hook.
type shutdownProgram struct {
	*program
}

func (p *shutdownProgram) Shutdown(s service.Service) error {
	p.logger.Info("system shutdown, stopping service")
	return p.Stop(s)
}
