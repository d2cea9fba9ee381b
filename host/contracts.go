package host

import "context"

// Service is the hosted application.
type Service interface {
	// Start begins the service's work. It must return once the service can
	// be reported as started; long-running work belongs in goroutines.
	Start() error

	// Stop releases resources and halts the service. It must be safe to call
	// even when Start was never called.
	Stop() error
}

// Updater is a self-update mechanism started once the service is running.
type Updater interface {
	// Start begins polling for updates. It is invoked at most once, after
	// Service.Start succeeded, and must handle its own failures. ctx is
	// cancelled when the service stops.
	Start(ctx context.Context)
}

// ServiceFuncs adapts a pair of functions to Service. Nil functions are no-ops.
type ServiceFuncs struct {
	StartFunc func() error
	StopFunc  func() error
}

func (f ServiceFuncs) Start() error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc()
}

func (f ServiceFuncs) Stop() error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc()
}
