package svcmgr

import "errors"

// ExitCode is the process exit status produced by Run.
type ExitCode int

const (
	// ExitOK indicates the selected action completed (or the process was told to exit).
	ExitOK ExitCode = 0

	// ExitAbnormal indicates a failure that does not map to a lifecycle action.
	ExitAbnormal ExitCode = 1

	// ExitInvalidInvocation is reserved for callers that reject unknown arguments.
	ExitInvalidInvocation ExitCode = 2

	// ExitStartFailed indicates the service could not be started.
	ExitStartFailed ExitCode = 3

	// ExitStopFailed indicates the service could not be stopped.
	ExitStopFailed ExitCode = 4

	// ExitInstallFailed indicates registration with the OS service manager failed.
	ExitInstallFailed ExitCode = 5

	// ExitUninstallFailed indicates deregistration failed.
	ExitUninstallFailed ExitCode = 6

	// ExitUpdateFailed indicates the post-update restart failed.
	ExitUpdateFailed ExitCode = 7
)

// Sentinel errors wrapped by host builders so Run can pick an exit code.
var (
	ErrStartFailed     = errors.New("service start failed")
	ErrStopFailed      = errors.New("service stop failed")
	ErrInstallFailed   = errors.New("service install failed")
	ErrUninstallFailed = errors.New("service uninstall failed")
	ErrUpdateFailed    = errors.New("service update failed")
)

// ExitCodeFor maps an error returned by a HostBuilder to an ExitCode.
// The most specific lifecycle sentinel wins; update is checked first because
// an update failure usually also wraps a start or stop failure.
func ExitCodeFor(err error) ExitCode {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUpdateFailed):
		return ExitUpdateFailed
	case errors.Is(err, ErrInstallFailed):
		return ExitInstallFailed
	case errors.Is(err, ErrUninstallFailed):
		return ExitUninstallFailed
	case errors.Is(err, ErrStartFailed):
		return ExitStartFailed
	case errors.Is(err, ErrStopFailed):
		return ExitStopFailed
	default:
		return ExitAbnormal
	}
}
