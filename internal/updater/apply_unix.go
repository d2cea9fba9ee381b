//go:build !windows

package updater

import (
	"os"
	"os/exec"
	"runtime"
	"syscall"
)

func prepareBinary(path string) error {
	return os.Chmod(path, 0755)
}

// launchDetached starts path outside the service: through systemd-run on
// systemd hosts, otherwise in its own session.
func launchDetached(path string, args ...string) error {
	name, argv := handOffCommand(runtime.GOOS, systemdRun(), path, args)
	cmd := exec.Command(name, argv...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if name != path {
		// systemd-run returns once the unit is queued.
		return cmd.Run()
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// systemdRun returns the systemd-run binary when systemd is the running init.
func systemdRun() string {
	if _, err := os.Stat("/run/systemd/system"); err != nil {
		return ""
	}
	p, err := exec.LookPath("systemd-run")
	if err != nil {
		return ""
	}
	return p
}
