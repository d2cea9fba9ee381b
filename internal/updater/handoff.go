package updater

// systemdRunArgs are passed to systemd-run so the hand-off lands in its own
// transient unit instead of the service's cgroup, which a stop of the
// service would kill.
var systemdRunArgs = []string{"--no-block", "--collect", "--quiet"}

// handOffCommand returns the program and argv that start exe with args
// outside the running service. systemdRun is the systemd-run path, empty
// when the host is not managed by systemd.
func handOffCommand(goos, systemdRun, exe string, args []string) (string, []string) {
	if goos != "linux" || systemdRun == "" {
		return exe, args
	}
	argv := make([]string, 0, len(systemdRunArgs)+1+len(args))
	argv = append(argv, systemdRunArgs...)
	argv = append(argv, exe)
	argv = append(argv, args...)
	return systemdRun, argv
}
