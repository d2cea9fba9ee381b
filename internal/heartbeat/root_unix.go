//go:build !windows

package heartbeat

func rootPath() string { return "/" }
