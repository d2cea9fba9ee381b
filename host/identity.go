package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunAs selects the account the service runs under.
type RunAs int

const (
	RunAsLocalSystem RunAs = iota
	RunAsLocalService
	RunAsNetworkService
	// RunAsSpecificUser requires SetCredentials before Run.
	RunAsSpecificUser
	// RunAsPrompt asks the operator for credentials at install time.
	RunAsPrompt
)

func (r RunAs) String() string {
	switch r {
	case RunAsLocalSystem:
		return "local-system"
	case RunAsLocalService:
		return "local-service"
	case RunAsNetworkService:
		return "network-service"
	case RunAsSpecificUser:
		return "user"
	case RunAsPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// ParseRunAs parses the String form of a RunAs value.
func ParseRunAs(s string) (RunAs, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local-system", "localsystem", "":
		return RunAsLocalSystem, nil
	case "local-service", "localservice":
		return RunAsLocalService, nil
	case "network-service", "networkservice":
		return RunAsNetworkService, nil
	case "user", "specific-user":
		return RunAsSpecificUser, nil
	case "prompt":
		return RunAsPrompt, nil
	default:
		return 0, fmt.Errorf("invalid run-as %q (expected local-system, local-service, network-service, user or prompt)", s)
	}
}

// Identity names the service in the OS service manager.
type Identity struct {
	Name        string
	DisplayName string
}

// resolveIdentity fills empty fields with the executable name.
func resolveIdentity(name, displayName, executable string) Identity {
	if name == "" {
		name = executable
	}
	if displayName == "" {
		displayName = executable
	}
	return Identity{Name: name, DisplayName: displayName}
}

// ExecutableName returns the base name of the running executable without
// its extension, falling back to os.Args[0].
func ExecutableName() string {
	path, err := os.Executable()
	if err != nil || path == "" {
		path = os.Args[0]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
