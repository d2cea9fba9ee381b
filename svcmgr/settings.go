package svcmgr

import (
	"fmt"
	"strings"
)

// AccountKind selects the OS account a registered service runs under.
type AccountKind int

const (
	AccountLocalSystem AccountKind = iota
	AccountLocalService
	AccountNetworkService
	AccountUser
	// AccountPrompt defers the choice to the operator at install time.
	AccountPrompt
)

func (k AccountKind) String() string {
	switch k {
	case AccountLocalSystem:
		return "local-system"
	case AccountLocalService:
		return "local-service"
	case AccountNetworkService:
		return "network-service"
	case AccountUser:
		return "user"
	case AccountPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Account is the run-as identity of the service.
type Account struct {
	Kind     AccountKind
	Username string
	Password string
}

// RequiresCredentials reports whether the account carries a login/password pair.
func (a Account) RequiresCredentials() bool {
	return a.Kind == AccountUser || a.Kind == AccountPrompt
}

// ServiceUserName returns the account name the OS service manager expects
// for goos. An empty result means the platform default (LocalSystem on
// Windows, root on unix service managers).
func (a Account) ServiceUserName(goos string) string {
	switch a.Kind {
	case AccountUser, AccountPrompt:
		return a.Username
	case AccountLocalService:
		if goos == "windows" {
			return `NT AUTHORITY\LocalService`
		}
	case AccountNetworkService:
		if goos == "windows" {
			return `NT AUTHORITY\NetworkService`
		}
	}
	return ""
}

// StartMode controls whether the OS starts the service on boot.
type StartMode int

const (
	StartAutomatic StartMode = iota
	StartManual
	StartDisabled
)

func (m StartMode) String() string {
	switch m {
	case StartAutomatic:
		return "automatic"
	case StartManual:
		return "manual"
	case StartDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Settings is the sealed configuration handed to host builders. It is a
// value copy of the Configurator taken after every configure callback ran.
type Settings struct {
	Name           string
	DisplayName    string
	Description    string
	StartMode      StartMode
	EnableShutdown bool
	Account        Account
	Arguments      []string
	Dependencies   []string
	EnvVars        map[string]string
	Options        map[string]interface{}

	hooks Hooks
}

// Hooks returns the service lifecycle callbacks registered on the configurator.
func (s Settings) Hooks() Hooks {
	return s.hooks
}

// WithAccount returns a copy of s with the account replaced.
func (s Settings) WithAccount(a Account) Settings {
	s.Account = a
	return s
}

// Validate checks the fields the OS service manager refuses to work without.
// Account credentials are only needed to register the service and are
// checked by the install action.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("service name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("service name %q must not contain path separators", s.Name)
	}
	return nil
}
