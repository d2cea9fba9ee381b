package svcmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountServiceUserName(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		goos    string
		want    string
	}{
		{"local system windows", Account{Kind: AccountLocalSystem}, "windows", ""},
		{"local service windows", Account{Kind: AccountLocalService}, "windows", `NT AUTHORITY\LocalService`},
		{"network service windows", Account{Kind: AccountNetworkService}, "windows", `NT AUTHORITY\NetworkService`},
		{"local service linux", Account{Kind: AccountLocalService}, "linux", ""},
		{"user", Account{Kind: AccountUser, Username: "svc", Password: "pw"}, "linux", "svc"},
		{"prompted user", Account{Kind: AccountPrompt, Username: "ops"}, "windows", "ops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.account.ServiceUserName(tt.goos))
		})
	}
}

func TestFixedAccountsNeedNoCredentials(t *testing.T) {
	for _, kind := range []AccountKind{AccountLocalSystem, AccountLocalService, AccountNetworkService} {
		assert.False(t, Account{Kind: kind}.RequiresCredentials(), kind.String())
	}
	assert.True(t, Account{Kind: AccountUser}.RequiresCredentials())
	assert.True(t, Account{Kind: AccountPrompt}.RequiresCredentials())
}

func TestSettingsValidate(t *testing.T) {
	ok := Settings{Name: "agent", Account: Account{Kind: AccountLocalSystem}}
	require.NoError(t, ok.Validate())

	assert.Error(t, Settings{}.Validate())
	assert.Error(t, Settings{Name: "a/b"}.Validate())
	// Credentials matter only at install time.
	assert.NoError(t, Settings{Name: "agent", Account: Account{Kind: AccountUser}}.Validate())
}

func TestConfiguratorLastWriteWins(t *testing.T) {
	c := NewConfigurator()
	c.SetDisplayName("first")
	c.RunAs("alice", "one")
	c.SetDisplayName("second")
	c.RunAs("bob", "two")

	s := c.Settings()
	assert.Equal(t, "second", s.DisplayName)
	assert.Equal(t, Account{Kind: AccountUser, Username: "bob", Password: "two"}, s.Account)
}

func TestSettingsSnapshotIsDetached(t *testing.T) {
	c := NewConfigurator()
	c.SetEnvVar("A", "1")
	c.SetArguments("run")
	s := c.Settings()

	c.SetEnvVar("A", "2")
	c.SetArguments("other")

	assert.Equal(t, "1", s.EnvVars["A"])
	assert.Equal(t, []string{"run"}, s.Arguments)
}

func TestServiceConfig(t *testing.T) {
	s := Settings{
		Name:        "agent",
		DisplayName: "Agent",
		Description: "does things",
		StartMode:   StartManual,
		Account:     Account{Kind: AccountUser, Username: `DOMAIN\svc`, Password: "secret"},
		Options:     map[string]interface{}{"StartType": "disabled", "OnFailure": "restart"},
	}

	cfg := serviceConfig(s, "windows")
	assert.Equal(t, "agent", cfg.Name)
	assert.Equal(t, "Agent", cfg.DisplayName)
	assert.Equal(t, `DOMAIN\svc`, cfg.UserName)
	assert.Equal(t, "secret", cfg.Option["Password"])
	assert.Equal(t, "restart", cfg.Option["OnFailure"])
	// explicit options override derived ones
	assert.Equal(t, "disabled", cfg.Option["StartType"])

	linux := serviceConfig(Settings{Name: "agent", Account: Account{Kind: AccountLocalService}}, "linux")
	assert.Empty(t, linux.UserName)
	assert.NotContains(t, linux.Option, "Password")
}
