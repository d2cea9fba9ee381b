package svcmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func recordingConfigurator(got *[]string) *Configurator {
	c := NewConfigurator()
	c.AddCommandLineSwitch("squirrel", func(on bool) {
		if on {
			*got = append(*got, "squirrel")
		}
	})
	for _, name := range []string{"firstrun", "obsolete", "updated", "install", "uninstall"} {
		name := name
		c.AddCommandLineDefinition(name, func(value string) {
			*got = append(*got, name+"="+value)
		})
	}
	return c
}

func TestApplyCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		matched string
		calls   []string
	}{
		{"no args", nil, "", nil},
		{"unknown args", []string{"--config", "agent.yaml", "frobnicate"}, "", nil},
		{"bare install with version", []string{"install", "1.0.0"}, "install", []string{"install=1.0.0"}},
		{"squirrel hook", []string{"--squirrel-install", "1.0.0"}, "install", []string{"install=1.0.0"}},
		{"squirrel hook uppercase", []string{"--Squirrel-Updated", "2.0.0"}, "updated", []string{"updated=2.0.0"}},
		{"equals value", []string{"--updated=2.0.0"}, "updated", []string{"updated=2.0.0"}},
		{"colon value", []string{"-updated:2.0.0"}, "updated", []string{"updated=2.0.0"}},
		{"value must not be a flag", []string{"install", "--config"}, "install", []string{"install="}},
		{"firstrun", []string{"--squirrel-firstrun"}, "firstrun", []string{"firstrun="}},
		{"switch then definition", []string{"--squirrel", "uninstall"}, "uninstall", []string{"squirrel", "uninstall="}},
		{"switch alone", []string{"-squirrel"}, "", []string{"squirrel"}},
		{"switch disabled", []string{"--squirrel=false"}, "", nil},
		{"first definition wins", []string{"obsolete", "install", "1.0.0"}, "obsolete", []string{"obsolete=install"}},
		{"first definition wins with flags", []string{"--obsolete", "--install", "1.0.0"}, "obsolete", []string{"obsolete="}},
		{"later definition ignored", []string{"uninstall", "--updated=2.0.0"}, "uninstall", []string{"uninstall="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			c := recordingConfigurator(&got)
			assert.Equal(t, tt.matched, c.ApplyCommandLine(tt.args))
			assert.Equal(t, tt.calls, got)
		})
	}
}

func TestSplitToken(t *testing.T) {
	tests := []struct {
		arg      string
		name     string
		value    string
		hasValue bool
	}{
		{"install", "install", "", false},
		{"--install", "install", "", false},
		{"--install=1.0", "install", "1.0", true},
		{"-install:1.0", "install", "1.0", true},
		{`C:\svc`, `C:\svc`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, value, hasValue := splitToken(tt.arg)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
			assert.Equal(t, tt.hasValue, hasValue)
		})
	}
}
