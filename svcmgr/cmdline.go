package svcmgr

import (
	"strconv"
	"strings"
)

// squirrelPrefix is the prefix Squirrel puts on its lifecycle hooks
// (--squirrel-install 1.0.0, --squirrel-firstrun, ...).
const squirrelPrefix = "squirrel-"

type commandLineSwitch struct {
	name string
	fn   func(on bool)
}

type commandLineDefinition struct {
	name string
	fn   func(value string)
}

// AddCommandLineSwitch registers a boolean token. Switches are acknowledged
// wherever they appear and never stop recognition.
func (c *Configurator) AddCommandLineSwitch(name string, fn func(on bool)) {
	c.switches = append(c.switches, commandLineSwitch{name: name, fn: fn})
}

// AddCommandLineDefinition registers a token carrying an optional value.
// Only the first definition found on the command line is applied.
func (c *Configurator) AddCommandLineDefinition(name string, fn func(value string)) {
	c.definitions = append(c.definitions, commandLineDefinition{name: name, fn: fn})
}

// ApplyCommandLine scans args in order, invoking switch handlers for every
// switch and the handler of the first matching definition. It returns the
// name of the applied definition, or "" when the invocation is a plain run.
// Unrecognized arguments are ignored.
//
// Accepted forms: name, -name, --name, --name=value, -name:value,
// --squirrel-name, and a value given as the following argument.
func (c *Configurator) ApplyCommandLine(args []string) string {
	for i := 0; i < len(args); i++ {
		name, value, hasValue := splitToken(args[i])
		if name == "" {
			continue
		}

		if sw, ok := c.lookupSwitch(name); ok {
			on := true
			if hasValue {
				if b, err := strconv.ParseBool(value); err == nil {
					on = b
				}
			}
			if sw.fn != nil {
				sw.fn(on)
			}
			continue
		}

		def, ok := c.lookupDefinition(name)
		if !ok {
			continue
		}
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			value = args[i+1]
		}
		if def.fn != nil {
			def.fn(value)
		}
		return def.name
	}
	return ""
}

func (c *Configurator) lookupSwitch(name string) (commandLineSwitch, bool) {
	for _, candidate := range candidates(name) {
		for _, sw := range c.switches {
			if strings.EqualFold(sw.name, candidate) {
				return sw, true
			}
		}
	}
	return commandLineSwitch{}, false
}

func (c *Configurator) lookupDefinition(name string) (commandLineDefinition, bool) {
	for _, candidate := range candidates(name) {
		for _, def := range c.definitions {
			if strings.EqualFold(def.name, candidate) {
				return def, true
			}
		}
	}
	return commandLineDefinition{}, false
}

func candidates(name string) []string {
	if len(name) > len(squirrelPrefix) && strings.EqualFold(name[:len(squirrelPrefix)], squirrelPrefix) {
		return []string{name, name[len(squirrelPrefix):]}
	}
	return []string{name}
}

// splitToken strips leading dashes and splits an attached value. The ':'
// separator is only honoured on dashed tokens so bare values such as
// "C:\path" are not mistaken for definitions.
func splitToken(arg string) (name, value string, hasValue bool) {
	dashed := strings.HasPrefix(arg, "-")
	name = strings.TrimLeft(arg, "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], name[i+1:], true
	}
	if dashed {
		if i := strings.IndexByte(name, ':'); i >= 0 {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}
