// Package svcmgrtest provides an in-memory svcmgr.Controller for tests.
package svcmgrtest

import (
	"slices"
	"sync"

	"github.com/kardianos/service"

	"github.com/Guliveer/squirrelhost/svcmgr"
)

// Controller records every call made against it. Run starts and then stops
// the program, mimicking a service manager that is asked to stop right away.
type Controller struct {
	mu    sync.Mutex
	calls []string

	// Settings and Program are captured by the factory.
	Settings svcmgr.Settings
	Program  service.Interface

	RunErr, StartErr, StopErr, InstallErr, UninstallErr error

	// StartErrs are returned by successive Start calls before StartErr applies.
	StartErrs []error

	// Statuses are returned by successive Status calls; the last one repeats.
	Statuses []svcmgr.Status

	// OnStart and OnStop run inside Start and Stop before they return.
	OnStart func()
	OnStop  func()
}

// Factory returns a ControllerFactory that always hands out c.
func (c *Controller) Factory() svcmgr.ControllerFactory {
	return func(s svcmgr.Settings, p service.Interface) (svcmgr.Controller, error) {
		c.mu.Lock()
		c.Settings = s
		c.Program = p
		c.calls = append(c.calls, "new")
		c.mu.Unlock()
		return c, nil
	}
}

// Calls returns the recorded call names in order.
func (c *Controller) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// Count returns how many times name was called.
func (c *Controller) Count(name string) int {
	n := 0
	for _, call := range c.Calls() {
		if call == name {
			n++
		}
	}
	return n
}

func (c *Controller) record(name string) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.mu.Unlock()
}

func (c *Controller) Run() error {
	c.record("run")
	if c.RunErr != nil {
		return c.RunErr
	}
	if err := c.Program.Start(nil); err != nil {
		return err
	}
	return c.Program.Stop(nil)
}

func (c *Controller) Start() error {
	c.record("start")
	if c.OnStart != nil {
		c.OnStart()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.StartErrs) > 0 {
		err := c.StartErrs[0]
		c.StartErrs = c.StartErrs[1:]
		return err
	}
	return c.StartErr
}

func (c *Controller) Stop() error {
	c.record("stop")
	if c.OnStop != nil {
		c.OnStop()
	}
	return c.StopErr
}

func (c *Controller) Install() error {
	c.record("install")
	return c.InstallErr
}

func (c *Controller) Uninstall() error {
	c.record("uninstall")
	return c.UninstallErr
}

func (c *Controller) Status() (svcmgr.Status, error) {
	c.record("status")
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Statuses) == 0 {
		return svcmgr.StatusStopped, nil
	}
	st := c.Statuses[0]
	if len(c.Statuses) > 1 {
		c.Statuses = c.Statuses[1:]
	}
	return st, nil
}
