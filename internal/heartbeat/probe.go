package heartbeat

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Probe samples one host vital.
type Probe interface {
	// Name is the key the sample is recorded under.
	Name() string
	Sample(ctx context.Context) (interface{}, error)
}

// DefaultProbes returns the probes the agent runs out of the box.
func DefaultProbes() []Probe {
	return []Probe{
		CPUProbe{Window: time.Second},
		MemoryProbe{},
		DiskProbe{Path: rootPath()},
		UptimeProbe{},
	}
}

// CPUProbe reports overall CPU utilization measured over Window.
type CPUProbe struct {
	Window time.Duration
}

func (CPUProbe) Name() string { return "cpu" }

func (p CPUProbe) Sample(ctx context.Context) (interface{}, error) {
	pct, err := cpu.PercentWithContext(ctx, p.Window, false)
	if err != nil {
		return nil, err
	}
	if len(pct) == 0 {
		return 0.0, nil
	}
	return pct[0], nil
}

// MemoryResult holds used and total RAM in bytes.
type MemoryResult struct {
	Used        uint64  `json:"used"`
	Total       uint64  `json:"total"`
	UsedPercent float64 `json:"used_percent"`
}

// MemoryProbe reports RAM usage.
type MemoryProbe struct{}

func (MemoryProbe) Name() string { return "memory" }

func (MemoryProbe) Sample(ctx context.Context) (interface{}, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return MemoryResult{Used: v.Used, Total: v.Total, UsedPercent: v.UsedPercent}, nil
}

// DiskProbe reports the used percentage of the filesystem holding Path.
type DiskProbe struct {
	Path string
}

func (DiskProbe) Name() string { return "disk" }

func (p DiskProbe) Sample(ctx context.Context) (interface{}, error) {
	u, err := disk.UsageWithContext(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	return u.UsedPercent, nil
}

// UptimeProbe reports seconds since boot.
type UptimeProbe struct{}

func (UptimeProbe) Name() string { return "uptime" }

func (UptimeProbe) Sample(ctx context.Context) (interface{}, error) {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return int(uptime), nil
}
