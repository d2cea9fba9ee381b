// Package heartbeat is a small hosted service: it samples host vitals on a
// fixed interval and logs them.
package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyRunning is returned by Start on a running service.
var ErrAlreadyRunning = errors.New("heartbeat already running")

const sampleTimeout = 10 * time.Second

// Snapshot is one round of samples keyed by probe name. Failed probes are absent.
type Snapshot struct {
	Timestamp time.Time
	Values    map[string]interface{}
}

// Option configures a Service.
type Option func(*Service)

// WithProbes replaces the default probe set.
func WithProbes(probes ...Probe) Option {
	return func(s *Service) { s.probes = probes }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// OnSample registers a callback invoked with every snapshot.
func OnSample(fn func(Snapshot)) Option {
	return func(s *Service) { s.onSample = fn }
}

// Service samples its probes every interval between Start and Stop.
type Service struct {
	interval time.Duration
	probes   []Probe
	logger   *zap.Logger
	onSample func(Snapshot)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped Service.
func New(interval time.Duration, opts ...Option) *Service {
	s := &Service{
		interval: interval,
		probes:   DefaultProbes(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sampling loop and returns immediately.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("Heartbeat started",
		zap.Duration("interval", s.interval),
		zap.Int("probes", len(s.probes)))

	go s.loop(ctx, s.done)
	return nil
}

// Stop halts the loop and waits for an in-flight sample to finish.
// It is safe to call without Start and more than once.
func (s *Service) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	s.logger.Info("Heartbeat stopped")
	return nil
}

func (s *Service) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.beat(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.beat(ctx)
		}
	}
}

func (s *Service) beat(ctx context.Context) {
	snap := s.Sample(ctx)
	if ctx.Err() != nil {
		return
	}

	fields := make([]zap.Field, 0, len(snap.Values))
	for _, p := range s.probes {
		if v, ok := snap.Values[p.Name()]; ok {
			fields = append(fields, zap.Any(p.Name(), v))
		}
	}
	s.logger.Info("Heartbeat", fields...)

	if s.onSample != nil {
		s.onSample(snap)
	}
}

// Sample runs all probes concurrently under a bounded timeout.
func (s *Service) Sample(ctx context.Context) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, sampleTimeout)
	defer cancel()

	snap := Snapshot{
		Timestamp: time.Now().UTC(),
		Values:    make(map[string]interface{}, len(s.probes)),
	}
	var mu sync.Mutex
	var g errgroup.Group
	for _, p := range s.probes {
		p := p
		g.Go(func() error {
			v, err := p.Sample(ctx)
			if err != nil {
				s.logger.Warn("Probe failed", zap.String("probe", p.Name()), zap.Error(err))
				return nil
			}
			mu.Lock()
			snap.Values[p.Name()] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return snap
}
