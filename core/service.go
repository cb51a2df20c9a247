package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultDrainTimeout bounds how long shutdown waits for in-flight handlers.
const DefaultDrainTimeout = 10 * time.Second

// State is a Service lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateStoreReady
	StateServing
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStoreReady:
		return "store_ready"
	case StateServing:
		return "serving"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// StoreInitializer prepares persistent storage. Init must be idempotent.
type StoreInitializer interface {
	Init(ctx context.Context) error
}

// BackgroundLoop runs until ctx is cancelled.
type BackgroundLoop interface {
	Run(ctx context.Context)
}

// Heartbeat records the outcome of background cycles.
type Heartbeat struct {
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastFailure time.Time `json:"last_failure,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Cycles      uint64    `json:"cycles"`
	Failures    uint64    `json:"failures"`
}

// HeartbeatSource exposes the heartbeat of a background loop.
type HeartbeatSource interface {
	Heartbeat() Heartbeat
}

// Status is a point-in-time view of the service.
type Status struct {
	State     string     `json:"state"`
	Scheduler *Heartbeat `json:"scheduler,omitempty"`
}

// ServiceConfig wires a Service. AdminSocket and Broadcaster are optional.
type ServiceConfig struct {
	Store        StoreInitializer
	Scheduler    BackgroundLoop
	Receiver     Receiver
	Dispatcher   *Dispatcher
	DrainTimeout time.Duration
	AdminSocket  string
	Broadcaster  Broadcaster
	Logger       *slog.Logger
}

// Service owns process startup order and shutdown:
// store init, then scheduler, then the inbound listener.
type Service struct {
	cfg   ServiceConfig
	state atomic.Int32
}

// NewService creates a Service in StateUninitialized.
func NewService(cfg ServiceConfig) *Service {
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{cfg: cfg}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Status reports the state and, if available, the scheduler heartbeat.
func (s *Service) Status() Status {
	st := Status{State: s.State().String()}
	if hs, ok := s.cfg.Scheduler.(HeartbeatSource); ok {
		hb := hs.Heartbeat()
		st.Scheduler = &hb
	}
	return st
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
	s.cfg.Logger.Info("service state changed", "state", st.String())
}

// Run initializes the store and serves until ctx is cancelled or the
// receiver fails. A store init failure is returned before anything else
// starts.
func (s *Service) Run(ctx context.Context) error {
	logger := s.cfg.Logger

	if err := s.cfg.Store.Init(ctx); err != nil {
		s.setState(StateStopped)
		return fmt.Errorf("init store: %w", err)
	}
	s.setState(StateStoreReady)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var admin *Server
	if s.cfg.AdminSocket != "" {
		admin = NewServer(s.cfg.AdminSocket, s, s.cfg.Broadcaster, logger)
		if err := admin.Start(runCtx); err != nil {
			s.setState(StateStopped)
			return fmt.Errorf("start admin socket: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		s.cfg.Scheduler.Run(gctx)
		return nil
	})

	received := make(chan struct{})
	g.Go(func() error {
		defer close(received)
		defer cancel()
		if err := s.cfg.Receiver.Start(gctx); err != nil {
			return fmt.Errorf("receiver: %w", err)
		}
		return nil
	})
	s.setState(StateServing)

	<-gctx.Done()
	s.setState(StateShuttingDown)
	cancel()

	// The receiver must be done feeding the dispatcher before draining.
	<-received
	if !s.cfg.Dispatcher.Drain(s.cfg.DrainTimeout) {
		logger.Warn("drain timeout elapsed with handlers still running", "timeout", s.cfg.DrainTimeout)
	}
	if admin != nil {
		admin.Shutdown()
	}

	err := g.Wait()
	s.setState(StateStopped)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
