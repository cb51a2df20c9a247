package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jdelaire/bingobot/core/commands"
	"github.com/jdelaire/bingobot/core/policy"
)

type fakeStore struct {
	err   error
	calls atomic.Int32
}

func (f *fakeStore) Init(context.Context) error {
	f.calls.Add(1)
	return f.err
}

type fakeScheduler struct {
	started atomic.Bool
	hb      Heartbeat
}

func (f *fakeScheduler) Run(ctx context.Context) {
	f.started.Store(true)
	<-ctx.Done()
}

func (f *fakeScheduler) Heartbeat() Heartbeat { return f.hb }

// fakeReceiver feeds events to a dispatcher, then blocks until cancelled
// or returns err if set.
type fakeReceiver struct {
	dispatcher *Dispatcher
	events     []Event
	err        error
	started    atomic.Bool
	ready      chan struct{}
	once       sync.Once
}

func (f *fakeReceiver) Start(ctx context.Context) error {
	f.started.Store(true)
	for _, ev := range f.events {
		f.dispatcher.Handle(ev)
	}
	f.once.Do(func() {
		if f.ready != nil {
			close(f.ready)
		}
	})
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func newServiceDispatcher(spy *spyMessenger, extra ...commands.Command) *Dispatcher {
	cmds := commands.NewRegistry()
	cmds.Register(&commands.StartCommand{})
	for _, c := range extra {
		cmds.Register(c)
	}
	router := NewRouter(NewRegistryBuilder().Build(), spy, testLogger())
	return NewDispatcher(policy.New(policy.DefaultFreshnessWindow), cmds, router, spy, testLogger(), DispatcherOptions{})
}

func TestServiceStoreFailureStartsNothing(t *testing.T) {
	spy := &spyMessenger{}
	store := &fakeStore{err: errors.New("disk full")}
	sched := &fakeScheduler{}
	recv := &fakeReceiver{}

	svc := NewService(ServiceConfig{
		Store:      store,
		Scheduler:  sched,
		Receiver:   recv,
		Dispatcher: newServiceDispatcher(spy),
		Logger:     testLogger(),
	})

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected store init error")
	}
	if !errors.Is(err, store.err) {
		t.Errorf("error %v does not wrap store error", err)
	}
	if sched.started.Load() || recv.started.Load() {
		t.Error("scheduler or receiver started after store failure")
	}
	if svc.State() != StateStopped {
		t.Errorf("state = %s, want stopped", svc.State())
	}
}

func TestServiceServesUntilCancelled(t *testing.T) {
	spy := &spyMessenger{}
	d := newServiceDispatcher(spy)
	store := &fakeStore{}
	sched := &fakeScheduler{hb: Heartbeat{Cycles: 2}}
	recv := &fakeReceiver{
		dispatcher: d,
		events:     []Event{commandEvent("start")},
		ready:      make(chan struct{}),
	}

	svc := NewService(ServiceConfig{
		Store:      store,
		Scheduler:  sched,
		Receiver:   recv,
		Dispatcher: d,
		Logger:     testLogger(),
	})
	if svc.State() != StateUninitialized {
		t.Fatalf("initial state = %s, want uninitialized", svc.State())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	<-recv.ready
	deadline := time.Now().Add(time.Second)
	for svc.State() != StateServing && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.State() != StateServing {
		t.Fatalf("state = %s, want serving", svc.State())
	}
	st := svc.Status()
	if st.State != "serving" || st.Scheduler == nil || st.Scheduler.Cycles != 2 {
		t.Errorf("status = %+v", st)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if svc.State() != StateStopped {
		t.Errorf("state = %s, want stopped", svc.State())
	}
	if store.calls.Load() != 1 {
		t.Errorf("store init called %d times, want 1", store.calls.Load())
	}
	if sent, _, _ := spy.counts(); sent != 1 {
		t.Errorf("sent %d, want 1 (in-flight work drained)", sent)
	}
}

func TestServiceReceiverErrorStopsService(t *testing.T) {
	spy := &spyMessenger{}
	d := newServiceDispatcher(spy)
	recvErr := errors.New("unauthorized token")

	svc := NewService(ServiceConfig{
		Store:      &fakeStore{},
		Scheduler:  &fakeScheduler{},
		Receiver:   &fakeReceiver{dispatcher: d, err: recvErr},
		Dispatcher: d,
		Logger:     testLogger(),
	})

	err := svc.Run(context.Background())
	if !errors.Is(err, recvErr) {
		t.Fatalf("Run error = %v, want wrapping %v", err, recvErr)
	}
	if svc.State() != StateStopped {
		t.Errorf("state = %s, want stopped", svc.State())
	}
}

func TestServiceDrainTimeout(t *testing.T) {
	spy := &spyMessenger{}
	release := make(chan struct{})
	block := &funcCommand{name: "block", fn: func(context.Context, commands.Request) (commands.Reply, error) {
		<-release
		return commands.Reply{Text: "late"}, nil
	}}
	d := newServiceDispatcher(spy, block)
	recv := &fakeReceiver{dispatcher: d, events: []Event{commandEvent("block")}, ready: make(chan struct{})}

	svc := NewService(ServiceConfig{
		Store:        &fakeStore{},
		Scheduler:    &fakeScheduler{},
		Receiver:     recv,
		Dispatcher:   d,
		DrainTimeout: 30 * time.Millisecond,
		Logger:       testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	<-recv.ready
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not honor the drain timeout")
	}
	close(release)
	d.Drain(time.Second)
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateStoreReady:    "store_ready",
		StateServing:       "serving",
		StateShuttingDown:  "shutting_down",
		StateStopped:       "stopped",
		State(42):          "state(42)",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(st), got, want)
		}
	}
}
