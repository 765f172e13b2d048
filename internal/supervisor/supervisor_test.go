package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// callLog records lifecycle events in the order they happen.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

type fakeConnector struct {
	name       string
	log        *callLog
	connectErr error
}

func (c *fakeConnector) Connect(context.Context) error {
	c.log.record(c.name + ".connect")
	return c.connectErr
}

func (c *fakeConnector) Close() error {
	c.log.record(c.name + ".close")
	return nil
}

type fakeRunner struct {
	name     string
	log      *callLog
	startErr error
}

func (r *fakeRunner) Start(context.Context) error {
	r.log.record(r.name + ".start")
	return r.startErr
}

func (r *fakeRunner) Stop() {
	r.log.record(r.name + ".stop")
}

func TestStartupOrderSinksBeforeSources(t *testing.T) {
	log := &callLog{}
	s := New(
		&fakeConnector{name: "store", log: log},
		&fakeConnector{name: "producer", log: log},
		&fakeRunner{name: "periodic", log: log},
		&fakeRunner{name: "stream", log: log},
	)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop(time.Second)

	want := []string{
		"store.connect",
		"producer.connect",
		"periodic.start",
		"stream.start",
		"stream.stop",
		"periodic.stop",
		"producer.close",
		"store.close",
	}
	got := log.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %d lifecycle events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s (full order %v)", i, want[i], got[i], got)
		}
	}
}

func TestStoreConnectFailureAbortsBoot(t *testing.T) {
	log := &callLog{}
	s := New(
		&fakeConnector{name: "store", log: log, connectErr: errors.New("refused")},
		&fakeConnector{name: "producer", log: log},
		&fakeRunner{name: "periodic", log: log},
		&fakeRunner{name: "stream", log: log},
	)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail when the store cannot connect")
	}

	for _, event := range log.snapshot() {
		switch event {
		case "producer.connect", "periodic.start", "stream.start":
			t.Fatalf("stage %s must not run after a store connect failure", event)
		}
	}
}

func TestProducerConnectFailureClosesStore(t *testing.T) {
	log := &callLog{}
	s := New(
		&fakeConnector{name: "store", log: log},
		&fakeConnector{name: "producer", log: log, connectErr: errors.New("no brokers")},
		&fakeRunner{name: "periodic", log: log},
		&fakeRunner{name: "stream", log: log},
	)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail when the producer cannot connect")
	}

	got := log.snapshot()
	want := []string{"store.connect", "producer.connect", "store.close"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStreamStartFailureUnwindsEverything(t *testing.T) {
	log := &callLog{}
	s := New(
		&fakeConnector{name: "store", log: log},
		&fakeConnector{name: "producer", log: log},
		&fakeRunner{name: "periodic", log: log},
		&fakeRunner{name: "stream", log: log, startErr: errors.New("bad url")},
	)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail when the stream client cannot start")
	}

	got := log.snapshot()
	want := []string{
		"store.connect",
		"producer.connect",
		"periodic.start",
		"stream.start",
		"periodic.stop",
		"producer.close",
		"store.close",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
