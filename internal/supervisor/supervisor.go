// Package supervisor owns the pipeline lifecycle: backing services are
// brought up before anything that feeds them and torn down in the reverse
// order, so no stage ever dispatches into a sink that is not ready.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"hyperflow/logger"
)

// Connector is a backing service with an explicit connect phase, such as
// the analytical store or the event bus producer.
type Connector interface {
	Connect(ctx context.Context) error
	Close() error
}

// Runner is a data-producing stage: the periodic collector or the
// streaming feed client.
type Runner interface {
	Start(ctx context.Context) error
	Stop()
}

// Supervisor starts the pipeline stages in dependency order. Store first,
// since its connect phase bootstraps the schema, then the producer, then
// the collectors, and the streaming client last.
type Supervisor struct {
	store    Connector
	producer Connector
	periodic Runner
	stream   Runner

	cancel context.CancelFunc
	log    *logger.Log
}

// New wires the supervisor over the four pipeline stages.
func New(store, producer Connector, periodic, stream Runner) *Supervisor {
	return &Supervisor{
		store:    store,
		producer: producer,
		periodic: periodic,
		stream:   stream,
		log:      logger.GetLogger(),
	}
}

// Start brings the pipeline up. A failure in either backing service aborts
// the boot and tears down whatever already started; nothing collects or
// streams until both sinks have connected.
func (s *Supervisor) Start(ctx context.Context) error {
	log := s.log.WithComponent("supervisor")
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	log.Info("connecting analytical store")
	if err := s.store.Connect(runCtx); err != nil {
		cancel()
		return fmt.Errorf("connect store: %w", err)
	}

	log.Info("connecting event bus producer")
	if err := s.producer.Connect(runCtx); err != nil {
		cancel()
		s.store.Close()
		return fmt.Errorf("connect producer: %w", err)
	}

	log.Info("starting periodic collector")
	if err := s.periodic.Start(runCtx); err != nil {
		cancel()
		s.producer.Close()
		s.store.Close()
		return fmt.Errorf("start periodic collector: %w", err)
	}

	log.Info("starting streaming feed client")
	if err := s.stream.Start(runCtx); err != nil {
		cancel()
		s.periodic.Stop()
		s.producer.Close()
		s.store.Close()
		return fmt.Errorf("start stream client: %w", err)
	}

	log.Info("pipeline running")
	return nil
}

// Stop tears the pipeline down in reverse start order: sources first so no
// new records arrive, then the sinks. In-flight dispatches get to drain
// before the producer and store close.
func (s *Supervisor) Stop(timeout time.Duration) {
	log := s.log.WithComponent("supervisor")
	log.Info("stopping pipeline")

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.stream.Stop()
		s.periodic.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Warn("sources did not stop within the shutdown timeout")
	}

	if err := s.producer.Close(); err != nil {
		log.WithError(err).Warn("failed to close event bus producer")
	}
	if err := s.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close analytical store")
	}
	log.Info("pipeline stopped")
}
