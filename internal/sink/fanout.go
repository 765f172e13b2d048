// Package sink fans normalized records out to the event bus and the
// analytical store. The two sinks are independent: no transaction spans
// them, a failure on one never blocks the other, and delivery is
// at-least-once per sink.
package sink

import (
	"context"
	"errors"
	"time"

	"hyperflow/internal/bus"
	"hyperflow/internal/models"
	"hyperflow/internal/pipeerr"
	"hyperflow/internal/reconnect"
	"hyperflow/logger"
)

// BusProducer is the slice of the bus producer the fan-out uses.
type BusProducer interface {
	PublishBatch(ctx context.Context, topic string, msgs []bus.Message) error
}

// StoreWriter is the slice of the store writer the fan-out uses.
type StoreWriter interface {
	WriteTrades(ctx context.Context, trades []models.Trade) error
	WriteQuotes(ctx context.Context, quotes []models.Quote) error
	WriteFunding(ctx context.Context, updates []models.FundingUpdate) error
	WriteOpenInterest(ctx context.Context, snapshots []models.OpenInterestSnapshot) error
	WriteLiquidations(ctx context.Context, events []models.LiquidationEvent) error
	WriteSymbols(ctx context.Context, symbols []models.InstrumentMeta) error
}

// Options tune the failure policy.
type Options struct {
	// MaxRetries bounds re-attempts per sink call after the first failure.
	MaxRetries int
	// NewBackoff builds the per-call backoff between attempts.
	NewBackoff func() reconnect.Policy
	// DeadLetter enables routing exhausted failures to the dead-letter
	// topic before dropping them.
	DeadLetter bool
}

// Fanout forwards canonical batches to both sinks concurrently and applies
// the per-kind failure policy: parse errors never get here, publish and
// store-write errors are retried with backoff, then dead-lettered, then
// dropped with a log line. Safe for concurrent callers.
type Fanout struct {
	producer BusProducer
	store    StoreWriter
	opts     Options
	log      *logger.Log
}

// NewFanout wires the two sinks together.
func NewFanout(producer BusProducer, store StoreWriter, opts Options) *Fanout {
	if opts.NewBackoff == nil {
		opts.NewBackoff = func() reconnect.Policy {
			return reconnect.NewExponential(250*time.Millisecond, 5*time.Second)
		}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Fanout{
		producer: producer,
		store:    store,
		opts:     opts,
		log:      logger.GetLogger(),
	}
}

// Trades forwards a trade batch to both sinks.
func (f *Fanout) Trades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]bus.Message, 0, len(trades))
	for _, t := range trades {
		msgs = append(msgs, bus.Message{Key: t.Symbol, Value: t, Time: t.Timestamp})
	}
	return f.forward(ctx, bus.TopicTrades, msgs, func(ctx context.Context) error {
		return f.store.WriteTrades(ctx, trades)
	})
}

// Quotes forwards a quote batch to both sinks.
func (f *Fanout) Quotes(ctx context.Context, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	msgs := make([]bus.Message, 0, len(quotes))
	for _, q := range quotes {
		msgs = append(msgs, bus.Message{Key: q.Symbol, Value: q, Time: q.Timestamp})
	}
	return f.forward(ctx, bus.TopicQuotes, msgs, func(ctx context.Context) error {
		return f.store.WriteQuotes(ctx, quotes)
	})
}

// Funding forwards a funding batch to both sinks.
func (f *Fanout) Funding(ctx context.Context, updates []models.FundingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]bus.Message, 0, len(updates))
	for _, u := range updates {
		msgs = append(msgs, bus.Message{Key: u.Symbol, Value: u, Time: u.FundingTime})
	}
	return f.forward(ctx, bus.TopicFunding, msgs, func(ctx context.Context) error {
		return f.store.WriteFunding(ctx, updates)
	})
}

// OpenInterest forwards an open-interest batch to both sinks.
func (f *Fanout) OpenInterest(ctx context.Context, snapshots []models.OpenInterestSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	msgs := make([]bus.Message, 0, len(snapshots))
	for _, s := range snapshots {
		msgs = append(msgs, bus.Message{Key: s.Symbol, Value: s, Time: s.Timestamp})
	}
	return f.forward(ctx, bus.TopicOpenInterest, msgs, func(ctx context.Context) error {
		return f.store.WriteOpenInterest(ctx, snapshots)
	})
}

// Liquidations forwards a liquidation batch to both sinks.
func (f *Fanout) Liquidations(ctx context.Context, events []models.LiquidationEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]bus.Message, 0, len(events))
	for _, e := range events {
		msgs = append(msgs, bus.Message{Key: e.Symbol, Value: e, Time: e.Timestamp})
	}
	return f.forward(ctx, bus.TopicLiquidations, msgs, func(ctx context.Context) error {
		return f.store.WriteLiquidations(ctx, events)
	})
}

// Instruments forwards refreshed instrument metadata to both sinks.
func (f *Fanout) Instruments(ctx context.Context, symbols []models.InstrumentMeta) error {
	if len(symbols) == 0 {
		return nil
	}
	msgs := make([]bus.Message, 0, len(symbols))
	for _, s := range symbols {
		msgs = append(msgs, bus.Message{Key: s.Symbol, Value: s, Time: s.UpdatedAt})
	}
	return f.forward(ctx, bus.TopicSymbols, msgs, func(ctx context.Context) error {
		return f.store.WriteSymbols(ctx, symbols)
	})
}

// forward runs the publish and store paths concurrently and joins their
// outcomes. The error return reports what was ultimately lost; callers log
// it and keep processing subsequent batches.
func (f *Fanout) forward(ctx context.Context, topic string, msgs []bus.Message, write func(context.Context) error) error {
	publishDone := make(chan error, 1)
	go func() {
		err := f.withRetry(ctx, "bus", topic, func(ctx context.Context) error {
			return f.producer.PublishBatch(ctx, topic, msgs)
		})
		if err != nil {
			err = f.deadLetter(ctx, topic, msgs, err)
		}
		publishDone <- err
	}()

	writeErr := f.withRetry(ctx, "store", topic, write)
	if writeErr != nil {
		writeErr = f.deadLetter(ctx, topic, msgs, writeErr)
	}
	publishErr := <-publishDone

	return errors.Join(publishErr, writeErr)
}

// withRetry applies the bounded retry-with-backoff policy to one sink call.
func (f *Fanout) withRetry(ctx context.Context, sinkName, topic string, op func(context.Context) error) error {
	policy := f.opts.NewBackoff()
	var err error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.Next()):
			}
		}
		if err = op(ctx); err == nil {
			return nil
		}
		if pipeerr.Is(err, pipeerr.KindParse) {
			// Parse failures are deterministic; retrying cannot help.
			return err
		}
		f.log.WithComponent("sink_fanout").WithError(err).WithFields(logger.Fields{
			"sink":    sinkName,
			"topic":   topic,
			"attempt": attempt + 1,
		}).Warn("sink call failed")
	}
	return err
}

// deadLetter routes an exhausted failure to the dead-letter topic. The
// records are dropped either way; dead-lettering preserves them for
// inspection when enabled and the broker is still reachable.
func (f *Fanout) deadLetter(ctx context.Context, topic string, msgs []bus.Message, cause error) error {
	if !f.opts.DeadLetter {
		f.log.WithComponent("sink_fanout").WithError(cause).WithFields(logger.Fields{
			"topic":   topic,
			"records": len(msgs),
		}).Error("dropping batch after exhausted retries")
		return cause
	}

	dlMsgs := make([]bus.Message, 0, len(msgs))
	for _, m := range msgs {
		rec := bus.NewDeadLetterRecord(topic, m.Key, m.Value, cause.Error())
		dlMsgs = append(dlMsgs, bus.Message{Key: m.Key, Value: rec, Time: rec.FailedAt})
	}
	if err := f.producer.PublishBatch(ctx, bus.TopicDeadLetter, dlMsgs); err != nil {
		f.log.WithComponent("sink_fanout").WithError(err).WithFields(logger.Fields{
			"topic":   topic,
			"records": len(msgs),
		}).Error("dead-letter publish failed, dropping batch")
		return errors.Join(cause, err)
	}
	logger.IncrementDeadLetter()
	f.log.WithComponent("sink_fanout").LogMetric("sink_fanout", "DeadLetteredRecords",
		len(msgs), "counter", logger.Fields{"topic": topic})
	f.log.WithComponent("sink_fanout").WithFields(logger.Fields{
		"topic":   topic,
		"records": len(msgs),
	}).Warn("batch routed to dead-letter topic")
	return cause
}
