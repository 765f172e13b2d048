package sink

import (
	"context"
	"sync"
	"testing"
	"time"

	"hyperflow/internal/bus"
	"hyperflow/internal/models"
	"hyperflow/internal/pipeerr"
	"hyperflow/internal/reconnect"
)

type fakeProducer struct {
	mu       sync.Mutex
	batches  map[string][][]bus.Message
	failures map[string]int
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		batches:  make(map[string][][]bus.Message),
		failures: make(map[string]int),
	}
}

func (p *fakeProducer) failNext(topic string, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[topic] = times
}

func (p *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []bus.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures[topic] > 0 {
		p.failures[topic]--
		return pipeerr.Newf(pipeerr.KindPublish, "broker unavailable")
	}
	p.batches[topic] = append(p.batches[topic], msgs)
	return nil
}

func (p *fakeProducer) published(topic string) [][]bus.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batches[topic]
}

type fakeStore struct {
	mu        sync.Mutex
	trades    [][]models.Trade
	quotes    [][]models.Quote
	failWrite int
}

func (s *fakeStore) WriteTrades(_ context.Context, trades []models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite > 0 {
		s.failWrite--
		return pipeerr.Newf(pipeerr.KindStoreWrite, "store unavailable")
	}
	s.trades = append(s.trades, trades)
	return nil
}

func (s *fakeStore) WriteQuotes(_ context.Context, quotes []models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes = append(s.quotes, quotes)
	return nil
}

func (s *fakeStore) WriteFunding(context.Context, []models.FundingUpdate) error { return nil }
func (s *fakeStore) WriteOpenInterest(context.Context, []models.OpenInterestSnapshot) error {
	return nil
}
func (s *fakeStore) WriteLiquidations(context.Context, []models.LiquidationEvent) error { return nil }
func (s *fakeStore) WriteSymbols(context.Context, []models.InstrumentMeta) error        { return nil }

func (s *fakeStore) writtenTrades() [][]models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trades
}

func fastOptions(retries int, deadLetter bool) Options {
	return Options{
		MaxRetries: retries,
		DeadLetter: deadLetter,
		NewBackoff: func() reconnect.Policy { return reconnect.NewFixed(time.Millisecond) },
	}
}

func sampleTrades() []models.Trade {
	return []models.Trade{{
		Symbol:    "BTC",
		Side:      models.SideBuy,
		Price:     42000.5,
		Size:      0.01,
		Timestamp: time.UnixMilli(1700000000000).UTC(),
		Hash:      "0xabc",
	}}
}

func TestTradesReachBothSinks(t *testing.T) {
	producer := newFakeProducer()
	store := &fakeStore{}
	f := NewFanout(producer, store, fastOptions(0, false))

	if err := f.Trades(context.Background(), sampleTrades()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	published := producer.published(bus.TopicTrades)
	if len(published) != 1 || len(published[0]) != 1 {
		t.Fatalf("expected one published batch of one message, got %v", published)
	}
	if published[0][0].Key != "BTC" {
		t.Fatalf("expected partition key BTC, got %q", published[0][0].Key)
	}
	if got := store.writtenTrades(); len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("expected one stored batch of one trade, got %v", got)
	}
}

func TestPublishFailureDoesNotBlockStoreWrite(t *testing.T) {
	producer := newFakeProducer()
	producer.failNext(bus.TopicTrades, 10)
	store := &fakeStore{}
	f := NewFanout(producer, store, fastOptions(1, false))

	err := f.Trades(context.Background(), sampleTrades())
	if err == nil {
		t.Fatal("expected publish failure to surface")
	}
	if got := store.writtenTrades(); len(got) != 1 {
		t.Fatalf("expected store write despite publish failure, got %v", got)
	}
}

func TestPublishRetriesThenSucceeds(t *testing.T) {
	producer := newFakeProducer()
	producer.failNext(bus.TopicTrades, 2)
	store := &fakeStore{}
	f := NewFanout(producer, store, fastOptions(3, false))

	if err := f.Trades(context.Background(), sampleTrades()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published := producer.published(bus.TopicTrades); len(published) != 1 {
		t.Fatalf("expected one published batch after retries, got %v", published)
	}
}

func TestExhaustedPublishIsDeadLettered(t *testing.T) {
	producer := newFakeProducer()
	producer.failNext(bus.TopicTrades, 10)
	store := &fakeStore{}
	f := NewFanout(producer, store, fastOptions(1, true))

	if err := f.Trades(context.Background(), sampleTrades()); err == nil {
		t.Fatal("expected the original failure to surface")
	}

	dl := producer.published(bus.TopicDeadLetter)
	if len(dl) != 1 || len(dl[0]) != 1 {
		t.Fatalf("expected one dead-letter batch, got %v", dl)
	}
	rec, ok := dl[0][0].Value.(bus.DeadLetterRecord)
	if !ok {
		t.Fatalf("expected DeadLetterRecord, got %T", dl[0][0].Value)
	}
	if rec.Topic != bus.TopicTrades || rec.Key != "BTC" {
		t.Fatalf("unexpected dead-letter routing: %+v", rec)
	}
}

func TestStoreFailureIsDeadLettered(t *testing.T) {
	producer := newFakeProducer()
	store := &fakeStore{failWrite: 10}
	f := NewFanout(producer, store, fastOptions(1, true))

	if err := f.Trades(context.Background(), sampleTrades()); err == nil {
		t.Fatal("expected the store failure to surface")
	}
	if dl := producer.published(bus.TopicDeadLetter); len(dl) != 1 {
		t.Fatalf("expected one dead-letter batch, got %v", dl)
	}
	// The bus path succeeded; its batch must still be there.
	if published := producer.published(bus.TopicTrades); len(published) != 1 {
		t.Fatalf("expected bus publish to survive store failure, got %v", published)
	}
}

func TestEmptyBatchesAreNoops(t *testing.T) {
	producer := newFakeProducer()
	store := &fakeStore{}
	f := NewFanout(producer, store, fastOptions(0, false))

	ctx := context.Background()
	if err := f.Trades(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Quotes(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(producer.published(bus.TopicTrades)) != 0 {
		t.Fatal("expected no publishes for empty batch")
	}
}
