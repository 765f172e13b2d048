package collector

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hyperflow/internal/models"
	"hyperflow/internal/venue/hyperliquid"
)

type captureForwarder struct {
	mu           sync.Mutex
	trades       [][]models.Trade
	quotes       [][]models.Quote
	funding      [][]models.FundingUpdate
	openInterest [][]models.OpenInterestSnapshot
	liquidations [][]models.LiquidationEvent
	instruments  [][]models.InstrumentMeta
}

func (f *captureForwarder) Trades(_ context.Context, trades []models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = append(f.trades, trades)
	return nil
}

func (f *captureForwarder) Quotes(_ context.Context, quotes []models.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, quotes)
	return nil
}

func (f *captureForwarder) Funding(_ context.Context, updates []models.FundingUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funding = append(f.funding, updates)
	return nil
}

func (f *captureForwarder) OpenInterest(_ context.Context, snapshots []models.OpenInterestSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openInterest = append(f.openInterest, snapshots)
	return nil
}

func (f *captureForwarder) Liquidations(_ context.Context, events []models.LiquidationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liquidations = append(f.liquidations, events)
	return nil
}

func (f *captureForwarder) Instruments(_ context.Context, symbols []models.InstrumentMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instruments = append(f.instruments, symbols)
	return nil
}

func (f *captureForwarder) openInterestBatches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.openInterest)
}

func (f *captureForwarder) liquidationBatches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.liquidations)
}

func (f *captureForwarder) instrumentBatches() [][]models.InstrumentMeta {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instruments
}

type fakeVenue struct {
	mu               sync.Mutex
	meta             []hyperliquid.RawInstrument
	openInterest     []hyperliquid.RawOpenInterest
	liquidations     []hyperliquid.RawTrade
	failLiquidations bool
}

func (v *fakeVenue) Meta(context.Context) ([]hyperliquid.RawInstrument, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.meta, nil
}

func (v *fakeVenue) OpenInterest(context.Context) ([]hyperliquid.RawOpenInterest, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.openInterest, nil
}

func (v *fakeVenue) Liquidations(context.Context) ([]hyperliquid.RawTrade, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failLiquidations {
		return nil, fmt.Errorf("venue unavailable")
	}
	return v.liquidations, nil
}

func TestMetaRefreshUpdatesSymbolSet(t *testing.T) {
	venue := &fakeVenue{
		meta: []hyperliquid.RawInstrument{
			{Name: "BTC", BaseCurrency: "BTC", QuoteCurrency: "USD", MaxLeverage: 50},
			{Name: "ETH", BaseCurrency: "ETH", QuoteCurrency: "USD", MaxLeverage: 50},
			{}, // malformed: dropped, not fatal
		},
	}
	forward := &captureForwarder{}
	symbols := NewSymbolSet()
	p := NewPeriodicCollector(PeriodicConfig{
		MetaInterval:         time.Hour,
		OpenInterestInterval: time.Hour,
		LiquidationInterval:  time.Hour,
	}, venue, forward, symbols)

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
	p.Stop()

	if symbols.Len() != 2 {
		t.Fatalf("expected 2 known symbols, got %d", symbols.Len())
	}
	batches := forward.instrumentBatches()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected one instrument batch of 2, got %v", batches)
	}
	if batches[0][0].Type != "perpetual" {
		t.Fatalf("expected default instrument type, got %q", batches[0][0].Type)
	}
}

func TestLiquidationFailureDoesNotAffectOpenInterest(t *testing.T) {
	venue := &fakeVenue{
		openInterest:     []hyperliquid.RawOpenInterest{{Coin: "BTC", OpenInterest: "100", Time: 1700000000000}},
		failLiquidations: true,
	}
	forward := &captureForwarder{}
	p := NewPeriodicCollector(PeriodicConfig{
		MetaInterval:         time.Hour,
		OpenInterestInterval: 20 * time.Millisecond,
		LiquidationInterval:  5 * time.Millisecond,
	}, venue, forward, NewSymbolSet())

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for forward.openInterestBatches() < 3 {
		select {
		case <-deadline:
			t.Fatal("open-interest ticks did not keep their schedule")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	p.Stop()

	if forward.liquidationBatches() != 0 {
		t.Fatalf("expected no liquidation batches while the poll fails, got %d", forward.liquidationBatches())
	}
}

func TestPeriodicCollectorRejectsSecondStart(t *testing.T) {
	p := NewPeriodicCollector(PeriodicConfig{
		MetaInterval:         time.Hour,
		OpenInterestInterval: time.Hour,
		LiquidationInterval:  time.Hour,
	}, &fakeVenue{}, &captureForwarder{}, NewSymbolSet())

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error on second start")
	}
	cancel()
	p.Stop()
}
