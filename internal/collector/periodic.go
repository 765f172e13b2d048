package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hyperflow/internal/models"
	"hyperflow/internal/norm"
	"hyperflow/internal/venue/hyperliquid"
	"hyperflow/logger"
)

// VenueAPI is the request/response surface the periodic tasks poll. The
// hyperliquid REST client implements it.
type VenueAPI interface {
	Meta(ctx context.Context) ([]hyperliquid.RawInstrument, error)
	OpenInterest(ctx context.Context) ([]hyperliquid.RawOpenInterest, error)
	Liquidations(ctx context.Context) ([]hyperliquid.RawTrade, error)
}

// PeriodicConfig carries the per-task cadences.
type PeriodicConfig struct {
	MetaInterval         time.Duration
	OpenInterestInterval time.Duration
	LiquidationInterval  time.Duration
}

// PeriodicCollector runs the independently scheduled polling tasks:
// instrument metadata, open-interest snapshots and the liquidation feed.
// Each task has its own timer; an error aborts only that tick and the next
// one proceeds on schedule.
type PeriodicCollector struct {
	cfg     PeriodicConfig
	api     VenueAPI
	forward Forwarder
	symbols *SymbolSet
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log
}

// NewPeriodicCollector builds the collector with default cadences where the
// config leaves them zero (meta 60s, open interest 30s, liquidations 10s).
func NewPeriodicCollector(cfg PeriodicConfig, api VenueAPI, forward Forwarder, symbols *SymbolSet) *PeriodicCollector {
	if cfg.MetaInterval <= 0 {
		cfg.MetaInterval = 60 * time.Second
	}
	if cfg.OpenInterestInterval <= 0 {
		cfg.OpenInterestInterval = 30 * time.Second
	}
	if cfg.LiquidationInterval <= 0 {
		cfg.LiquidationInterval = 10 * time.Second
	}
	return &PeriodicCollector{
		cfg:     cfg,
		api:     api,
		forward: forward,
		symbols: symbols,
		wg:      &sync.WaitGroup{},
		log:     logger.GetLogger(),
	}
}

// Start registers the timers and performs one immediate metadata refresh so
// the symbol set is populated before the high-frequency streams report.
func (p *PeriodicCollector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("periodic collector already running")
	}
	p.running = true
	p.ctx = ctx
	p.mu.Unlock()

	if err := p.collectMeta(ctx); err != nil {
		p.log.WithComponent("periodic_collector").WithError(err).Warn("initial metadata refresh failed")
	}

	p.runTask("meta", p.cfg.MetaInterval, p.collectMeta)
	p.runTask("open_interest", p.cfg.OpenInterestInterval, p.collectOpenInterest)
	p.runTask("liquidations", p.cfg.LiquidationInterval, p.collectLiquidations)

	p.log.WithComponent("periodic_collector").WithFields(logger.Fields{
		"meta_interval":          p.cfg.MetaInterval.String(),
		"open_interest_interval": p.cfg.OpenInterestInterval.String(),
		"liquidation_interval":   p.cfg.LiquidationInterval.String(),
	}).Info("periodic collector started")
	return nil
}

// Stop waits for the task goroutines to exit. The context passed to Start
// must be cancelled first.
func (p *PeriodicCollector) Stop() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.log.WithComponent("periodic_collector").Info("periodic collector stopped")
}

// runTask spawns one timer loop. A failed tick logs and waits for the next
// one; no retry, no backoff, and no effect on the other tasks.
func (p *PeriodicCollector) runTask(name string, interval time.Duration, task func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:
				if err := task(p.ctx); err != nil {
					p.log.WithComponent("periodic_collector").WithError(err).WithFields(logger.Fields{
						"task": name,
					}).Warn("collection tick failed")
				}
			}
		}
	}()
}

// collectMeta refreshes instrument metadata and the shared symbol set.
func (p *PeriodicCollector) collectMeta(ctx context.Context) error {
	raws, err := p.api.Meta(ctx)
	if err != nil {
		return err
	}

	refreshedAt := time.Now().UTC()
	log := p.log.WithComponent("periodic_collector")

	instruments := make([]models.InstrumentMeta, 0, len(raws))
	names := make([]string, 0, len(raws))
	for _, raw := range raws {
		meta, err := norm.Instrument(raw, refreshedAt)
		if err != nil {
			log.WithError(err).Warn("dropping malformed instrument")
			continue
		}
		instruments = append(instruments, meta)
		names = append(names, meta.Symbol)
	}

	if len(names) > 0 {
		p.symbols.Replace(names)
	}
	return p.forward.Instruments(ctx, instruments)
}

// collectOpenInterest polls the open-interest snapshot list.
func (p *PeriodicCollector) collectOpenInterest(ctx context.Context) error {
	raws, err := p.api.OpenInterest(ctx)
	if err != nil {
		return err
	}

	log := p.log.WithComponent("periodic_collector")
	snapshots := make([]models.OpenInterestSnapshot, 0, len(raws))
	for _, raw := range raws {
		snapshot, err := norm.OpenInterest(raw)
		if err != nil {
			log.WithError(err).Warn("dropping malformed open-interest entry")
			continue
		}
		if !p.symbols.Known(snapshot.Symbol) {
			log.WithFields(logger.Fields{"symbol": snapshot.Symbol}).Warn("open interest for unknown symbol")
		}
		snapshots = append(snapshots, snapshot)
	}
	return p.forward.OpenInterest(ctx, snapshots)
}

// collectLiquidations polls the liquidation feed.
func (p *PeriodicCollector) collectLiquidations(ctx context.Context) error {
	raws, err := p.api.Liquidations(ctx)
	if err != nil {
		return err
	}

	log := p.log.WithComponent("periodic_collector")
	events := make([]models.LiquidationEvent, 0, len(raws))
	for _, raw := range raws {
		event, err := norm.Liquidation(raw)
		if err != nil {
			log.WithError(err).Warn("dropping malformed liquidation")
			continue
		}
		if !p.symbols.Known(event.Symbol) {
			log.WithFields(logger.Fields{"symbol": event.Symbol}).Warn("liquidation for unknown symbol")
		}
		events = append(events, event)
	}
	return p.forward.Liquidations(ctx, events)
}
