package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"hyperflow/internal/models"
	"hyperflow/internal/pipeerr"
	"hyperflow/logger"
)

// Config carries the store connection parameters.
type Config struct {
	Addrs       []string
	Database    string
	Username    string
	Password    string
	DialTimeout time.Duration
}

// Writer performs batched inserts into the columnar store. One instance is
// shared by every collector; the underlying connection pool tolerates
// concurrent callers.
type Writer struct {
	conn driver.Conn
	log  *logger.Log
}

// NewWriter opens the connection pool. No statement is issued until Connect,
// which the supervisor calls before anything may write.
func NewWriter(cfg Config) (*Writer, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("clickhouse addresses not configured")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addrs,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: dialTimeout,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		Settings: clickhouse.Settings{
			"async_insert":          1,
			"wait_for_async_insert": 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	w := &Writer{conn: conn, log: logger.GetLogger()}
	w.log.WithComponent("store_writer").WithFields(logger.Fields{
		"addrs":    cfg.Addrs,
		"database": cfg.Database,
	}).Debug("store writer initialized")
	return w, nil
}

// Connect pings the store and bootstraps every table. Startup is the only
// place this runs: a failure here is fatal rather than a degraded start.
func (w *Writer) Connect(ctx context.Context) error {
	start := time.Now()
	if err := w.conn.Ping(ctx); err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "ping clickhouse: %v", err)
	}
	for _, s := range schemaDDL {
		if err := w.conn.Exec(ctx, s.ddl); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "ensure table %s: %v", s.table, err)
		}
	}
	logger.LogPerformanceEntry(w.log.WithComponent("store_writer"), "store_writer",
		"bootstrap", time.Since(start), logger.Fields{"tables": len(schemaDDL)})
	return nil
}

// Close releases the connection pool.
func (w *Writer) Close() error {
	w.log.WithComponent("store_writer").Debug("closing store writer")
	return w.conn.Close()
}

// WriteTrades inserts a batch of trades.
func (w *Writer) WriteTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx,
		"INSERT INTO hyperliquid_trades (symbol, side, price, size, timestamp, hash)")
	if err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "prepare %s batch: %v", TableTrades, err)
	}
	for _, t := range trades {
		if err := batch.Append(
			t.Symbol,
			string(t.Side),
			decimal.NewFromFloat(t.Price),
			decimal.NewFromFloat(t.Size),
			t.Timestamp,
			t.Hash,
		); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "append trade: %v", err)
		}
	}
	return w.send(batch, TableTrades, len(trades))
}

// WriteQuotes inserts a batch of quotes.
func (w *Writer) WriteQuotes(ctx context.Context, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx,
		"INSERT INTO hyperliquid_quotes (symbol, bid, ask, bidSize, askSize, timestamp)")
	if err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "prepare %s batch: %v", TableQuotes, err)
	}
	for _, q := range quotes {
		if err := batch.Append(
			q.Symbol,
			decimal.NewFromFloat(q.Bid),
			decimal.NewFromFloat(q.Ask),
			decimal.NewFromFloat(q.BidSize),
			decimal.NewFromFloat(q.AskSize),
			q.Timestamp,
		); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "append quote: %v", err)
		}
	}
	return w.send(batch, TableQuotes, len(quotes))
}

// WriteFunding inserts a batch of funding updates.
func (w *Writer) WriteFunding(ctx context.Context, updates []models.FundingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx,
		"INSERT INTO hyperliquid_funding (symbol, fundingRate, fundingTime)")
	if err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "prepare %s batch: %v", TableFunding, err)
	}
	for _, f := range updates {
		if err := batch.Append(
			f.Symbol,
			decimal.NewFromFloat(f.FundingRate),
			f.FundingTime,
		); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "append funding update: %v", err)
		}
	}
	return w.send(batch, TableFunding, len(updates))
}

// WriteOpenInterest inserts a batch of open-interest snapshots.
func (w *Writer) WriteOpenInterest(ctx context.Context, snapshots []models.OpenInterestSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx,
		"INSERT INTO hyperliquid_open_interest (symbol, openInterest, timestamp)")
	if err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "prepare %s batch: %v", TableOpenInterest, err)
	}
	for _, s := range snapshots {
		if err := batch.Append(
			s.Symbol,
			decimal.NewFromFloat(s.OpenInterest),
			s.Timestamp,
		); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "append open interest: %v", err)
		}
	}
	return w.send(batch, TableOpenInterest, len(snapshots))
}

// WriteLiquidations inserts a batch of liquidation events.
func (w *Writer) WriteLiquidations(ctx context.Context, events []models.LiquidationEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx,
		"INSERT INTO hyperliquid_liquidations (symbol, side, price, size, timestamp, hash)")
	if err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "prepare %s batch: %v", TableLiquidations, err)
	}
	for _, e := range events {
		if err := batch.Append(
			e.Symbol,
			string(e.Side),
			decimal.NewFromFloat(e.Price),
			decimal.NewFromFloat(e.Size),
			e.Timestamp,
			e.Hash,
		); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "append liquidation: %v", err)
		}
	}
	return w.send(batch, TableLiquidations, len(events))
}

// WriteSymbols upserts instrument metadata. Last write wins per symbol via
// the ReplacingMergeTree version column.
func (w *Writer) WriteSymbols(ctx context.Context, symbols []models.InstrumentMeta) error {
	if len(symbols) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx,
		"INSERT INTO hyperliquid_symbols (symbol, baseCurrency, quoteCurrency, maxLeverage, type, updated_at)")
	if err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "prepare %s batch: %v", TableSymbols, err)
	}
	for _, s := range symbols {
		if err := batch.Append(
			s.Symbol,
			s.BaseCurrency,
			s.QuoteCurrency,
			s.MaxLeverage,
			s.Type,
			s.UpdatedAt,
		); err != nil {
			return pipeerr.Newf(pipeerr.KindStoreWrite, "append instrument: %v", err)
		}
	}
	return w.send(batch, TableSymbols, len(symbols))
}

// TradesBySymbol range-queries trades for one symbol inside [from, to],
// ordered by timestamp. Used by verification tooling and tests; consumers
// typically read through their own query layer.
func (w *Writer) TradesBySymbol(ctx context.Context, symbol string, from, to time.Time) ([]models.Trade, error) {
	rows, err := w.conn.Query(ctx, `
		SELECT symbol, side, price, size, timestamp, hash
		FROM hyperliquid_trades
		WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp`, symbol, from, to)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.KindStoreWrite, "query trades for %s: %v", symbol, err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var (
			t           models.Trade
			side        string
			price, size decimal.Decimal
		)
		if err := rows.Scan(&t.Symbol, &side, &price, &size, &t.Timestamp, &t.Hash); err != nil {
			return nil, pipeerr.Newf(pipeerr.KindStoreWrite, "scan trade row: %v", err)
		}
		t.Side = models.Side(side)
		t.Price = price.InexactFloat64()
		t.Size = size.InexactFloat64()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pipeerr.Newf(pipeerr.KindStoreWrite, "iterate trade rows: %v", err)
	}
	return out, nil
}

func (w *Writer) send(batch driver.Batch, table string, records int) error {
	if err := batch.Send(); err != nil {
		return pipeerr.Newf(pipeerr.KindStoreWrite, "send %s batch: %v", table, err)
	}
	logger.IncrementStoreWrite(records)
	w.log.WithComponent("store_writer").WithFields(logger.Fields{
		"table":   table,
		"records": records,
	}).Debug("batch written")
	return nil
}
