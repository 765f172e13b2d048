package store

// Table names, one per entity class.
const (
	TableTrades       = "hyperliquid_trades"
	TableQuotes       = "hyperliquid_quotes"
	TableFunding      = "hyperliquid_funding"
	TableOpenInterest = "hyperliquid_open_interest"
	TableLiquidations = "hyperliquid_liquidations"
	TableSymbols      = "hyperliquid_symbols"
)

// schemaDDL holds the idempotent create statements issued at connect time.
// Time-series tables partition by the date derived from the record timestamp
// and order by (symbol, timestamp) so range scans by symbol and window stay
// cheap. The symbols table models current state, not a time series: a
// ReplacingMergeTree keyed by symbol keeps the latest row per key.
var schemaDDL = []struct {
	table string
	ddl   string
}{
	{TableTrades, `
		CREATE TABLE IF NOT EXISTS hyperliquid_trades (
			symbol String,
			side Enum('buy' = 1, 'sell' = 2),
			price Decimal(20, 8),
			size Decimal(20, 8),
			timestamp DateTime64(3),
			hash String,
			date Date MATERIALIZED toDate(timestamp)
		) ENGINE = MergeTree()
		PARTITION BY date
		ORDER BY (symbol, timestamp)
		SETTINGS index_granularity = 8192`},
	{TableQuotes, `
		CREATE TABLE IF NOT EXISTS hyperliquid_quotes (
			symbol String,
			bid Decimal(20, 8),
			ask Decimal(20, 8),
			bidSize Decimal(20, 8),
			askSize Decimal(20, 8),
			timestamp DateTime64(3),
			date Date MATERIALIZED toDate(timestamp)
		) ENGINE = MergeTree()
		PARTITION BY date
		ORDER BY (symbol, timestamp)
		SETTINGS index_granularity = 8192`},
	{TableFunding, `
		CREATE TABLE IF NOT EXISTS hyperliquid_funding (
			symbol String,
			fundingRate Decimal(10, 8),
			fundingTime DateTime64(3),
			date Date MATERIALIZED toDate(fundingTime)
		) ENGINE = MergeTree()
		PARTITION BY date
		ORDER BY (symbol, fundingTime)
		SETTINGS index_granularity = 8192`},
	{TableOpenInterest, `
		CREATE TABLE IF NOT EXISTS hyperliquid_open_interest (
			symbol String,
			openInterest Decimal(20, 8),
			timestamp DateTime64(3),
			date Date MATERIALIZED toDate(timestamp)
		) ENGINE = MergeTree()
		PARTITION BY date
		ORDER BY (symbol, timestamp)
		SETTINGS index_granularity = 8192`},
	{TableLiquidations, `
		CREATE TABLE IF NOT EXISTS hyperliquid_liquidations (
			symbol String,
			side Enum('buy' = 1, 'sell' = 2),
			price Decimal(20, 8),
			size Decimal(20, 8),
			timestamp DateTime64(3),
			hash String,
			date Date MATERIALIZED toDate(timestamp)
		) ENGINE = MergeTree()
		PARTITION BY date
		ORDER BY (symbol, timestamp)
		SETTINGS index_granularity = 8192`},
	{TableSymbols, `
		CREATE TABLE IF NOT EXISTS hyperliquid_symbols (
			symbol String,
			baseCurrency String,
			quoteCurrency String,
			maxLeverage UInt32,
			type String,
			updated_at DateTime64(3) DEFAULT now64()
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY symbol
		SETTINGS index_granularity = 8192`},
}

// Tables lists every table the writer bootstraps, in creation order.
func Tables() []string {
	names := make([]string, 0, len(schemaDDL))
	for _, s := range schemaDDL {
		names = append(names, s.table)
	}
	return names
}
