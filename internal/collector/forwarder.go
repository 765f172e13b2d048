package collector

import (
	"context"

	"hyperflow/internal/models"
)

// Forwarder receives normalized batches for delivery to both sinks. The
// sink fan-out implements it; tests substitute fakes.
type Forwarder interface {
	Trades(ctx context.Context, trades []models.Trade) error
	Quotes(ctx context.Context, quotes []models.Quote) error
	Funding(ctx context.Context, updates []models.FundingUpdate) error
	OpenInterest(ctx context.Context, snapshots []models.OpenInterestSnapshot) error
	Liquidations(ctx context.Context, events []models.LiquidationEvent) error
	Instruments(ctx context.Context, symbols []models.InstrumentMeta) error
}
