// Package norm maps raw venue payloads to canonical records. Every function
// is pure: no I/O, no mutable state, deterministic for well-formed input. A
// malformed input yields a parse error and the caller decides drop versus
// propagate.
package norm

import (
	"math"
	"strconv"
	"time"

	"hyperflow/internal/models"
	"hyperflow/internal/pipeerr"
	"hyperflow/internal/venue/hyperliquid"
)

// instrumentTypeDefault is applied when the venue omits the instrument type.
const instrumentTypeDefault = "perpetual"

// Trade converts a raw trade element. Side must be one of the two venue
// codes, price and size must parse to non-negative numbers.
func Trade(raw hyperliquid.RawTrade) (models.Trade, error) {
	side, err := side(raw.Side)
	if err != nil {
		return models.Trade{}, err
	}
	price, err := amount("px", raw.Px)
	if err != nil {
		return models.Trade{}, err
	}
	size, err := amount("sz", raw.Sz)
	if err != nil {
		return models.Trade{}, err
	}
	if raw.Coin == "" {
		return models.Trade{}, pipeerr.Newf(pipeerr.KindParse, "trade missing coin")
	}
	return models.Trade{
		Symbol:    raw.Coin,
		Side:      side,
		Price:     price,
		Size:      size,
		Timestamp: epochMillis(raw.Time),
		Hash:      raw.Hash,
	}, nil
}

// Quote converts a raw top-of-book element.
func Quote(raw hyperliquid.RawQuote) (models.Quote, error) {
	if raw.Coin == "" {
		return models.Quote{}, pipeerr.Newf(pipeerr.KindParse, "quote missing coin")
	}
	bid, err := amount("bidPx", raw.BidPx)
	if err != nil {
		return models.Quote{}, err
	}
	ask, err := amount("askPx", raw.AskPx)
	if err != nil {
		return models.Quote{}, err
	}
	bidSize, err := amount("bidSz", raw.BidSz)
	if err != nil {
		return models.Quote{}, err
	}
	askSize, err := amount("askSz", raw.AskSz)
	if err != nil {
		return models.Quote{}, err
	}
	return models.Quote{
		Symbol:    raw.Coin,
		Bid:       bid,
		Ask:       ask,
		BidSize:   bidSize,
		AskSize:   askSize,
		Timestamp: epochMillis(raw.Time),
	}, nil
}

// Funding converts a raw funding element. The rate may legitimately be
// negative, so only numeric validity is enforced.
func Funding(raw hyperliquid.RawFunding) (models.FundingUpdate, error) {
	if raw.Coin == "" {
		return models.FundingUpdate{}, pipeerr.Newf(pipeerr.KindParse, "funding missing coin")
	}
	rate, err := number("fundingRate", raw.FundingRate)
	if err != nil {
		return models.FundingUpdate{}, err
	}
	return models.FundingUpdate{
		Symbol:      raw.Coin,
		FundingRate: rate,
		FundingTime: epochMillis(raw.FundingTime),
	}, nil
}

// OpenInterest converts a raw open-interest element.
func OpenInterest(raw hyperliquid.RawOpenInterest) (models.OpenInterestSnapshot, error) {
	if raw.Coin == "" {
		return models.OpenInterestSnapshot{}, pipeerr.Newf(pipeerr.KindParse, "open interest missing coin")
	}
	oi, err := amount("openInterest", raw.OpenInterest)
	if err != nil {
		return models.OpenInterestSnapshot{}, err
	}
	return models.OpenInterestSnapshot{
		Symbol:       raw.Coin,
		OpenInterest: oi,
		Timestamp:    epochMillis(raw.Time),
	}, nil
}

// Liquidation converts a raw liquidation element. The wire shape matches a
// trade frame.
func Liquidation(raw hyperliquid.RawTrade) (models.LiquidationEvent, error) {
	trade, err := Trade(raw)
	if err != nil {
		return models.LiquidationEvent{}, err
	}
	return models.LiquidationEvent{
		Symbol:    trade.Symbol,
		Side:      trade.Side,
		Price:     trade.Price,
		Size:      trade.Size,
		Timestamp: trade.Timestamp,
		Hash:      trade.Hash,
	}, nil
}

// Instrument converts a raw instrument description. The refresh time is an
// argument so the function stays deterministic.
func Instrument(raw hyperliquid.RawInstrument, refreshedAt time.Time) (models.InstrumentMeta, error) {
	if raw.Name == "" {
		return models.InstrumentMeta{}, pipeerr.Newf(pipeerr.KindParse, "instrument missing name")
	}
	typ := raw.Type
	if typ == "" {
		typ = instrumentTypeDefault
	}
	return models.InstrumentMeta{
		Symbol:        raw.Name,
		BaseCurrency:  raw.BaseCurrency,
		QuoteCurrency: raw.QuoteCurrency,
		MaxLeverage:   raw.MaxLeverage,
		Type:          typ,
		UpdatedAt:     refreshedAt.UTC(),
	}, nil
}

func side(code string) (models.Side, error) {
	switch code {
	case "B":
		return models.SideBuy, nil
	case "S":
		return models.SideSell, nil
	default:
		return "", pipeerr.Newf(pipeerr.KindParse, "unknown side code %q", code)
	}
}

// number parses a string-encoded numeric that must be finite.
func number(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, pipeerr.Newf(pipeerr.KindParse, "parse %s %q: %v", field, value, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, pipeerr.Newf(pipeerr.KindParse, "%s %q is not finite", field, value)
	}
	return f, nil
}

// amount is a number that must also be non-negative.
func amount(field, value string) (float64, error) {
	f, err := number(field, value)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, pipeerr.Newf(pipeerr.KindParse, "%s %q is negative", field, value)
	}
	return f, nil
}

func epochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
