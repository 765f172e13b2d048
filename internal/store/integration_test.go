//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"hyperflow/internal/models"
)

// Exercises the full write/read path against a live ClickHouse. Run with:
//
//	CLICKHOUSE_ADDRS=localhost:9000 go test -tags integration ./internal/store
func integrationWriter(t *testing.T) *Writer {
	t.Helper()
	addrs := os.Getenv("CLICKHOUSE_ADDRS")
	if addrs == "" {
		t.Skip("CLICKHOUSE_ADDRS not set")
	}
	database := os.Getenv("CLICKHOUSE_DATABASE")
	if database == "" {
		database = "default"
	}
	w, err := NewWriter(Config{
		Addrs:    strings.Split(addrs, ","),
		Database: database,
		Username: os.Getenv("CLICKHOUSE_USER"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	return w
}

func TestWriteTradesReadBackInTimestampOrder(t *testing.T) {
	w := integrationWriter(t)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	symbol := fmt.Sprintf("ITEST-%d", time.Now().UnixNano())
	base := time.Now().UTC().Truncate(time.Millisecond)

	// Written out of timestamp order on purpose.
	trades := []models.Trade{
		{Symbol: symbol, Side: models.SideBuy, Price: 3, Size: 1, Timestamp: base.Add(2 * time.Second), Hash: "h3"},
		{Symbol: symbol, Side: models.SideSell, Price: 1, Size: 1, Timestamp: base, Hash: "h1"},
		{Symbol: symbol, Side: models.SideBuy, Price: 2, Size: 1, Timestamp: base.Add(time.Second), Hash: "h2"},
	}
	if err := w.WriteTrades(ctx, trades); err != nil {
		t.Fatalf("write trades: %v", err)
	}

	got, err := w.TradesBySymbol(ctx, symbol, base.Add(-time.Second), base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("read trades: %v", err)
	}
	if len(got) != len(trades) {
		t.Fatalf("got %d trades, want %d", len(got), len(trades))
	}
	for i, want := range []string{"h1", "h2", "h3"} {
		if got[i].Hash != want {
			t.Fatalf("row %d hash = %s, want %s (timestamp order violated)", i, got[i].Hash, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("row %d timestamp %v precedes row %d timestamp %v",
				i, got[i].Timestamp, i-1, got[i-1].Timestamp)
		}
	}
	if got[0].Side != models.SideSell || got[0].Price != 1 {
		t.Fatalf("first row not the earliest trade: %+v", got[0])
	}
}

func TestTradesBySymbolRangeIsInclusive(t *testing.T) {
	w := integrationWriter(t)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	symbol := fmt.Sprintf("ITEST-%d", time.Now().UnixNano())
	base := time.Now().UTC().Truncate(time.Millisecond)

	trades := []models.Trade{
		{Symbol: symbol, Side: models.SideBuy, Price: 1, Size: 1, Timestamp: base, Hash: "lo"},
		{Symbol: symbol, Side: models.SideBuy, Price: 2, Size: 1, Timestamp: base.Add(time.Second), Hash: "mid"},
		{Symbol: symbol, Side: models.SideBuy, Price: 3, Size: 1, Timestamp: base.Add(2 * time.Second), Hash: "hi"},
	}
	if err := w.WriteTrades(ctx, trades); err != nil {
		t.Fatalf("write trades: %v", err)
	}

	got, err := w.TradesBySymbol(ctx, symbol, base, base.Add(2*time.Second))
	if err != nil {
		t.Fatalf("read trades: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d trades, want 3 (bounds are inclusive)", len(got))
	}

	got, err = w.TradesBySymbol(ctx, symbol, base.Add(time.Second), base.Add(time.Second))
	if err != nil {
		t.Fatalf("read trades: %v", err)
	}
	if len(got) != 1 || got[0].Hash != "mid" {
		t.Fatalf("point query returned %+v, want the single mid trade", got)
	}
}
