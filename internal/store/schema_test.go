package store

import (
	"strings"
	"testing"
)

func TestTablesCoverEveryEntity(t *testing.T) {
	tables := Tables()
	if len(tables) != 6 {
		t.Fatalf("expected 6 tables, got %d", len(tables))
	}
	want := map[string]bool{
		TableTrades:       false,
		TableQuotes:       false,
		TableFunding:      false,
		TableOpenInterest: false,
		TableLiquidations: false,
		TableSymbols:      false,
	}
	for _, name := range tables {
		if _, ok := want[name]; !ok {
			t.Fatalf("unexpected table %q", name)
		}
		want[name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing table %q", name)
		}
	}
}

func TestTimeSeriesTablesArePartitionedAndOrdered(t *testing.T) {
	for _, s := range schemaDDL {
		if s.table == TableSymbols {
			continue
		}
		if !strings.Contains(s.ddl, "CREATE TABLE IF NOT EXISTS") {
			t.Fatalf("table %s: create statement is not idempotent", s.table)
		}
		if !strings.Contains(s.ddl, "PARTITION BY date") {
			t.Fatalf("table %s: missing date partitioning", s.table)
		}
		if !strings.Contains(s.ddl, "ORDER BY (symbol,") {
			t.Fatalf("table %s: missing (symbol, time) ordering", s.table)
		}
	}
}

func TestSymbolsTableIsLastWriteWins(t *testing.T) {
	for _, s := range schemaDDL {
		if s.table != TableSymbols {
			continue
		}
		if !strings.Contains(s.ddl, "ReplacingMergeTree(updated_at)") {
			t.Fatal("symbols table must replace by updated_at")
		}
		if strings.Contains(s.ddl, "PARTITION BY") {
			t.Fatal("symbols table models current state, not a time series")
		}
		return
	}
	t.Fatal("symbols table not found")
}
