package models

import "time"

// Trade is a single executed trade as distributed to both sinks. The
// venue-supplied hash is the natural key downstream consumers dedup on.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
}

// Quote is a top-of-book bid/ask observation for one symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidSize   float64   `json:"bidSize"`
	AskSize   float64   `json:"askSize"`
	Timestamp time.Time `json:"timestamp"`
}
