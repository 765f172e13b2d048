package models

import "time"

// FundingUpdate is a perpetual funding rate observation for one symbol.
type FundingUpdate struct {
	Symbol      string    `json:"symbol"`
	FundingRate float64   `json:"fundingRate"`
	FundingTime time.Time `json:"fundingTime"`
}

// OpenInterestSnapshot captures the outstanding open interest for one symbol
// at a point in time.
type OpenInterestSnapshot struct {
	Symbol       string    `json:"symbol"`
	OpenInterest float64   `json:"openInterest"`
	Timestamp    time.Time `json:"timestamp"`
}

// LiquidationEvent is a single forced liquidation. Shape matches Trade; the
// hash is the venue-supplied natural key.
type LiquidationEvent struct {
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
}
