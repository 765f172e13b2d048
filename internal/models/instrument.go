package models

import "time"

// InstrumentMeta describes one tradable instrument. It is a slowly-changing
// dimension: the store keeps the latest row per symbol (last-write-wins), the
// bus topic is compacted on the symbol key.
type InstrumentMeta struct {
	Symbol        string    `json:"symbol"`
	BaseCurrency  string    `json:"baseCurrency"`
	QuoteCurrency string    `json:"quoteCurrency"`
	MaxLeverage   uint32    `json:"maxLeverage"`
	Type          string    `json:"type"`
	UpdatedAt     time.Time `json:"updated_at"`
}
