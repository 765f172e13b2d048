package models

// Side is the direction of a trade or liquidation. Only two values exist;
// the normalizer rejects anything else before a record is constructed.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two known directions.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}
