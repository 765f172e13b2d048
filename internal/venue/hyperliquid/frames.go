package hyperliquid

import (
	"encoding/json"
	"fmt"
)

// Stream identifies one push-feed channel. The set is closed: dispatch code
// switches over it exhaustively so an unexpected tag cannot be silently
// dropped into a default path.
type Stream string

const (
	StreamTrades  Stream = "trades"
	StreamQuote   Stream = "quote"
	StreamFunding Stream = "funding"
)

// Streams lists every channel the feed client subscribes to.
func Streams() []Stream {
	return []Stream{StreamTrades, StreamQuote, StreamFunding}
}

// SubscribeRequest is the control message accepted by the push feed.
type SubscribeRequest struct {
	Method string `json:"method"`
	Stream Stream `json:"stream"`
}

// NewSubscribeRequest builds the subscribe control message for one stream.
func NewSubscribeRequest(s Stream) SubscribeRequest {
	return SubscribeRequest{Method: "subscribe", Stream: s}
}

// Frame is one inbound push-feed message: a channel tag plus an array
// payload. Data stays raw until the tag has been inspected.
type Frame struct {
	Channel Stream          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// ParseFrame decodes a raw websocket message into a Frame. Frames without a
// channel tag are rejected.
func ParseFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Channel == "" {
		return Frame{}, fmt.Errorf("frame missing channel tag")
	}
	return f, nil
}

// RawTrade is a trade element as emitted on the trades channel and by the
// liquidation endpoint. Numerics arrive string-encoded, the side as a one
// letter code and the time as epoch milliseconds.
type RawTrade struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"`
	Hash string `json:"hash"`
}

// RawQuote is a top-of-book element from the quote channel.
type RawQuote struct {
	Coin  string `json:"coin"`
	BidPx string `json:"bidPx"`
	AskPx string `json:"askPx"`
	BidSz string `json:"bidSz"`
	AskSz string `json:"askSz"`
	Time  int64  `json:"time"`
}

// RawFunding is a funding rate element from the funding channel.
type RawFunding struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	FundingTime int64  `json:"fundingTime"`
}

// RawOpenInterest is one element of the open-interest endpoint response.
type RawOpenInterest struct {
	Coin         string `json:"coin"`
	OpenInterest string `json:"openInterest"`
	Time         int64  `json:"time"`
}

// RawInstrument is one instrument from the meta endpoint.
type RawInstrument struct {
	Name          string `json:"name"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	MaxLeverage   uint32 `json:"maxLeverage"`
	Type          string `json:"type"`
}

type metaResponse struct {
	Symbols []RawInstrument `json:"symbols"`
}
