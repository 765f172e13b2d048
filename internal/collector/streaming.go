package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hyperflow/internal/models"
	"hyperflow/internal/norm"
	"hyperflow/internal/reconnect"
	"hyperflow/internal/venue/hyperliquid"
	"hyperflow/logger"
)

const defaultPingInterval = 30 * time.Second

// StreamConfig carries the push-feed connection parameters.
type StreamConfig struct {
	URL          string
	PingInterval time.Duration
	Reconnect    reconnect.Policy
}

// StreamClient maintains one persistent connection to the venue push feed,
// subscribes to the trade, quote and funding channels on every (re)connect
// and dispatches inbound frames through the normalizer into the fan-out.
type StreamClient struct {
	cfg     StreamConfig
	forward Forwarder
	symbols *SymbolSet
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log
}

// NewStreamClient builds the feed client. Reconnect defaults to the fixed
// five second policy the venue feed has always used.
func NewStreamClient(cfg StreamConfig, forward Forwarder, symbols *SymbolSet) *StreamClient {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.Reconnect == nil {
		cfg.Reconnect = reconnect.NewFixed(5 * time.Second)
	}
	return &StreamClient{
		cfg:     cfg,
		forward: forward,
		symbols: symbols,
		wg:      &sync.WaitGroup{},
		log:     logger.GetLogger(),
	}
}

// Start opens the socket and begins dispatching frames. It returns once the
// connection loop is running; connection failures are retried inside the
// loop, not surfaced here.
func (c *StreamClient) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("stream client already running")
	}
	c.running = true
	c.ctx = ctx
	c.mu.Unlock()

	if c.cfg.URL == "" {
		return fmt.Errorf("stream url not configured")
	}

	c.wg.Add(1)
	go c.run()

	c.log.WithComponent("stream_client").WithFields(logger.Fields{
		"url":           c.cfg.URL,
		"ping_interval": c.cfg.PingInterval.String(),
	}).Info("stream client started")
	return nil
}

// Stop closes the socket and waits for the connection loop to exit. The
// context passed to Start must be cancelled first.
func (c *StreamClient) Stop() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	c.log.WithComponent("stream_client").Info("stream client stopped")
}

// run is the connect / subscribe / read / reconnect loop. A read error or
// close tears the connection down and the loop redials after the policy
// delay, resubscribing to the full channel set.
func (c *StreamClient) run() {
	defer c.wg.Done()
	log := c.log.WithComponent("stream_client")

	for {
		if c.ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.cfg.URL, nil)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"url": c.cfg.URL}).Warn("failed to connect to venue feed")
			if c.waitForReconnect() {
				return
			}
			continue
		}

		if err := c.subscribe(conn); err != nil {
			log.WithError(err).Warn("failed to subscribe to venue channels")
			conn.Close()
			if c.waitForReconnect() {
				return
			}
			continue
		}

		c.cfg.Reconnect.Reset()
		log.WithFields(logger.Fields{"channels": len(hyperliquid.Streams())}).Info("connected and subscribed")

		pingCancel := c.startPingLoop(conn)
		err = c.readLoop(conn)
		pingCancel()
		conn.Close()

		if c.ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("venue feed read loop ended")

		if c.waitForReconnect() {
			return
		}
	}
}

// subscribe issues one subscribe control message per channel of interest.
func (c *StreamClient) subscribe(conn *websocket.Conn) error {
	for _, stream := range hyperliquid.Streams() {
		if err := conn.WriteJSON(hyperliquid.NewSubscribeRequest(stream)); err != nil {
			return fmt.Errorf("subscribe %s: %w", stream, err)
		}
	}
	return nil
}

func (c *StreamClient) startPingLoop(conn *websocket.Conn) context.CancelFunc {
	pingCtx, cancel := context.WithCancel(c.ctx)
	ticker := time.NewTicker(c.cfg.PingInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				deadline := time.Now().Add(time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					c.log.WithComponent("stream_client").WithError(err).Warn("failed to send liveness ping")
					cancel()
					return
				}
			}
		}
	}()
	return cancel
}

func (c *StreamClient) readLoop(conn *websocket.Conn) error {
	for {
		if c.ctx.Err() != nil {
			return c.ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleFrame(raw)
	}
}

// handleFrame dispatches one inbound frame by its channel tag. A malformed
// frame is logged and dropped without terminating the connection, and a
// sink failure for one frame does not stop subsequent frames.
func (c *StreamClient) handleFrame(raw []byte) {
	log := c.log.WithComponent("stream_client")
	logger.IncrementStreamFrame(len(raw))

	frame, err := hyperliquid.ParseFrame(raw)
	if err != nil {
		log.WithError(err).Warn("dropping malformed frame")
		return
	}
	logger.RecordChannelMessage(string(frame.Channel), len(raw))

	switch frame.Channel {
	case hyperliquid.StreamTrades:
		c.handleTrades(frame.Data)
	case hyperliquid.StreamQuote:
		c.handleQuotes(frame.Data)
	case hyperliquid.StreamFunding:
		c.handleFunding(frame.Data)
	default:
		// The channel set is closed; anything else means the venue added
		// a stream we never subscribed to.
		log.WithFields(logger.Fields{"channel": string(frame.Channel)}).Warn("frame for unknown channel")
	}
}

func (c *StreamClient) handleTrades(data json.RawMessage) {
	log := c.log.WithComponent("stream_client")

	var raws []hyperliquid.RawTrade
	if err := json.Unmarshal(data, &raws); err != nil {
		log.WithError(err).Warn("dropping malformed trades payload")
		return
	}

	trades := make([]models.Trade, 0, len(raws))
	for _, raw := range raws {
		trade, err := norm.Trade(raw)
		if err != nil {
			log.WithError(err).Warn("dropping malformed trade")
			continue
		}
		if !c.symbols.Known(trade.Symbol) {
			log.WithFields(logger.Fields{"symbol": trade.Symbol}).Warn("trade for unknown symbol")
		}
		trades = append(trades, trade)
	}
	if err := c.forward.Trades(c.ctx, trades); err != nil {
		log.WithError(err).Warn("trade fan-out incomplete")
	}
}

func (c *StreamClient) handleQuotes(data json.RawMessage) {
	log := c.log.WithComponent("stream_client")

	var raws []hyperliquid.RawQuote
	if err := json.Unmarshal(data, &raws); err != nil {
		log.WithError(err).Warn("dropping malformed quotes payload")
		return
	}

	quotes := make([]models.Quote, 0, len(raws))
	for _, raw := range raws {
		quote, err := norm.Quote(raw)
		if err != nil {
			log.WithError(err).Warn("dropping malformed quote")
			continue
		}
		if !c.symbols.Known(quote.Symbol) {
			log.WithFields(logger.Fields{"symbol": quote.Symbol}).Warn("quote for unknown symbol")
		}
		quotes = append(quotes, quote)
	}
	if err := c.forward.Quotes(c.ctx, quotes); err != nil {
		log.WithError(err).Warn("quote fan-out incomplete")
	}
}

func (c *StreamClient) handleFunding(data json.RawMessage) {
	log := c.log.WithComponent("stream_client")

	var raws []hyperliquid.RawFunding
	if err := json.Unmarshal(data, &raws); err != nil {
		log.WithError(err).Warn("dropping malformed funding payload")
		return
	}

	updates := make([]models.FundingUpdate, 0, len(raws))
	for _, raw := range raws {
		update, err := norm.Funding(raw)
		if err != nil {
			log.WithError(err).Warn("dropping malformed funding update")
			continue
		}
		updates = append(updates, update)
	}
	if err := c.forward.Funding(c.ctx, updates); err != nil {
		log.WithError(err).Warn("funding fan-out incomplete")
	}
}

// waitForReconnect sleeps the policy delay. Returns true when shutdown was
// requested during the wait.
func (c *StreamClient) waitForReconnect() bool {
	logger.IncrementReconnect()
	timer := time.NewTimer(c.cfg.Reconnect.Next())
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
