package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-strategy-lab/internal/normalize"
)

// ErrFeedClosed is returned by operations on a closed feed client.
var ErrFeedClosed = errors.New("feed client closed")

// FeedConfig configures feed client behavior.
type FeedConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration

	Logger *zap.Logger
}

// DefaultFeedConfig returns the default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// FeedClient implements Feed over a websocket JSON-RPC stream. The
// upstream speaks recordsSubscribe / recordsNotification; raw records
// arrive as snake_case JSON and are reshaped into normalize.RawRecord.
// The client reconnects with exponential backoff and resubscribes its
// active filters.
type FeedClient struct {
	endpoint string
	config   FeedConfig
	log      *zap.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to the delivery channel.
	subs   map[int64]chan *normalize.RawRecord
	subsMu sync.RWMutex

	// activeFilters stores filters for resubscription after reconnect.
	activeFilters   map[int64]RecordFilter
	activeFiltersMu sync.RWMutex

	// pendingSubs maps request ID to the channel waiting for a
	// subscription ID.
	pendingSubs   map[uint64]chan int64
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ Feed = (*FeedClient)(nil)

// NewFeedClient creates a feed client and connects to the endpoint.
func NewFeedClient(ctx context.Context, endpoint string, config *FeedConfig) (*FeedClient, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &FeedClient{
		endpoint:      endpoint,
		config:        cfg,
		log:           log,
		subs:          make(map[int64]chan *normalize.RawRecord),
		activeFilters: make(map[int64]RecordFilter),
		pendingSubs:   make(map[uint64]chan int64),
		done:          make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *FeedClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("feed dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeRecords subscribes to raw records matching the filter.
func (c *FeedClient) SubscribeRecords(ctx context.Context, filter RecordFilter) (<-chan *normalize.RawRecord, error) {
	subID, err := c.subscribe(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Buffer absorbs bursts; delivery blocks rather than dropping.
	ch := make(chan *normalize.RawRecord, 10000)
	c.subsMu.Lock()
	c.subs[subID] = ch
	c.subsMu.Unlock()

	c.activeFiltersMu.Lock()
	c.activeFilters[subID] = filter
	c.activeFiltersMu.Unlock()

	return ch, nil
}

// subscribe sends a recordsSubscribe request and waits for the
// subscription ID. It does not register a delivery channel.
func (c *FeedClient) subscribe(ctx context.Context, filter RecordFilter) (int64, error) {
	if c.closed.Load() {
		return 0, ErrFeedClosed
	}

	reqID := c.requestID.Add(1)

	tokenFilter := make(map[string]interface{})
	if len(filter.Tokens) > 0 {
		tokenFilter["tokens"] = filter.Tokens
	} else {
		tokenFilter["all"] = nil
	}

	req := feedRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "recordsSubscribe",
		Params:  []interface{}{tokenFilter},
	}

	confirmCh := make(chan int64, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = confirmCh
	c.pendingSubsMu.Unlock()

	dropPending := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		dropPending()
		return 0, errors.New("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		dropPending()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirmCh:
		return subID, nil
	case <-time.After(c.config.SubscribeTimeout):
		dropPending()
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, ErrFeedClosed
	case <-ctx.Done():
		dropPending()
		return 0, ctx.Err()
	}
}

// Close closes the feed connection and all subscription channels.
func (c *FeedClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, ch := range c.pendingSubs {
		close(ch)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches to subscribers, reconnecting
// with exponential backoff on connection errors.
func (c *FeedClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect waits out the backoff delay, redials and resubscribes.
func (c *FeedClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.log.Warn("feed reconnect failed", zap.Error(err))
		return
	}

	c.resubscribeAll()
}

// resubscribeAll re-registers every active filter on the new
// connection, rebinding the existing delivery channels to the new
// subscription IDs.
func (c *FeedClient) resubscribeAll() {
	c.activeFiltersMu.RLock()
	filters := make(map[int64]RecordFilter, len(c.activeFilters))
	for id, f := range c.activeFilters {
		filters[id] = f
	}
	c.activeFiltersMu.RUnlock()

	c.subsMu.RLock()
	channels := make(map[int64]chan *normalize.RawRecord, len(c.subs))
	for id, ch := range c.subs {
		channels[id] = ch
	}
	c.subsMu.RUnlock()

	for oldSubID, filter := range filters {
		ch := channels[oldSubID]
		if ch == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		newSubID, err := c.subscribe(ctx, filter)
		cancel()

		if err != nil {
			c.log.Warn("feed resubscribe failed", zap.Error(err))
			continue
		}

		c.subsMu.Lock()
		delete(c.subs, oldSubID)
		c.subs[newSubID] = ch
		c.subsMu.Unlock()

		c.activeFiltersMu.Lock()
		delete(c.activeFilters, oldSubID)
		c.activeFilters[newSubID] = filter
		c.activeFiltersMu.Unlock()
	}
}

// handleMessage processes an incoming message.
func (c *FeedClient) handleMessage(message []byte) {
	var resp feedSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		c.handleSubscribeResponse(&resp)
		return
	}

	var notif feedNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "recordsNotification" {
		c.handleRecordNotification(&notif)
		return
	}

	var errResp struct {
		JSONRPC string `json:"jsonrpc"`
		ID      uint64 `json:"id"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		c.log.Warn("feed error response",
			zap.Int("code", errResp.Error.Code),
			zap.String("message", errResp.Error.Message))
	}
}

func (c *FeedClient) handleSubscribeResponse(resp *feedSubscribeResponse) {
	c.pendingSubsMu.Lock()
	ch, ok := c.pendingSubs[resp.ID]
	if ok {
		delete(c.pendingSubs, resp.ID)
	}
	c.pendingSubsMu.Unlock()

	if ok {
		select {
		case ch <- resp.Result:
		default:
		}
	}
}

func (c *FeedClient) handleRecordNotification(notif *feedNotification) {
	if notif.Params == nil {
		return
	}

	rec := notif.Params.Result.toRawRecord()

	c.subsMu.RLock()
	ch, ok := c.subs[notif.Params.Subscription]
	c.subsMu.RUnlock()

	if ok {
		// Block until delivered; records must not be dropped.
		select {
		case ch <- rec:
		case <-c.done:
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *FeedClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// Write errors surface in the read loop, which reconnects.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// Wire types.

type feedRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type feedSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type feedNotification struct {
	JSONRPC string                  `json:"jsonrpc"`
	Method  string                  `json:"method"`
	Params  *feedNotificationParams `json:"params"`
}

type feedNotificationParams struct {
	Subscription int64      `json:"subscription"`
	Result       wireRecord `json:"result"`
}

// wireRecord is the upstream JSON shape of a raw record.
type wireRecord struct {
	Kind        string `json:"kind"`
	Venue       string `json:"venue"`
	Signature   string `json:"signature"`
	TimestampMs int64  `json:"timestamp_ms"`
	BlockSlot   int64  `json:"block_slot"`
	Success     bool   `json:"success"`

	Side           string  `json:"side,omitempty"`
	TokenAddress   string  `json:"token_address,omitempty"`
	WalletAddress  string  `json:"wallet_address,omitempty"`
	AmountTokenRaw uint64  `json:"amount_token_raw,omitempty"`
	AmountQuoteRaw uint64  `json:"amount_quote_raw,omitempty"`
	TokenDecimals  int     `json:"token_decimals,omitempty"`
	SolPriceUSD    float64 `json:"sol_price_usd,omitempty"`

	LiquidityUSD       float64  `json:"liquidity_usd,omitempty"`
	MarketCap          float64  `json:"market_cap,omitempty"`
	Price              float64  `json:"price,omitempty"`
	ReserveBase        float64  `json:"reserve_base,omitempty"`
	ReserveQuote       float64  `json:"reserve_quote,omitempty"`
	CumulativeUSD      float64  `json:"cumulative_usd,omitempty"`
	CurrentTick        *int     `json:"current_tick,omitempty"`
	ActiveBinID        *int     `json:"active_bin_id,omitempty"`
	BinStepBps         *int     `json:"bin_step_bps,omitempty"`
	FeeRate            *float64 `json:"fee_rate,omitempty"`
	ActiveLiquidityUSD *float64 `json:"active_liquidity_usd,omitempty"`
	Holders            *int     `json:"holders,omitempty"`
}

func (w *wireRecord) toRawRecord() *normalize.RawRecord {
	return &normalize.RawRecord{
		Kind:        w.Kind,
		Venue:       w.Venue,
		Signature:   w.Signature,
		TimestampMs: w.TimestampMs,
		BlockSlot:   w.BlockSlot,
		Success:     w.Success,

		Side:           w.Side,
		TokenAddress:   w.TokenAddress,
		WalletAddress:  w.WalletAddress,
		AmountTokenRaw: w.AmountTokenRaw,
		AmountQuoteRaw: w.AmountQuoteRaw,
		TokenDecimals:  w.TokenDecimals,
		SolPriceUSD:    w.SolPriceUSD,

		LiquidityUSD:       w.LiquidityUSD,
		MarketCap:          w.MarketCap,
		Price:              w.Price,
		ReserveBase:        w.ReserveBase,
		ReserveQuote:       w.ReserveQuote,
		CumulativeUSD:      w.CumulativeUSD,
		CurrentTick:        w.CurrentTick,
		ActiveBinID:        w.ActiveBinID,
		BinStepBps:         w.BinStepBps,
		FeeRate:            w.FeeRate,
		ActiveLiquidityUSD: w.ActiveLiquidityUSD,
		Holders:            w.Holders,
	}
}
