package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrClientClosed is returned by operations on a closed WSClient.
var ErrClientClosed = errors.New("client closed")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// Logger receives connection and protocol errors. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// WSEndpoint derives the pubsub endpoint from an HTTP RPC endpoint.
func WSEndpoint(httpEndpoint string) string {
	switch {
	case strings.HasPrefix(httpEndpoint, "https://"):
		return "wss://" + strings.TrimPrefix(httpEndpoint, "https://")
	case strings.HasPrefix(httpEndpoint, "http://"):
		return "ws://" + strings.TrimPrefix(httpEndpoint, "http://")
	default:
		return httpEndpoint
	}
}

// subscription is an active programSubscribe and its consumer channel.
type subscription struct {
	programID string
	ch        chan AccountNotification
}

// WSClient implements ProgramSubscriber using gorilla/websocket.
// It reconnects with exponential backoff and resubscribes active subscriptions.
type WSClient struct {
	endpoint string
	config   WSClientConfig
	logger   zerolog.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps server subscription id to its subscription
	subs   map[int64]*subscription
	subsMu sync.RWMutex

	// pending maps request id to the channel waiting for the subscription id
	pending   map[uint64]chan int64
	pendingMu sync.Mutex

	done         chan struct{}
	wg           sync.WaitGroup
	reconnecting atomic.Bool
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = DefaultWSConfig().SubscribeTimeout
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   zerolog.Nop(),
		subs:     make(map[int64]*subscription),
		pending:  make(map[uint64]chan int64),
		done:     make(chan struct{}),
	}
	if cfg.Logger != nil {
		c.logger = cfg.Logger.With().Str("component", "solana_ws").Logger()
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// connect establishes the WebSocket connection.
func (c *WSClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, c.endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.closed.Load() {
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	return nil
}

// SubscribeProgram subscribes to account changes for programID.
func (c *WSClient) SubscribeProgram(ctx context.Context, programID string) (<-chan AccountNotification, error) {
	subID, err := c.subscribe(ctx, programID)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		programID: programID,
		ch:        make(chan AccountNotification, 256),
	}
	c.subsMu.Lock()
	c.subs[subID] = sub
	c.subsMu.Unlock()

	return sub.ch, nil
}

// subscribe sends programSubscribe and waits for the subscription id.
func (c *WSClient) subscribe(ctx context.Context, programID string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "programSubscribe",
		Params: []interface{}{
			programID,
			map[string]string{"encoding": "base64", "commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = confirmCh
	c.pendingMu.Unlock()

	forget := func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}

	if err := c.writeJSON(req); err != nil {
		forget()
		return 0, err
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case subID, ok := <-confirmCh:
		if !ok {
			return 0, ErrClientClosed
		}
		return subID, nil
	case <-timer.C:
		forget()
		return 0, fmt.Errorf("subscription timeout after %v", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, ErrClientClosed
	case <-ctx.Done():
		forget()
		return 0, ctx.Err()
	}
}

func (c *WSClient) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return errors.New("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the connection and every subscription channel.
func (c *WSClient) Close() error {
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

	// Senders are gone once the loops exit; only then is closing channels safe.
	c.wg.Wait()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	return nil
}

// readLoop reads messages and dispatches them; a read error hands the
// connection to reconnect and waits for a replacement.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.sleep(100 * time.Millisecond) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warn().Err(err).Msg("websocket read failed, reconnecting")

			if !c.reconnecting.Swap(true) {
				c.dropConn(conn)
				c.wg.Add(1)
				go c.reconnect()
			}

			if !c.sleep(100 * time.Millisecond) {
				return
			}
			continue
		}

		c.handleMessage(message)
	}
}

// sleep waits for d and reports false if the client closed meanwhile.
func (c *WSClient) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.done:
		return false
	case <-t.C:
		return true
	}
}

// dropConn closes broken and clears it if it is still the current connection.
func (c *WSClient) dropConn(broken *websocket.Conn) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == broken {
		c.conn.Close()
		c.conn = nil
	}
}

// reconnect dials until a connection is established or the client closes,
// doubling the delay between attempts up to MaxReconnectDelay, then resubscribes.
func (c *WSClient) reconnect() {
	defer c.wg.Done()
	defer c.reconnecting.Store(false)

	delay := c.config.ReconnectDelay
	for attempt := 1; ; attempt++ {
		if !c.sleep(delay) {
			return
		}

		err := c.redial()
		if err == nil {
			break
		}
		if c.closed.Load() {
			return
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("reconnect failed")
	}

	c.resubscribeAll()
}

// redial runs one connection attempt, aborted early by Close.
func (c *WSClient) redial() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	return c.connect(ctx)
}

// resubscribeAll re-establishes every active subscription on the new connection.
// It runs outside readLoop, which must keep reading to deliver confirmations.
func (c *WSClient) resubscribeAll() {
	c.subsMu.RLock()
	active := make(map[int64]*subscription, len(c.subs))
	for id, sub := range c.subs {
		active[id] = sub
	}
	c.subsMu.RUnlock()

	for oldID, sub := range active {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		newID, err := c.subscribe(ctx, sub.programID)
		cancel()

		if err != nil {
			c.logger.Warn().Err(err).Str("program_id", sub.programID).Msg("resubscribe failed")
			continue
		}

		c.subsMu.Lock()
		delete(c.subs, oldID)
		c.subs[newID] = sub
		c.subsMu.Unlock()
	}
}

// handleMessage processes one incoming message.
func (c *WSClient) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Debug().Err(err).Msg("undecodable websocket message")
		return
	}

	switch {
	case env.Method == "programNotification" && env.Params != nil:
		c.handleProgramNotification(env.Params)
	case env.Error != nil:
		c.logger.Warn().Int("code", env.Error.Code).Str("message", env.Error.Message).Uint64("id", env.ID).Msg("websocket error response")
	case env.ID != 0 && env.Result != nil:
		var subID int64
		if err := json.Unmarshal(env.Result, &subID); err == nil {
			c.handleSubscribeResponse(env.ID, subID)
		}
	}
}

// handleSubscribeResponse delivers a subscription id to its waiting caller.
func (c *WSClient) handleSubscribeResponse(reqID uint64, subID int64) {
	c.pendingMu.Lock()
	ch, ok := c.pending[reqID]
	if ok {
		delete(c.pending, reqID)
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- subID
	}
}

// handleProgramNotification dispatches an account change to its subscriber.
func (c *WSClient) handleProgramNotification(params *wsNotificationParams) {
	c.subsMu.RLock()
	sub, ok := c.subs[params.Subscription]
	c.subsMu.RUnlock()
	if !ok {
		return
	}

	notif := AccountNotification{
		Pubkey:  params.Result.Value.Pubkey,
		Account: params.Result.Value.Account.toAccountInfo(),
	}
	if params.Result.Context != nil {
		notif.Slot = params.Result.Context.Slot
	}

	// Block until delivered; the buffer absorbs bursts.
	select {
	case sub.ch <- notif:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *WSClient) pingLoop() {
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
				// A dead connection surfaces as a read error in readLoop
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
			}
			c.connMu.Unlock()
		}
	}
}

var _ ProgramSubscriber = (*WSClient)(nil)

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsEnvelope covers responses, errors and notifications.
type wsEnvelope struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      uint64                `json:"id"`
	Result  json.RawMessage       `json:"result"`
	Error   *RPCError             `json:"error"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext     `json:"context"`
	Value   wsProgramValue `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}

type wsProgramValue struct {
	Pubkey  string       `json:"pubkey"`
	Account accountValue `json:"account"`
}
