package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// drain keeps a server connection open until the client goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// programServer confirms each programSubscribe with subID and then sends one notification.
func programServer(t *testing.T, subID int64, connections *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		n := int32(1)
		if connections != nil {
			n = connections.Add(1)
		}

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "programSubscribe" {
			t.Errorf("expected programSubscribe, got %s", req.Method)
		}
		if len(req.Params) != 2 || req.Params[0] != "Prog111" {
			t.Errorf("unexpected params: %v", req.Params)
		}

		c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": subID})

		time.Sleep(20 * time.Millisecond)
		c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "programNotification",
			"params": map[string]interface{}{
				"subscription": subID,
				"result": map[string]interface{}{
					"context": map[string]interface{}{"slot": 100 * int(n)},
					"value": map[string]interface{}{
						"pubkey": "Acct111",
						"account": map[string]interface{}{
							"lamports": 42, "owner": "Prog111", "data": []string{"AAAA", "base64"},
							"executable": false, "rentEpoch": 1, "space": 3,
						},
					},
				},
			},
		})

		drain(c)
	}))
}

func TestWSEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://api.devnet.solana.com": "wss://api.devnet.solana.com",
		"http://localhost:8899":         "ws://localhost:8899",
		"wss://already":                 "wss://already",
	}
	for in, want := range tests {
		if got := WSEndpoint(in); got != want {
			t.Errorf("WSEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWSClient_SubscribeProgram(t *testing.T) {
	server := programServer(t, 12345, nil)
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeProgram(ctx, "Prog111")
	if err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	select {
	case notif := <-ch:
		if notif.Pubkey != "Acct111" {
			t.Errorf("expected Acct111, got %s", notif.Pubkey)
		}
		if notif.Slot != 100 {
			t.Errorf("expected slot 100, got %d", notif.Slot)
		}
		if notif.Account.Lamports != 42 || notif.Account.Data != "AAAA" {
			t.Errorf("unexpected account: %+v", notif.Account)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestWSClient_Reconnect(t *testing.T) {
	var connections atomic.Int32
	inner := programServer(t, 7, &connections)
	defer inner.Close()

	// Drop the first connection right after its notification.
	var first atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first.CompareAndSwap(false, true) {
			c, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			connections.Add(1)
			_, msg, err := c.ReadMessage()
			if err == nil {
				var req wsRequest
				json.Unmarshal(msg, &req)
				c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": 7})
			}
			time.Sleep(100 * time.Millisecond)
			c.Close()
			return
		}
		inner.Config.Handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeProgram(ctx, "Prog111")
	if err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	select {
	case notif := <-ch:
		if notif.Pubkey != "Acct111" {
			t.Errorf("expected Acct111, got %s", notif.Pubkey)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no notification after reconnect")
	}

	if got := connections.Load(); got < 2 {
		t.Errorf("expected at least 2 connections, got %d", got)
	}
}

// dropThenRefuse serves one subscription confirmation and drops the connection,
// then answers the next refused dials with 503 before handing off to next.
func dropThenRefuse(refused int32, dials *atomic.Int32, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := dials.Add(1)
		switch {
		case n == 1:
			c, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			_, msg, err := c.ReadMessage()
			if err == nil {
				var req wsRequest
				json.Unmarshal(msg, &req)
				c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": 7})
			}
			time.Sleep(50 * time.Millisecond)
			c.Close()
		case n <= 1+refused:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func TestWSClient_ReconnectAfterRefusedDials(t *testing.T) {
	inner := programServer(t, 7, nil)
	defer inner.Close()

	var dials atomic.Int32
	server := httptest.NewServer(dropThenRefuse(2, &dials, inner.Config.Handler))
	defer server.Close()

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 40 * time.Millisecond

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeProgram(ctx, "Prog111")
	if err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	select {
	case notif := <-ch:
		if notif.Pubkey != "Acct111" {
			t.Errorf("expected Acct111, got %s", notif.Pubkey)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no notification after refused dials; dials=%d", dials.Load())
	}

	if got := dials.Load(); got < 4 {
		t.Errorf("expected at least 4 dials, got %d", got)
	}
}

func TestWSClient_CloseDuringFailingReconnect(t *testing.T) {
	var dials atomic.Int32
	server := httptest.NewServer(dropThenRefuse(1<<30, &dials, http.NotFoundHandler()))
	defer server.Close()

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 20 * time.Millisecond

	client, err := NewWSClient(context.Background(), wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	if _, err := client.SubscribeProgram(context.Background(), "Prog111"); err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for dials.Load() < 4 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := dials.Load(); got < 4 {
		t.Fatalf("expected repeated reconnect attempts, got %d dials", got)
	}

	closed := make(chan error, 1)
	go func() { closed <- client.Close() }()

	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked while reconnecting")
	}
}

func TestWSClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		json.Unmarshal(msg, &req)
		c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32602, "message": "Invalid param"},
		})
		drain(c)
	}))
	defer server.Close()

	cfg := DefaultWSConfig()
	cfg.SubscribeTimeout = 100 * time.Millisecond

	client, err := NewWSClient(context.Background(), wsURL(server), &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if _, err := client.SubscribeProgram(context.Background(), "Prog111"); err == nil {
		t.Error("expected subscription error")
	}
}

func TestWSClient_Close(t *testing.T) {
	server := programServer(t, 1, nil)
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	ch, err := client.SubscribeProgram(ctx, "Prog111")
	if err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should be closed")
	}

	// Double close should be safe
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}

	// Channel is closed after any buffered notification
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel not closed")
		}
	}
}

func TestWSClient_SubscribeAfterClose(t *testing.T) {
	server := programServer(t, 1, nil)
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	client.Close()

	_, err = client.SubscribeProgram(ctx, "Prog111")
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestWSClient_DialFailure(t *testing.T) {
	_, err := NewWSClient(context.Background(), "ws://127.0.0.1:1", nil)
	if err == nil {
		t.Error("expected dial error")
	}
}
