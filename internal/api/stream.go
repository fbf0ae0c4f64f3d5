package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pumpscope/internal/observability"
)

const streamWriteTimeout = 10 * time.Second

// stream upgrades to a websocket and pushes a snapshot immediately and then
// every streamInterval until the client goes away or the server shuts down.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	observability.StreamClientConnected(1)
	defer observability.StreamClientConnected(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: handles control frames and notices the client closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := s.pushSnapshot(ctx, conn); err != nil {
			logger.Debug().Err(err).Msg("stream closed")
			return
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

// pushSnapshot writes one snapshot, or an error body when aggregation fails.
func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	var msg any
	snap, err := s.scanner.Aggregate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg = ErrorResponse{Error: msgPumpfunFailed, Details: err.Error()}
	} else {
		msg = NewPumpfunResponse(snap)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
