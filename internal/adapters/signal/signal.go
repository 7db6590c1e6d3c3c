// Package signal streams session notifications to control-API clients over
// a websocket.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/app"
)

const (
	DefaultPingPeriod = 30 * time.Second
	sendBuffer        = 32
	writeWait         = 5 * time.Second
	readLimit         = 4096
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// EventStream upgrades control-API requests to a websocket that carries the
// events of one session.
type EventStream struct {
	PingPeriod time.Duration
	upgrader   websocket.Upgrader
}

func NewEventStream(pingPeriod time.Duration) *EventStream {
	if pingPeriod <= 0 {
		pingPeriod = DefaultPingPeriod
	}
	return &EventStream{
		PingPeriod: pingPeriod,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// Serve takes over the request until the client goes away, the session is
// removed or ctx ends.
func (s *EventStream) Serve(ctx context.Context, c *gin.Context, e *app.Entry) {
	logger := log.With().Str("module", "adapters.signal").Str("sid", string(e.ID)).Logger()

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(readLimit)
	conn := &WsConn{conn: ws, send: make(chan []byte, sendBuffer)}

	events, unsubscribe := e.Feed.Subscribe()
	ctx, cancel := context.WithCancel(ctx)
	logger.Info().Msg("event stream opened")

	go s.writePump(ctx, conn)
	go func() {
		s.readPump(ctx, e.ID, conn)
		cancel()
	}()
	go func() {
		defer conn.Close()
		defer unsubscribe()
		s.forward(ctx, e.ID, conn, events)
		logger.Info().Msg("event stream closed")
	}()
}
