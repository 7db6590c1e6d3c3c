package signal

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/app"
)

type clientMessage struct {
	Type string `json:"type"`
}

func (s *EventStream) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(s.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (s *EventStream) readPump(ctx context.Context, sid app.SessionID, c *WsConn) {
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.PingPeriod))
	})
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(2 * s.PingPeriod)); err != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Msg("readPump closing")
			return
		}
		s.handleMessage(sid, c, data)
	}
}

func (s *EventStream) handleMessage(sid app.SessionID, c *WsConn, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("bad json")
		return
	}
	switch msg.Type {
	case "ping":
		sendJSON(c, clientMessage{Type: "pong"})
	default:
		log.Warn().Str("module", "adapters.signal").Str("sid", string(sid)).Str("type", msg.Type).Msg("unknown message")
	}
}

// forward copies feed events to the connection until either side ends.
func (s *EventStream) forward(ctx context.Context, sid app.SessionID, c *WsConn, events <-chan app.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sendJSON(c, ev); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Str("type", ev.Type).Msg("event not delivered")
			}
		}
	}
}

func sendJSON(c *WsConn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.TrySend(b)
}
