package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Client is one websocket connection in a group.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	group   string
	staff   bool
	limiter *rate.Limiter
	relay   func(ctx context.Context, group string, payload []byte) error
	log     *zap.Logger
}

type inbound struct {
	Article json.RawMessage `json:"article"`
}

// readPump relays inbound articles from staff connections and discards
// everything else.
func (c *Client) readPump(ctx context.Context, unregister func(*Client)) {
	defer func() {
		unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Websocket closed", zap.Error(err))
			}
			return
		}
		if !c.staff {
			continue
		}
		if !c.limiter.Allow() {
			c.log.Debug("Relay rate limited", zap.String("group", c.group))
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil || len(msg.Article) == 0 || string(msg.Article) == "null" {
			continue
		}
		if err := c.relay(ctx, c.group, msg.Article); err != nil {
			c.log.Warn("Relay failed", zap.String("group", c.group), zap.Error(err))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
