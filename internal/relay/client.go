package relay

import (
	"encoding/json"
	"time"

	"garage-chat/internal/config"
	"garage-chat/internal/dto"
	"garage-chat/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client một websocket connection tới relay
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	// send hàng đợi frame chờ ghi; hub đóng channel khi client bị gỡ
	send chan []byte

	cfg config.RelayConfig
	log *zap.Logger
}

func newClient(id string, hub *Hub, conn *websocket.Conn, cfg config.RelayConfig, log *zap.Logger) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, cfg.SendBuffer),
		cfg:  cfg,
		log:  log.With(zap.String("connection_id", id)),
	}
}

// ID connection id (uuid)
func (c *Client) ID() string {
	return c.id
}

// readPump đọc frame từ connection và đẩy send_message vào hub.
// Chạy trên goroutine của HTTP handler, trả về khi connection đóng.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		ev, err := dto.DecodeEvent(frame)
		if err != nil {
			c.log.Warn("Invalid frame", zap.Error(err))
			continue
		}

		switch ev.Event {
		case dto.EventSendMessage:
			var msg models.ChatMessage
			if err := json.Unmarshal(ev.Data, &msg); err != nil {
				c.log.Warn("Invalid send_message payload", zap.Error(err))
				continue
			}
			c.hub.submit(c, msg)
		default:
			c.log.Debug("Ignoring event", zap.String("event", ev.Event))
		}
	}
}

// writePump ghi frame từ hàng đợi ra connection, kèm ping định kỳ
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// mỗi event là một frame riêng, client decode từng frame một
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
