package relay

import (
	"context"
	"sync/atomic"
	"time"

	"garage-chat/internal/dto"
	"garage-chat/internal/models"
	"garage-chat/internal/realtime"

	"go.uber.org/zap"
)

// ===========================================================================
// Hub (Message Relay)
// Một event loop duy nhất xử lý register / unregister / broadcast, nên thứ tự
// phát lại đúng thứ tự tin nhắn tới hub. Không lưu tin nhắn, không đảm bảo
// giao: client có hàng đợi đầy bị ngắt kết nối.
// ===========================================================================

const (
	broadcastBuffer = 256
	mirrorBuffer    = 256
)

// inbound một send_message vừa đọc từ client
type inbound struct {
	from *Client
	msg  models.ChatMessage
}

// Hub phát lại tin nhắn tới mọi connection khác người gửi
type Hub struct {
	registry *Registry

	register   chan *Client
	unregister chan *Client
	broadcast  chan inbound
	mirror     chan *realtime.ChatEvent

	// done đóng khi Run kết thúc, các pump không bị kẹt khi gửi vào hub
	done chan struct{}

	publisher realtime.Publisher
	log       *zap.Logger

	relayed atomic.Uint64
	dropped atomic.Uint64
}

// NewHub tạo hub. publisher nil = không mirror
func NewHub(publisher realtime.Publisher, log *zap.Logger) *Hub {
	if publisher == nil {
		publisher = realtime.NewNoopPublisher()
	}
	return &Hub{
		registry:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan inbound, broadcastBuffer),
		mirror:     make(chan *realtime.ChatEvent, mirrorBuffer),
		done:       make(chan struct{}),
		publisher:  publisher,
		log:        log.Named("hub"),
	}
}

// Run chạy event loop tới khi ctx bị huỷ. Khi dừng, mọi connection được đóng.
func (h *Hub) Run(ctx context.Context) {
	go h.runMirror(ctx)

	defer func() {
		for _, c := range h.registry.All() {
			h.registry.Remove(c)
			close(c.send)
		}
		close(h.done)
		h.log.Info("Hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.registry.Add(c)
			h.log.Info("Client connected",
				zap.String("connection_id", c.ID()),
				zap.Int("clients", h.registry.Count()),
			)

		case c := <-h.unregister:
			if h.registry.Remove(c) {
				close(c.send)
			}
			h.log.Info("Client disconnected",
				zap.String("connection_id", c.ID()),
				zap.Int("clients", h.registry.Count()),
			)

		case in := <-h.broadcast:
			h.relay(in)
		}
	}
}

// relay stamp vai trò rồi fan-out tới mọi client trừ người gửi
func (h *Hub) relay(in inbound) {
	msg := in.msg
	msg.StampRole()

	frame, err := dto.NewEvent(dto.EventReceiveMessage, msg)
	if err != nil {
		h.log.Error("Encode receive_message failed", zap.Error(err))
		return
	}

	for _, c := range h.registry.Others(in.from.ID()) {
		select {
		case c.send <- frame:
		default:
			// hàng đợi đầy: client chậm bị ngắt, không chặn cả relay
			h.registry.Remove(c)
			close(c.send)
			h.dropped.Add(1)
			h.log.Warn("Send queue full, dropping client", zap.String("connection_id", c.ID()))
		}
	}
	h.relayed.Add(1)

	h.log.Debug("Message relayed",
		zap.String("from", in.from.ID()),
		zap.String("role", string(msg.Role())),
		zap.Int("recipients", h.registry.Count()-1),
	)

	event := &realtime.ChatEvent{
		ConnectionID: in.from.ID(),
		Role:         msg.Role(),
		Message:      msg,
		RelayedAt:    time.Now(),
	}
	select {
	case h.mirror <- event:
	default:
		h.log.Warn("Mirror queue full, event skipped", zap.String("from", in.from.ID()))
	}
}

// runMirror publish ra ngoài hub loop, lỗi chỉ log
func (h *Hub) runMirror(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.mirror:
			if err := h.publisher.PublishChatMessage(ctx, ev); err != nil {
				h.log.Warn("Mirror publish failed", zap.Error(err))
			}
		}
	}
}

// join đưa client vào hub, false nếu hub đã dừng
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) submit(from *Client, msg models.ChatMessage) {
	select {
	case h.broadcast <- inbound{from: from, msg: msg}:
	case <-h.done:
	}
}

// Stopped true khi Run đã kết thúc
func (h *Hub) Stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Count số connection đang mở
func (h *Hub) Count() int {
	return h.registry.Count()
}

// Stats số liệu hiện tại của relay
func (h *Hub) Stats() dto.RelayStats {
	return dto.RelayStats{
		ConnectedClients: h.registry.Count(),
		RelayedMessages:  h.relayed.Load(),
		DroppedClients:   h.dropped.Load(),
	}
}
