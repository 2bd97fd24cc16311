package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/dto"
	"garage-chat/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// ReceiveFunc nhận một receive_message từ relay
type ReceiveFunc func(msg models.ChatMessage)

// Transport một connection tới relay
type Transport interface {
	// Emit gửi send_message
	Emit(ctx context.Context, msg models.ChatMessage) error

	// Close đóng connection, gọi nhiều lần không lỗi
	Close() error
}

// Dialer mở Transport, onReceive được gọi trên goroutine đọc của transport
type Dialer func(ctx context.Context, url string, onReceive ReceiveFunc) (Transport, error)

// wsTransport Transport trên gorilla/websocket
type wsTransport struct {
	conn *websocket.Conn
	log  *zap.Logger

	// writeMu gorilla chỉ cho phép một writer tại một thời điểm
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// WebsocketDialer trả về Dialer dùng gorilla websocket
func WebsocketDialer(log *zap.Logger) Dialer {
	return func(ctx context.Context, url string, onReceive ReceiveFunc) (Transport, error) {
		return Dial(ctx, url, onReceive, log)
	}
}

// Dial kết nối tới relay và bắt đầu đọc receive_message
func Dial(ctx context.Context, url string, onReceive ReceiveFunc, log *zap.Logger) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %v: %w", url, err, apperrors.ErrConnectionClosed)
	}

	t := &wsTransport{
		conn: conn,
		log:  log.Named("transport"),
	}
	go t.readLoop(onReceive)

	t.log.Info("Connected to relay", zap.String("url", url))
	return t, nil
}

func (t *wsTransport) readLoop(onReceive ReceiveFunc) {
	for {
		_, frame, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.Warn("Relay connection lost", zap.Error(err))
			}
			return
		}

		ev, err := dto.DecodeEvent(frame)
		if err != nil {
			t.log.Warn("Invalid frame from relay", zap.Error(err))
			continue
		}
		if ev.Event != dto.EventReceiveMessage {
			continue
		}

		var msg models.ChatMessage
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			t.log.Warn("Invalid receive_message payload", zap.Error(err))
			continue
		}
		onReceive(msg)
	}
}

func (t *wsTransport) Emit(ctx context.Context, msg models.ChatMessage) error {
	frame, err := dto.NewEvent(dto.EventSendMessage, msg)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	t.conn.SetWriteDeadline(deadline)

	if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("emit send_message: %v: %w", err, apperrors.ErrConnectionClosed)
	}
	return nil
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		t.conn.SetWriteDeadline(time.Now().Add(time.Second))
		t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()

		err = t.conn.Close()
	})
	return err
}
