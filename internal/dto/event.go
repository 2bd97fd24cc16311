package dto

import (
	"encoding/json"
	"fmt"
)

// ===========================================================================
// Relay wire events
// Mỗi frame websocket là một envelope {"event": "...", "data": {...}}
// giống named events của socket.io mà app mobile đang dùng
// ===========================================================================

const (
	// EventSendMessage client -> relay
	EventSendMessage = "send_message"

	// EventReceiveMessage relay -> các client khác
	EventReceiveMessage = "receive_message"
)

// Event envelope của một frame
type Event struct {
	// Event tên sự kiện
	Event string `json:"event"`

	// Data payload gốc, decode theo tên sự kiện
	Data json.RawMessage `json:"data"`
}

// NewEvent encode payload thành một frame hoàn chỉnh
func NewEvent(name string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return json.Marshal(Event{Event: name, Data: data})
}

// DecodeEvent tách envelope, chưa decode Data
func DecodeEvent(frame []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("decode event: missing event name")
	}
	return &ev, nil
}
