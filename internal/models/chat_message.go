package models

import (
	"strings"
	"time"
)

// ===========================================================================
// ChatMessage (Tin nhắn chat)
// Không lưu trên server: relay chỉ phát lại, mỗi client tự lưu danh sách của mình
// JSON keys giữ nguyên như app mobile (isUser, userId, username, ...)
// ===========================================================================

// SenderRole vai trò người gửi, suy ra từ cờ isAdmin
type SenderRole string

const (
	// RoleCustomer khách hàng
	RoleCustomer SenderRole = "customer"

	// RoleStaff nhân viên garage
	RoleStaff SenderRole = "staff"
)

// ChatMessage một tin nhắn
type ChatMessage struct {
	// Text nội dung
	Text string `json:"text"`

	// IsUser do relay tính lại = !IsAdmin
	IsUser bool `json:"isUser"`

	// IsAdmin gợi ý từ client, relay tin tưởng nguyên trạng
	IsAdmin bool `json:"isAdmin,omitempty"`

	UserID   string `json:"userId,omitempty"`
	UserName string `json:"username,omitempty"`

	// Timestamp ISO-8601, client sinh lúc gửi
	Timestamp string `json:"timestamp,omitempty"`

	Avatar string `json:"avatar,omitempty"`
}

// NewOutgoingMessage tạo tin nhắn gửi đi cho user hiện tại
func NewOutgoingMessage(text string, sender *User, now time.Time) ChatMessage {
	msg := ChatMessage{
		Text:      text,
		IsUser:    true,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
	if sender != nil {
		msg.UserID = sender.UID
		msg.UserName = sender.FullName
		if msg.UserName == "" {
			msg.UserName = sender.UserName
		}
		msg.IsAdmin = sender.IsStaff()
	}
	return msg
}

// StampRole đặt IsUser theo IsAdmin (thiếu isAdmin = tin của khách)
func (m *ChatMessage) StampRole() {
	m.IsUser = !m.IsAdmin
}

// Role vai trò người gửi
func (m *ChatMessage) Role() SenderRole {
	if m.IsAdmin {
		return RoleStaff
	}
	return RoleCustomer
}

// IsBlank nội dung rỗng sau khi trim
func (m *ChatMessage) IsBlank() bool {
	return strings.TrimSpace(m.Text) == ""
}

// SentAt parse Timestamp, zero time nếu không parse được
func (m *ChatMessage) SentAt() time.Time {
	t, err := ParseTime(m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
