package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// ===========================================================================
// Local key-value storage
// Tương đương AsyncStorage trên app: key -> chuỗi JSON, lưu theo thiết bị
// ===========================================================================

const (
	// UserKey hồ sơ user đang đăng nhập
	UserKey = "user"

	// FCMTokenKey push token của thiết bị
	FCMTokenKey = "fcmToken"

	messagesKeyPrefix = "messages_"
)

// MessagesKey key lưu hội thoại của một user
func MessagesKey(userID string) string {
	return messagesKeyPrefix + userID
}

// Store interface key-value cục bộ
type Store interface {
	// Get trả về (value, true) nếu key tồn tại
	Get(ctx context.Context, key string) (string, bool, error)

	// Set ghi đè value của key
	Set(ctx context.Context, key, value string) error

	// Remove xóa key, không lỗi nếu key không tồn tại
	Remove(ctx context.Context, key string) error
}

// GetJSON đọc key và decode JSON vào out. Trả về false nếu key không tồn tại.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encode value thành JSON rồi ghi vào key
func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}
