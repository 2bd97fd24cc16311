package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"garage-chat/internal/models"
)

// ===========================================================================
// ConversationLog
// Lưu danh sách tin nhắn của từng user dưới key messages_<uid>.
// Mỗi lần ghi mang một version tăng dần; các lần ghi cùng key được tuần tự hóa
// và bản cũ hơn bản đã ghi sẽ bị bỏ qua, nên không thể mất cập nhật khi
// nhiều lần persist chạy đua nhau.
// ===========================================================================

// ConversationLog hội thoại đã lưu, theo user
type ConversationLog struct {
	store   Store
	version atomic.Uint64

	mu   sync.Mutex
	keys map[string]*keyWriter
}

type keyWriter struct {
	mu      sync.Mutex
	written uint64
}

// NewConversationLog tạo ConversationLog trên một Store
func NewConversationLog(store Store) *ConversationLog {
	return &ConversationLog{
		store: store,
		keys:  make(map[string]*keyWriter),
	}
}

func (l *ConversationLog) writer(key string) *keyWriter {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.keys[key]
	if !ok {
		w = &keyWriter{}
		l.keys[key] = w
	}
	return w
}

// NextVersion cấp version mới cho một lần thay đổi danh sách.
// Gọi tại thời điểm thay đổi (trong critical section của người gọi), không phải lúc ghi.
func (l *ConversationLog) NextVersion() uint64 {
	return l.version.Add(1)
}

// Load đọc hội thoại của user, key chưa có = danh sách rỗng
func (l *ConversationLog) Load(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	key := MessagesKey(userID)
	w := l.writer(key)

	// chờ lần ghi đang chạy (nếu có) để không đọc bản cũ
	w.mu.Lock()
	defer w.mu.Unlock()

	msgs := []models.ChatMessage{}
	if _, err := GetJSON(ctx, l.store, key, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Save ghi toàn bộ danh sách với version cho trước.
// Trả về false nếu đã có bản mới hơn được ghi (bản này bị bỏ qua).
func (l *ConversationLog) Save(ctx context.Context, userID string, version uint64, msgs []models.ChatMessage) (bool, error) {
	key := MessagesKey(userID)
	w := l.writer(key)

	w.mu.Lock()
	defer w.mu.Unlock()

	if version <= w.written {
		return false, nil
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	if err := SetJSON(ctx, l.store, key, msgs); err != nil {
		return false, err
	}
	w.written = version
	return true, nil
}
