package relay

import (
	"sync"
)

// ===========================================================================
// Registry quản lý các connection đang mở
// Chỉ hub loop ghi vào registry; HTTP handlers (stats, health) chỉ đọc
// ===========================================================================

// Registry map connection id -> Client
type Registry struct {
	// mu bảo vệ clients khỏi concurrent access
	mu sync.RWMutex

	clients map[string]*Client
}

// NewRegistry tạo một Registry mới
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Add đăng ký client, ghi đè nếu id đã tồn tại
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID()] = c
}

// Remove xóa client, trả về false nếu client không (còn) trong registry
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.clients[c.ID()]
	if !ok || existing != c {
		return false
	}
	delete(r.clients, c.ID())
	return true
}

// Get lấy client theo id
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	return c, ok
}

// Others trả về snapshot các client khác exceptID
func (r *Registry) Others(exceptID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		if id != exceptID {
			out = append(out, c)
		}
	}
	return out
}

// All trả về snapshot toàn bộ client
func (r *Registry) All() []*Client {
	return r.Others("")
}

// Count trả về số connection đang mở
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}
