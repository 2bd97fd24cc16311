package appstate

import (
	"sync"

	"garage-chat/internal/models"
)

// ===========================================================================
// Store
// Giữ State hiện tại, áp dụng Action qua Reduce và báo cho subscribers.
// Subscriber được gọi ngoài lock nên có thể Dispatch tiếp từ bên trong.
// ===========================================================================

// Listener nhận State sau khi áp dụng action
type Listener func(s State, a Action)

type subscription struct {
	id int
	fn Listener
}

// Store container của State
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   []subscription
	nextID int
}

// NewStore tạo store với state ban đầu
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State trả về State hiện tại
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch áp dụng action và gọi subscribers theo thứ tự đăng ký
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next, a)
	}
	return next
}

// Subscribe đăng ký listener, trả về hàm huỷ đăng ký
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// CurrentUser user đang đăng nhập, nil nếu chưa
func (s *Store) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.UserLogin == nil {
		return nil
	}
	u := *s.state.UserLogin
	return &u
}
