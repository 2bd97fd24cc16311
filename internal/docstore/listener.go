package docstore

import (
	"context"
	"sync"
)

// listener bảo đảm không callback nào chạy sau khi unsubscribe trả về.
// mu được giữ trong suốt một lần callback.
type listener struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

func newListener(parent context.Context) *listener {
	ctx, cancel := context.WithCancel(parent)
	return &listener{
		ctx:    ctx,
		cancel: cancel,
	}
}

// deliver chạy fn nếu listener còn sống
func (l *listener) deliver(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped || l.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

// unsubscribe dừng listener, chờ callback đang chạy (nếu có) kết thúc
func (l *listener) unsubscribe() {
	l.cancel()

	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}
