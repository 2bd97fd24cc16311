package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mock_dispatcher.go -package=mocks garage-chat/internal/notify Dispatcher

// ===========================================================================
// Notification
// Thông báo cục bộ (tin nhắn mới, lịch sửa chữa hoàn thành, lịch lái thử
// đã xác nhận) và push FCM. Lỗi gửi chỉ được log, không retry.
// ===========================================================================

// Notification nội dung một thông báo
type Notification struct {
	Title string
	Body  string

	// Data payload kèm theo (FCM data message)
	Data map[string]string
}

// Dispatcher gửi thông báo tới người dùng
type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// ===========================================================================
// LogDispatcher
// ===========================================================================

// LogDispatcher ghi thông báo ra log (notifier chạy không có thiết bị)
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.Named("notify")}
}

func (d *LogDispatcher) Notify(ctx context.Context, n Notification) error {
	d.log.Info("Notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.Any("data", n.Data),
	)
	return nil
}

// ===========================================================================
// WriterDispatcher
// ===========================================================================

// WriterDispatcher in thông báo ra terminal kèm tiếng chuông
type WriterDispatcher struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterDispatcher(w io.Writer) *WriterDispatcher {
	return &WriterDispatcher{w: w}
}

func (d *WriterDispatcher) Notify(ctx context.Context, n Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := fmt.Fprintf(d.w, "\a🔔 %s: %s\n", n.Title, n.Body)
	return err
}

// ===========================================================================
// Multi
// ===========================================================================

// Multi gửi tới nhiều dispatcher, trả về lỗi đầu tiên nhưng vẫn gửi hết
type Multi []Dispatcher

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var first error
	for _, d := range m {
		if err := d.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
