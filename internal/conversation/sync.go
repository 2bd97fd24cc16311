package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"garage-chat/internal/appstate"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/models"
	"garage-chat/internal/notify"
	"garage-chat/internal/storage"

	"go.uber.org/zap"
)

// ===========================================================================
// Sync (Client Conversation Sync)
// Giữ danh sách tin nhắn của user đang đăng nhập, đồng bộ với relay và
// lưu xuống storage theo key messages_<uid>. Mọi lỗi transport / storage
// chỉ được log, chat tiếp tục chạy ở chế độ suy giảm.
// ===========================================================================

// NewMessageTitle tiêu đề thông báo khi nhận tin nhắn
const NewMessageTitle = "Tin nhắn mới"

// Confirm hỏi người dùng trước khi xóa, true = đồng ý
type Confirm func(msg models.ChatMessage) bool

// Sync trạng thái chat phía client
type Sync struct {
	// mu bảo vệ user, messages, conn, gen
	mu       sync.Mutex
	user     *models.User
	messages []models.ChatMessage
	conn     Transport

	// gen tăng mỗi lần Connect / Close; callback của connection cũ bị bỏ qua
	gen uint64

	// recvMu giữ trong suốt một lần xử lý receive, Close chờ nó.
	// Thứ tự lock: recvMu, sendMu, mu.
	recvMu sync.Mutex

	// sendMu giữ thứ tự emit trùng thứ tự append
	sendMu sync.Mutex

	log      *storage.ConversationLog
	dial     Dialer
	notifier notify.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewSync tạo Sync. notifier nil = không hiện thông báo
func NewSync(log *storage.ConversationLog, dial Dialer, notifier notify.Dispatcher, logger *zap.Logger) *Sync {
	return &Sync{
		log:      log,
		dial:     dial,
		notifier: notifier,
		logger:   logger.Named("conversation"),
		now:      time.Now,
	}
}

// Connect mở connection tới relay cho user hiện tại
func (s *Sync) Connect(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return fmt.Errorf("connect: %w", apperrors.ErrNotLoggedIn)
	}
	if s.conn != nil {
		return fmt.Errorf("connect: %w", apperrors.ErrAlreadyConnected)
	}

	s.gen++
	gen := s.gen
	conn, err := s.dial(ctx, url, func(msg models.ChatMessage) {
		s.receive(gen, msg)
	})
	if err != nil {
		s.logger.Warn("Relay unavailable, chat disabled", zap.String("url", url), zap.Error(err))
		return err
	}
	s.conn = conn
	return nil
}

// Connected còn connection tới relay hay không
func (s *Sync) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Close đóng connection. Sau khi trả về, không còn receive nào được xử lý.
// Không gọi từ bên trong ReceiveFunc.
func (s *Sync) Close() error {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.gen++
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		s.logger.Debug("Close relay connection", zap.Error(err))
	}
	return nil
}

func (s *Sync) receive(gen uint64, msg models.ChatMessage) {
	if msg.IsBlank() {
		return
	}

	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	s.mu.Lock()
	// sau Logout không còn user để gán tin nhắn, kể cả khi connection chưa đóng
	if s.gen != gen || s.conn == nil || s.user == nil {
		s.mu.Unlock()
		return
	}
	// isUser chỉ true khi relay gán rõ ràng true (thiếu field = false)
	s.messages = append(s.messages, msg)
	uid, version, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if s.notifier != nil {
		n := notify.Notification{
			Title: NewMessageTitle,
			Body:  msg.Text,
			Data:  map[string]string{"userId": msg.UserID, "role": string(msg.Role())},
		}
		if err := s.notifier.Notify(context.Background(), n); err != nil {
			s.logger.Warn("Notify new message failed", zap.Error(err))
		}
	}

	s.persist(context.Background(), uid, version, snapshot)
}

// Send gửi tin nhắn của user hiện tại. Chuỗi rỗng / chỉ có khoảng trắng bị bỏ qua.
func (s *Sync) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return fmt.Errorf("send: %w", apperrors.ErrNotLoggedIn)
	}
	msg := models.NewOutgoingMessage(text, s.user, s.now())
	conn := s.conn
	s.messages = append(s.messages, msg)
	uid, version, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if conn == nil {
		s.logger.Warn("Not connected to relay, message kept locally")
	} else if err := conn.Emit(ctx, msg); err != nil {
		s.logger.Warn("Emit send_message failed", zap.Error(err))
	}

	s.persist(ctx, uid, version, snapshot)
	return nil
}

// LoadForUser đặt user hiện tại và thay danh sách bằng bản đã lưu của user đó.
// Receive và Send chờ cho tới khi load xong để không ghi đè lịch sử chưa đọc.
func (s *Sync) LoadForUser(ctx context.Context, user models.User) error {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	msgs, err := s.log.Load(ctx, user.UID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	if err != nil {
		s.messages = nil
		s.logger.Warn("Load conversation failed", zap.String("uid", user.UID), zap.Error(err))
		return err
	}
	s.messages = msgs
	return nil
}

// Logout xóa danh sách trong bộ nhớ và user hiện tại; bản đã lưu giữ nguyên
func (s *Sync) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.messages = nil
}

// DeleteAt xóa tin nhắn tại index sau khi confirm đồng ý, rồi lưu lại
func (s *Sync) DeleteAt(ctx context.Context, index int, confirm Confirm) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.messages) {
		n := len(s.messages)
		s.mu.Unlock()
		return fmt.Errorf("delete at %d of %d: %w", index, n, apperrors.ErrInvalidInput)
	}
	target := s.messages[index]
	s.mu.Unlock()

	if confirm == nil || !confirm(target) {
		return apperrors.ErrCancelled
	}

	s.mu.Lock()
	if index >= len(s.messages) || s.messages[index] != target {
		s.mu.Unlock()
		return fmt.Errorf("delete at %d: list changed while confirming: %w", index, apperrors.ErrInvalidInput)
	}
	msgs := make([]models.ChatMessage, 0, len(s.messages)-1)
	msgs = append(msgs, s.messages[:index]...)
	msgs = append(msgs, s.messages[index+1:]...)
	s.messages = msgs
	uid, version, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, uid, version, snapshot)
	return nil
}

// Messages bản sao danh sách hiện tại
func (s *Sync) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

// Follow bám theo đăng nhập / đăng xuất trong app state
func (s *Sync) Follow(ctx context.Context, store *appstate.Store) func() {
	if u := store.CurrentUser(); u != nil {
		_ = s.LoadForUser(ctx, *u)
	}

	return store.Subscribe(func(state appstate.State, a appstate.Action) {
		switch act := a.(type) {
		case appstate.LoginSucceeded:
			_ = s.LoadForUser(ctx, act.User)
		case appstate.LoggedOut:
			s.Close()
			s.Logout()
		}
	})
}

// snapshotLocked lấy version mới và bản sao danh sách để lưu ngoài lock
func (s *Sync) snapshotLocked() (string, uint64, []models.ChatMessage) {
	uid := ""
	if s.user != nil {
		uid = s.user.UID
	}
	return uid, s.log.NextVersion(), append([]models.ChatMessage(nil), s.messages...)
}

func (s *Sync) persist(ctx context.Context, uid string, version uint64, msgs []models.ChatMessage) {
	if uid == "" {
		return
	}
	written, err := s.log.Save(ctx, uid, version, msgs)
	if err != nil {
		s.logger.Warn("Persist conversation failed", zap.String("uid", uid), zap.Error(err))
		return
	}
	if !written {
		s.logger.Debug("Stale conversation write skipped", zap.String("uid", uid), zap.Uint64("version", version))
	}
}
