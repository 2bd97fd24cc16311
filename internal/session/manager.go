package session

import (
	"context"
	"fmt"
	"strings"

	"garage-chat/internal/appstate"
	"garage-chat/internal/docstore"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/models"
	"garage-chat/internal/storage"

	"go.uber.org/zap"
)

// ===========================================================================
// Session
// Đăng nhập / khôi phục / đăng xuất. Mật khẩu do Firebase Auth kiểm tra,
// ở đây chỉ tra hồ sơ trong collection users theo email.
// ===========================================================================

// Manager quản lý user đang đăng nhập trên thiết bị
type Manager struct {
	docs  docstore.Store
	local storage.Store
	app   *appstate.Store
	log   *zap.Logger
}

func NewManager(docs docstore.Store, local storage.Store, app *appstate.Store, log *zap.Logger) *Manager {
	return &Manager{
		docs:  docs,
		local: local,
		app:   app,
		log:   log.Named("session"),
	}
}

// Login tìm hồ sơ theo email, lưu xuống thiết bị và phát LoginSucceeded
func (m *Manager) Login(ctx context.Context, email string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, fmt.Errorf("login: empty email: %w", apperrors.ErrInvalidInput)
	}

	docs, err := m.docs.Find(ctx, docstore.Collection(models.UsersCollection).Where("email", docstore.OpEqual, email))
	if err != nil {
		return models.User{}, fmt.Errorf("login %s: %w", email, err)
	}
	if len(docs) == 0 {
		return models.User{}, fmt.Errorf("login %s: %w", email, apperrors.ErrNotFound)
	}

	user, err := models.ParseUser(docs[0].ID, docs[0].Data)
	if err != nil {
		return models.User{}, fmt.Errorf("login %s: %v: %w", email, err, apperrors.ErrInvalidInput)
	}

	if err := storage.SetJSON(ctx, m.local, storage.UserKey, user); err != nil {
		// vẫn đăng nhập được, chỉ mất khả năng khôi phục lần sau
		m.log.Warn("Persist user failed", zap.String("uid", user.UID), zap.Error(err))
	}

	m.app.Dispatch(appstate.LoginSucceeded{User: user})
	m.log.Info("Logged in", zap.String("uid", user.UID), zap.Bool("staff", user.IsStaff()))
	return user, nil
}

// Restore khôi phục user đã lưu, false nếu chưa có ai đăng nhập
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	var user models.User
	ok, err := storage.GetJSON(ctx, m.local, storage.UserKey, &user)
	if err != nil {
		m.log.Warn("Restore user failed", zap.Error(err))
		return false, err
	}
	if !ok || user.UID == "" {
		return false, nil
	}

	m.app.Dispatch(appstate.LoginSucceeded{User: user})
	m.log.Info("Session restored", zap.String("uid", user.UID))
	return true, nil
}

// Logout xóa user đã lưu và phát LoggedOut. Hội thoại đã lưu giữ nguyên.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.local.Remove(ctx, storage.UserKey); err != nil {
		m.log.Warn("Remove stored user failed", zap.Error(err))
	}
	m.app.Dispatch(appstate.LoggedOut{})
	return nil
}

// RegisterDeviceToken lưu FCM token trên thiết bị và ghi vào hồ sơ user
func (m *Manager) RegisterDeviceToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("register device token: %w", apperrors.ErrInvalidInput)
	}
	if err := m.local.Set(ctx, storage.FCMTokenKey, token); err != nil {
		m.log.Warn("Persist device token failed", zap.Error(err))
	}

	user := m.app.CurrentUser()
	if user == nil {
		return fmt.Errorf("register device token: %w", apperrors.ErrNotLoggedIn)
	}
	if err := m.docs.Merge(ctx, models.UsersCollection, user.UID, map[string]interface{}{"fcmToken": token}); err != nil {
		return fmt.Errorf("register device token for %s: %w", user.UID, err)
	}
	return nil
}

// DeviceToken token đã lưu trên thiết bị, "" nếu chưa có
func (m *Manager) DeviceToken(ctx context.Context) (string, error) {
	token, _, err := m.local.Get(ctx, storage.FCMTokenKey)
	return token, err
}
