package docstore

import (
	"context"
	"fmt"
	"os"

	"garage-chat/internal/config"
	apperrors "garage-chat/internal/errors"

	"go.uber.org/zap"
)

// EmulatorHostEnv biến môi trường Firestore client dùng để trỏ tới emulator
const EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// emulatorProjectID project mặc định khi chạy emulator mà chưa cấu hình project_id
const emulatorProjectID = "demo-garage"

// Open chọn implementation theo cấu hình: emulator = Memory, còn lại Firestore.
// close luôn khác nil.
func Open(ctx context.Context, cfg config.FirebaseConfig, log *zap.Logger) (Store, func() error, error) {
	if cfg.Emulator {
		log.Warn("Using in-memory document store (firebase.emulator = true)")
		return NewMemory(), func() error { return nil }, nil
	}

	fs, err := NewFirestore(ctx, cfg.ProjectID, cfg.CredentialsFile, log)
	if err != nil {
		return nil, nil, err
	}
	return fs, fs.Close, nil
}

// OpenShared mở store mà process khác cũng ghi vào được (notifier, seed).
// Memory chỉ tồn tại trong một process, nên ở chế độ emulator bắt buộc có
// FIRESTORE_EMULATOR_HOST và dùng Firestore client trỏ tới emulator.
func OpenShared(ctx context.Context, cfg config.FirebaseConfig, log *zap.Logger) (Store, func() error, error) {
	if cfg.Emulator {
		host := os.Getenv(EmulatorHostEnv)
		if host == "" {
			return nil, nil, fmt.Errorf("firebase.emulator requires %s for a shared document store: %w",
				EmulatorHostEnv, apperrors.ErrInvalidInput)
		}
		cfg.Emulator = false
		if cfg.ProjectID == "" {
			cfg.ProjectID = emulatorProjectID
		}
		log.Info("Using Firestore emulator", zap.String("host", host), zap.String("project_id", cfg.ProjectID))
	}
	return Open(ctx, cfg, log)
}
