package errors

import (
	"errors"
	"net/http"
)

// ===========================================================================
// Custom Errors
// Các lỗi chuẩn của relay, storage, docstore và client sync.
// Hầu hết lỗi được log tại chỗ và bỏ qua (degrade im lặng), chỉ HTTP handlers
// mới map sang status code.
// ===========================================================================

// Sentinel errors - dùng với errors.Is()
var (
	// ErrNotFound document / key không tồn tại
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput dữ liệu đầu vào không hợp lệ (index ngoài phạm vi, payload hỏng)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotLoggedIn thao tác cần user đăng nhập
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrAlreadyConnected client đã có một connection tới relay
	ErrAlreadyConnected = errors.New("already connected")

	// ErrConnectionClosed connection tới relay đã đóng
	ErrConnectionClosed = errors.New("connection closed")

	// ErrCancelled người dùng huỷ thao tác (VD: không xác nhận xóa tin nhắn)
	ErrCancelled = errors.New("cancelled by user")

	// ErrInternal lỗi nội bộ
	ErrInternal = errors.New("internal server error")

	// ErrExternal lỗi từ service bên ngoài (Firestore, FCM, Centrifugo)
	ErrExternal = errors.New("external service error")

	// ErrTimeout request timeout
	ErrTimeout = errors.New("timeout")

	// ErrUnavailable relay đang dừng, không nhận connection mới
	ErrUnavailable = errors.New("service unavailable")
)

// ===========================================================================
// AppError
// ===========================================================================

// AppError cấu trúc lỗi chi tiết trả về cho HTTP client
type AppError struct {
	// Err lỗi gốc (wrapped error)
	Err error

	// Message thông báo lỗi cho user
	Message string

	// Code mã lỗi (VD: "NOT_FOUND")
	Code string

	// StatusCode HTTP status code
	StatusCode int
}

// Error implement error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap trả về wrapped error (cho errors.Is/As)
func (e *AppError) Unwrap() error {
	return e.Err
}

// New tạo AppError mới từ sentinel error
func New(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: StatusCode(err),
		Code:       ErrorCode(err),
	}
}

// StatusCode trả về HTTP status code tương ứng với error
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrExternal):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode trả về error code string tương ứng với error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrNotLoggedIn):
		return "NOT_LOGGED_IN"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrExternal):
		return "EXTERNAL_ERROR"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
