package dto

// ===========================================================================
// Response DTOs
// Format chuẩn cho các HTTP endpoint của relay (health, ping, stats)
// ===========================================================================

// Response cấu trúc response chuẩn cho tất cả API
type Response struct {
	// Success request thành công hay không
	Success bool `json:"success"`

	// Data dữ liệu trả về (nếu thành công)
	Data interface{} `json:"data,omitempty"`

	// Error thông tin lỗi (nếu thất bại)
	Error *APIError `json:"error,omitempty"`
}

// APIError cấu trúc lỗi chuẩn
type APIError struct {
	// Code mã lỗi (VD: "NOT_FOUND", "INVALID_INPUT")
	Code string `json:"code"`

	// Message thông báo lỗi chi tiết
	Message string `json:"message"`
}

// RelayStats số liệu của relay tại thời điểm gọi
type RelayStats struct {
	ConnectedClients int    `json:"connected_clients"`
	RelayedMessages  uint64 `json:"relayed_messages"`
	DroppedClients   uint64 `json:"dropped_clients"`
}

// Success tạo response thành công
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// Error tạo response lỗi
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}
}
