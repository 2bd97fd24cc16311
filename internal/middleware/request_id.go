package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===========================================================================
// Request ID Middleware
// Mỗi request (kể cả websocket upgrade) có một ID để nối log HTTP với log
// của connection trong hub
// ===========================================================================

const (
	// RequestIDKey key để lưu request ID trong gin context
	RequestIDKey = "request_id"

	// RequestIDHeader tên header chứa request ID
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 128
)

// RequestID dùng X-Request-ID của client nếu hợp lệ, không thì sinh UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID lấy request ID từ gin context, "" nếu không có
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
