package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Logging Middleware
// Log mỗi HTTP request của relay. Websocket upgrade được log khi phiên kết thúc
// (handler chặn cho tới lúc client ngắt), kèm thời lượng phiên.
// ===========================================================================

// WebsocketKey handler đặt key này sau khi upgrade thành công
const WebsocketKey = "websocket"

// MarkWebsocket đánh dấu request đã được upgrade (status của gin không còn là 101 sau hijack)
func MarkWebsocket(c *gin.Context) {
	c.Set(WebsocketKey, true)
}

// Logging middleware log thông tin mỗi request
// - >= 500: Error
// - >= 400: Warn
// - health check: Debug
// - còn lại: Info
func Logging(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.GetBool(WebsocketKey):
			logger.Info("websocket session ended", fields...)
		case statusCode >= 500:
			logger.Error("request completed", fields...)
		case statusCode >= 400:
			logger.Warn("request completed", fields...)
		case path == "/health":
			logger.Debug("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}
