package middleware

import (
	"runtime/debug"

	"garage-chat/internal/dto"
	apperrors "garage-chat/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Recovery Middleware
// Panic trong một handler (kể cả phiên websocket) không được làm sập relay
// ===========================================================================

// Recovery log panic kèm stack trace rồi trả 500 nếu response chưa được ghi
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
				)

				// Connection đã hijack cho websocket thì không ghi được response nữa
				if c.Writer.Written() {
					c.Abort()
					return
				}
				RespondError(c, apperrors.New(apperrors.ErrInternal, "An internal error occurred"))
			}
		}()

		c.Next()
	}
}

// RespondError ghi lỗi theo format dto.Response, status lấy từ sentinel trong error chain
func RespondError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.New(err, "")
	}
	c.AbortWithStatusJSON(appErr.StatusCode, dto.Error(appErr.Code, appErr.Error()))
}
