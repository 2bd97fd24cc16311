package relay

import (
	"net/http"

	"garage-chat/internal/config"
	"garage-chat/internal/dto"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ===========================================================================
// Handler
// Upgrade websocket và các endpoint giám sát của relay
// ===========================================================================

// Handler gin handlers của relay
type Handler struct {
	hub      *Hub
	cfg      config.RelayConfig
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler tạo handler, origin được kiểm tra theo cfg.AllowedOrigins
func NewHandler(hub *Hub, cfg config.RelayConfig, log *zap.Logger) *Handler {
	h := &Handler{
		hub: hub,
		cfg: cfg,
		log: log.Named("relay"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.AllowsOrigin(cfg.AllowedOrigins, origin)
		},
	}
	return h
}

// RegisterRoutes đăng ký websocket endpoint lên router gốc và stats lên api group
func (h *Handler) RegisterRoutes(router gin.IRouter, api *gin.RouterGroup) {
	router.GET(h.cfg.Path, h.Connect)
	api.GET("/relay/stats", h.Stats)
}

// Connect upgrade connection và giữ tới khi client ngắt
// GET /ws
func (h *Handler) Connect(c *gin.Context) {
	if h.hub.Stopped() {
		middleware.RespondError(c, apperrors.New(apperrors.ErrUnavailable, "relay is shutting down"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade đã tự ghi response lỗi
		h.log.Warn("WebSocket upgrade failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		return
	}
	middleware.MarkWebsocket(c)

	client := newClient(uuid.NewString(), h.hub, conn, h.cfg, h.log)
	client.log.Debug("Upgraded", zap.String("request_id", middleware.GetRequestID(c)))

	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// Stats số liệu relay
// GET /api/v1/relay/stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Success(h.hub.Stats()))
}
