package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/commons-game/internal/middleware"
	ws "github.com/wfunc/commons-game/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 在生产环境中应该检查Origin
				return true
			},
		},
		logger: logger,
	}
}

// GameWebSocket 游戏信号推送连接
// 浏览器无法为Upgrade请求设置请求头，令牌通过?token=查询参数传递
func (h *WebSocketHandler) GameWebSocket(c *gin.Context) {
	playerID, ok := middleware.GetPlayerID(c)
	username, hasName := middleware.GetUsername(c)
	if !ok || !hasName {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "WebSocket连接需要认证",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.String("username", username),
			zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, playerID, username)
	h.hub.Register(client)

	h.logger.Info("WebSocket连接建立",
		zap.String("username", username),
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()))

	go client.WritePump()
	go client.ReadPump()
}
