package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/qs3c/medquiz_go_server/internal/pkg/jwt"
	"github.com/qs3c/medquiz_go_server/internal/pkg/ws"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type WebSocketHandler struct {
	hub         *ws.Hub
	authService *service.AuthService
	jwtSecret   string
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler Origin 校验复用 CORS 的允许列表
func NewWebSocketHandler(hub *ws.Hub, authService *service.AuthService, jwtSecret string, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		jwtSecret:   jwtSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// originAllowed 无 Origin 头的非浏览器客户端直接放行
func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == origin {
			return true
		}
	}
	return false
}

// Handle 管理端 WebSocket 连接，订阅变更事件实时推送
// GET /api/v1/admin/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := jwt.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// 只有管理员可以建立连接
	isAdmin, err := h.authService.IsAdmin(claims.UserID)
	if err != nil || !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &ws.Client{
		UserID: claims.UserID,
		Conn:   conn,
	}

	h.hub.Register(client)

	// 保持连接，读取消息（主要用于检测断开）
	go func() {
		defer func() {
			h.hub.Unregister(client)
			conn.Close()
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}
