package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/commons-game/internal/service"
	"go.uber.org/zap"
)

// AuthMiddleware 认证中间件
type AuthMiddleware struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "缺少认证令牌",
			})
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug("令牌验证失败",
				zap.String("ip", c.ClientIP()),
				zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "INVALID_TOKEN",
				"message": "认证令牌无效或已过期",
			})
			c.Abort()
			return
		}

		// 将玩家信息存入上下文
		c.Set("playerID", claims.PlayerID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// OptionalAuth 可选认证的中间件，令牌有效时注入玩家信息，无令牌时放行
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token != "" {
			if claims, err := m.authService.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("playerID", claims.PlayerID)
				c.Set("username", claims.Username)
			}
		}
		c.Next()
	}
}

// extractToken 从请求中提取令牌
// 顺序：Authorization头 > X-Access-Token头 > Cookie > 查询参数
// 查询参数用于WebSocket连接（浏览器无法为Upgrade请求设置自定义头）
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	// 1. 从Authorization头获取
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	// 2. 从X-Access-Token头获取
	token := c.GetHeader("X-Access-Token")
	if token != "" {
		return token
	}

	// 3. 从Cookie获取
	token, _ = c.Cookie("access_token")
	if token != "" {
		return token
	}

	// 4. 从查询参数获取
	return c.Query("token")
}

// GetPlayerID 从上下文获取玩家ID
func GetPlayerID(c *gin.Context) (uint, bool) {
	playerID, exists := c.Get("playerID")
	if !exists {
		return 0, false
	}
	id, ok := playerID.(uint)
	return id, ok
}

// GetUsername 从上下文获取用户名
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get("username")
	if !exists {
		return "", false
	}
	name, ok := username.(string)
	return name, ok
}
