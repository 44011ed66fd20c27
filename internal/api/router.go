package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/commons-game/internal/middleware"
	"github.com/wfunc/commons-game/internal/service"
	ws "github.com/wfunc/commons-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	authHandler    *AuthHandler
	gameHandler    *GameHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, hub *ws.Hub, svcConfig *service.Config, log *zap.Logger) *Router {
	if svcConfig == nil {
		svcConfig = service.DefaultConfig()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	notifier := ws.NewNotifier(hub, log)
	services := service.NewServices(db, svcConfig, notifier, log)

	r := &Router{
		engine:         engine,
		db:             db,
		services:       services,
		authHandler:    NewAuthHandler(services.Auth, log),
		gameHandler:    NewGameHandler(services.Game, log),
		wsHandler:      NewWebSocketHandler(hub, log),
		authMiddleware: middleware.NewAuthMiddleware(services.Auth, log),
		log:            log,
	}

	r.setupRoutes()
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 文档路由
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// WebSocket连接（令牌走查询参数）
	r.engine.GET("/ws", r.authMiddleware.RequireAuth(), r.wsHandler.GameWebSocket)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证路由（无需令牌）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)
		}

		// 游戏路由（需要令牌）
		game := v1.Group("")
		game.Use(r.authMiddleware.RequireAuth())
		{
			game.POST("/sessions", r.gameHandler.NewSession)
			game.POST("/sessions/dummy", r.gameHandler.StartDummySession)
			game.GET("/sessions", r.gameHandler.ListMySessions)
			game.GET("/sessions/:id", r.gameHandler.GetSession)
			game.GET("/sessions/:id/rounds", r.gameHandler.GetSessionRounds)
			game.GET("/sessions/:id/scores", r.gameHandler.GetScores)
			game.GET("/rounds/:id", r.gameHandler.GetRound)
			game.POST("/rounds/:id/close", r.gameHandler.CloseRound)
			game.POST("/moves", r.gameHandler.NewMove)
		}
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "请求的资源不存在",
			"path":    c.Request.URL.Path,
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接异常",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库Ping失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// Run 启动HTTP服务
func (r *Router) Run(addr string) error {
	r.log.Info("HTTP服务启动", zap.String("addr", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取gin引擎（测试用）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
