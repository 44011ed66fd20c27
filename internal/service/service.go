package service

import (
	"time"

	"github.com/wfunc/commons-game/internal/repository"
	"github.com/wfunc/commons-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	MinPlayers         int
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "your-secret-key-change-in-production",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		MinPlayers:         2,
	}
}

// Services 服务集合
type Services struct {
	Auth AuthService
	Game GameService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, config *Config, notifier Notifier, log *zap.Logger) *Services {
	// 初始化仓储
	playerRepo := repository.NewPlayerRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	// 初始化JWT管理器
	jwtManager := utils.NewJWTManager(
		config.JWTSecret,
		config.AccessTokenExpiry,
		config.RefreshTokenExpiry,
	)

	return &Services{
		Auth: NewAuthService(db, playerRepo, jwtManager, log),
		Game: NewGameService(db, ledgerRepo, notifier, config.MinPlayers, log),
	}
}
