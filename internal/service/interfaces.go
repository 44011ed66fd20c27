package service

import (
	"context"

	"github.com/wfunc/commons-game/internal/models"
	"github.com/wfunc/commons-game/internal/utils"
)

// 推送信号类型
const (
	SignalGameStarted = "game_started"
	SignalNextRound   = "next_round"
	SignalGameOver    = "game_over"
)

// Signal 推送给玩家的游戏信号
type Signal struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	RoundID   string `json:"round_id,omitempty"`
	ScoresID  string `json:"scores_id,omitempty"`
}

// Notifier 玩家通知接口
// 尽力而为：不可达的玩家直接跳过，不影响调用方
type Notifier interface {
	NotifyPlayers(players []string, signal *Signal)
}

// GameService 游戏服务接口
type GameService interface {
	// 会话引导
	NewSession(ctx context.Context, owner string, params models.GameParams, players []string) (*SessionBootstrap, error)
	StartDummySession(ctx context.Context, owner string, players []string) (*SessionBootstrap, error)

	// 移动提交
	NewMove(ctx context.Context, owner string, roundID string, resources int64) (string, error)

	// 回合关闭
	TryToCloseRound(ctx context.Context, caller string, roundID string) (*CloseResult, error)

	// 查询
	ListMySessions(ctx context.Context, owner string) ([]*SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*SessionView, error)
	GetSessionRounds(ctx context.Context, sessionID string) ([]*RoundView, error)
	GetRound(ctx context.Context, roundID string) (*RoundView, error)
	GetScores(ctx context.Context, sessionID string) (*ScoresView, error)
}

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
}

// SessionBootstrap 会话引导结果
type SessionBootstrap struct {
	SessionID string `json:"session_id"`
	RoundID   string `json:"round_id"`
}

// CloseResult 回合关闭结果
type CloseResult struct {
	Status      models.SessionStatus `json:"status"`
	NextRoundID string               `json:"next_round_id,omitempty"`
	ScoresID    string               `json:"scores_id,omitempty"`
}

// Terminal 判断关闭是否进入终态
func (r *CloseResult) Terminal() bool {
	return r.Status.IsTerminal()
}

// SessionView 会话读取视图
type SessionView struct {
	ID      string              `json:"id"`
	Session *models.GameSession `json:"session"`
}

// RoundView 回合读取视图
type RoundView struct {
	ID    string            `json:"id"`
	Round *models.GameRound `json:"round"`
}

// ScoresView 终局得分读取视图
type ScoresView struct {
	ID     string             `json:"id"`
	Scores *models.GameScores `json:"scores"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=20"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	Nickname        string `json:"nickname"`
	IP              string `json:"-"` // 客户端IP，由handler设置
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	Player       *models.Player `json:"player"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int64          `json:"expires_in"`
	TokenType    string         `json:"token_type"`
}
