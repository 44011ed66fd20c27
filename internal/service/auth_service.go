package service

import (
	"context"

	apperrors "github.com/wfunc/commons-game/internal/errors"
	"github.com/wfunc/commons-game/internal/models"
	"github.com/wfunc/commons-game/internal/repository"
	"github.com/wfunc/commons-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// authService 认证服务实现
type authService struct {
	db         *gorm.DB
	playerRepo repository.PlayerRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	playerRepo repository.PlayerRepository,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:         db,
		playerRepo: playerRepo,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 玩家注册
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if len(req.Username) < 3 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "用户名至少3个字符")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "密码至少6个字符")
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "两次输入的密码不一致")
	}

	exists, err := s.playerRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "用户名已存在")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "密码加密失败")
	}

	player := &models.Player{
		Username: req.Username,
		Nickname: req.Nickname,
		Password: hashedPassword,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		s.log.Error("创建玩家失败", zap.Error(err), zap.String("username", req.Username))
		return nil, err
	}

	s.log.Info("玩家已注册",
		zap.Uint("player_id", player.ID),
		zap.String("username", player.Username))

	return s.issueTokens(player)
}

// Login 玩家登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	player, err := s.playerRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(req.Password, player.Password)
	if err != nil || !ok {
		return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
	}

	if !player.CanLogin() {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "账号不可用")
	}

	if err := s.playerRepo.UpdateLastLogin(ctx, player.ID, req.IP); err != nil {
		// 登录信息更新失败不阻断登录
		s.log.Warn("更新登录信息失败", zap.Error(err), zap.Uint("player_id", player.ID))
	}

	return s.issueTokens(player)
}

// RefreshToken 用刷新令牌换取新令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTokenInvalid, "刷新令牌无效")
	}
	if claims.TokenType != "refresh" {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "不是刷新令牌")
	}

	player, err := s.playerRepo.FindByID(ctx, claims.PlayerID)
	if err != nil {
		return nil, err
	}
	if !player.CanLogin() {
		return nil, apperrors.New(apperrors.ErrPermissionDenied, "账号不可用")
	}

	return s.issueTokens(player)
}

// ValidateToken 验证访问令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTokenInvalid, "令牌无效")
	}
	if claims.TokenType != "access" {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "不是访问令牌")
	}
	return claims, nil
}

// issueTokens 签发访问令牌和刷新令牌
func (s *authService) issueTokens(player *models.Player) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(player.ID, player.Username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成访问令牌失败")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(player.ID, player.Username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成刷新令牌失败")
	}

	return &AuthResponse{
		Player:       player,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}
