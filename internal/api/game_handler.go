package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/commons-game/internal/errors"
	"github.com/wfunc/commons-game/internal/middleware"
	"github.com/wfunc/commons-game/internal/models"
	"github.com/wfunc/commons-game/internal/service"
	"go.uber.org/zap"
)

// GameHandler 游戏处理器
type GameHandler struct {
	gameService service.GameService
	logger      *zap.Logger
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(gameService service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		logger:      logger,
	}
}

// NewSessionRequest 创建会话请求
type NewSessionRequest struct {
	Params  models.GameParams `json:"params"`
	Players []string          `json:"players" binding:"required,min=1"`
}

// DummySessionRequest 创建演示会话请求
type DummySessionRequest struct {
	Players []string `json:"players" binding:"required,min=1"`
}

// NewMoveRequest 提交移动请求
type NewMoveRequest struct {
	RoundID   string `json:"round_id" binding:"required"`
	Resources int64  `json:"resources" binding:"min=0"`
}

// MoveResponse 移动提交响应
type MoveResponse struct {
	MoveID string `json:"move_id"`
}

// caller 获取当前认证玩家的用户名
func (h *GameHandler) caller(c *gin.Context) (string, bool) {
	username, ok := middleware.GetUsername(c)
	if !ok || username == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    int(apperrors.ErrAuthentication),
			Message: "未认证的请求",
		})
		return "", false
	}
	return username, true
}

// NewSession 创建游戏会话
// @Summary 创建游戏会话
// @Description 以指定参数和玩家列表开启一局游戏，同时创建第0回合
// @Tags 游戏
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NewSessionRequest true "会话参数"
// @Success 201 {object} service.SessionBootstrap
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/sessions [post]
func (h *GameHandler) NewSession(c *gin.Context) {
	owner, ok := h.caller(c)
	if !ok {
		return
	}

	var req NewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	boot, err := h.gameService.NewSession(c.Request.Context(), owner, req.Params, req.Players)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("会话已创建",
		zap.String("owner", owner),
		zap.String("session_id", boot.SessionID))
	c.JSON(http.StatusCreated, boot)
}

// StartDummySession 创建演示会话
// @Summary 创建演示会话
// @Description 使用默认参数开启一局游戏，便于快速联调
// @Tags 游戏
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DummySessionRequest true "玩家列表"
// @Success 201 {object} service.SessionBootstrap
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/sessions/dummy [post]
func (h *GameHandler) StartDummySession(c *gin.Context) {
	owner, ok := h.caller(c)
	if !ok {
		return
	}

	var req DummySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	boot, err := h.gameService.StartDummySession(c.Request.Context(), owner, req.Players)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, boot)
}

// ListMySessions 列出我参与的会话
// @Summary 我的会话列表
// @Tags 游戏
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.SessionView
// @Router /api/v1/sessions [get]
func (h *GameHandler) ListMySessions(c *gin.Context) {
	owner, ok := h.caller(c)
	if !ok {
		return
	}

	sessions, err := h.gameService.ListMySessions(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetSession 查询会话
// @Summary 查询会话
// @Description 返回会话的最新版本（终局后状态为finished或lost）
// @Tags 游戏
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} service.SessionView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *GameHandler) GetSession(c *gin.Context) {
	view, err := h.gameService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetSessionRounds 查询会话的回合链
// @Summary 会话回合列表
// @Description 按回合号升序返回会话的全部回合
// @Tags 游戏
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {array} service.RoundView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/rounds [get]
func (h *GameHandler) GetSessionRounds(c *gin.Context) {
	rounds, err := h.gameService.GetSessionRounds(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rounds)
}

// GetScores 查询终局得分
// @Summary 终局得分
// @Tags 游戏
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} service.ScoresView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/scores [get]
func (h *GameHandler) GetScores(c *gin.Context) {
	scores, err := h.gameService.GetScores(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scores)
}

// GetRound 查询回合
// @Summary 查询回合
// @Tags 游戏
// @Produce json
// @Security BearerAuth
// @Param id path string true "回合ID"
// @Success 200 {object} service.RoundView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/rounds/{id} [get]
func (h *GameHandler) GetRound(c *gin.Context) {
	round, err := h.gameService.GetRound(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, round)
}

// NewMove 提交本回合的资源消耗
// @Summary 提交移动
// @Description 记录玩家在指定回合消耗的资源量，同一回合只能提交一次
// @Tags 游戏
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NewMoveRequest true "移动内容"
// @Success 201 {object} MoveResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/moves [post]
func (h *GameHandler) NewMove(c *gin.Context) {
	owner, ok := h.caller(c)
	if !ok {
		return
	}

	var req NewMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	moveID, err := h.gameService.NewMove(c.Request.Context(), owner, req.RoundID, req.Resources)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("移动已提交",
		zap.String("owner", owner),
		zap.String("round_id", req.RoundID),
		zap.Int64("resources", req.Resources))
	c.JSON(http.StatusCreated, MoveResponse{MoveID: moveID})
}

// CloseRound 尝试关闭回合
// @Summary 关闭回合
// @Description 所有玩家提交后结算本回合；未齐时返回202，客户端稍后重试
// @Tags 游戏
// @Produce json
// @Security BearerAuth
// @Param id path string true "回合ID"
// @Success 200 {object} service.CloseResult
// @Success 202 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/rounds/{id}/close [post]
func (h *GameHandler) CloseRound(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	result, err := h.gameService.TryToCloseRound(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("回合已关闭",
		zap.String("caller", caller),
		zap.String("round_id", c.Param("id")),
		zap.String("status", string(result.Status)))
	c.JSON(http.StatusOK, result)
}
