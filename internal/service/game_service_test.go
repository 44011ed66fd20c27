package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/commons-game/internal/errors"
	"github.com/wfunc/commons-game/internal/models"
	"github.com/wfunc/commons-game/internal/repository"
	"go.uber.org/zap"
)

// notifierSpy 记录全部推送，便于断言
type notifierSpy struct {
	mu      sync.Mutex
	players [][]string
	signals []*Signal
}

func (n *notifierSpy) NotifyPlayers(players []string, signal *Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.players = append(n.players, players)
	n.signals = append(n.signals, signal)
}

func (n *notifierSpy) last() *Signal {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.signals) == 0 {
		return nil
	}
	return n.signals[len(n.signals)-1]
}

func newTestGameService(t *testing.T) (GameService, repository.LedgerRepository, *notifierSpy) {
	db := repository.SetupTestDB()
	t.Cleanup(func() { repository.CleanupTestDB(db) })

	ledgerRepo := repository.NewLedgerRepository(db)
	spy := &notifierSpy{}
	svc := NewGameService(db, ledgerRepo, spy, 2, zap.NewNop())
	return svc, ledgerRepo, spy
}

func dummyParams() models.GameParams {
	return models.DefaultGameParams() // {1, 100, 3, 3, 2}
}

func TestNewSession_Bootstrap(t *testing.T) {
	svc, ledgerRepo, spy := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)
	require.NotEmpty(t, boot.SessionID)
	require.NotEmpty(t, boot.RoundID)

	// 会话记录
	var session models.GameSession
	require.NoError(t, ledgerRepo.Get(ctx, boot.SessionID, &session))
	assert.Equal(t, "alice", session.Owner)
	assert.Equal(t, models.SessionInProgress, session.Status)
	assert.Equal(t, []string{"alice", "bob"}, session.Players)

	// 第0回合：resources_left等于start_amount，统计为空
	var round models.GameRound
	require.NoError(t, ledgerRepo.Get(ctx, boot.RoundID, &round))
	assert.Equal(t, 0, round.RoundNum)
	assert.Equal(t, boot.SessionID, round.SessionID)
	assert.Equal(t, int64(100), round.ResourcesLeft)
	assert.Empty(t, round.PlayerStats)

	// 发现链接
	targets, err := ledgerRepo.ListTargets(ctx, "alice", models.TagMyGames)
	require.NoError(t, err)
	assert.Equal(t, []string{boot.SessionID}, targets)

	targets, err = ledgerRepo.ListTargets(ctx, boot.SessionID, models.TagGameRound)
	require.NoError(t, err)
	assert.Equal(t, []string{boot.RoundID}, targets)

	// 全部玩家收到开局信号
	last := spy.last()
	require.NotNil(t, last)
	assert.Equal(t, SignalGameStarted, last.Type)
	assert.Equal(t, boot.SessionID, last.SessionID)
	assert.Equal(t, boot.RoundID, last.RoundID)
}

func TestNewSession_Validation(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	// 玩家不足
	_, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotEnoughPlayers))

	// 玩家重复
	_, err = svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "alice"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	// 回合数非法
	params := dummyParams()
	params.NumRounds = 0
	_, err = svc.NewSession(ctx, "alice", params, []string{"alice", "bob"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidGameParams))

	// 初始资源非法
	params = dummyParams()
	params.StartAmount = -1
	_, err = svc.NewSession(ctx, "alice", params, []string{"alice", "bob"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidGameParams))
}

func TestStartDummySession(t *testing.T) {
	svc, ledgerRepo, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.StartDummySession(ctx, "alice", []string{"alice", "bob"})
	require.NoError(t, err)

	var session models.GameSession
	require.NoError(t, ledgerRepo.Get(ctx, boot.SessionID, &session))
	assert.Equal(t, models.DefaultGameParams(), session.Params)
}

func TestNewMove(t *testing.T) {
	svc, ledgerRepo, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	moveID, err := svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, moveID)

	var move models.GameMove
	require.NoError(t, ledgerRepo.Get(ctx, moveID, &move))
	assert.Equal(t, "alice", move.Owner)
	assert.Equal(t, boot.RoundID, move.RoundID)
	assert.Equal(t, int64(10), move.Resources)

	// 移动从回合链出
	targets, err := ledgerRepo.ListTargets(ctx, boot.RoundID, models.TagGameMove)
	require.NoError(t, err)
	assert.Equal(t, []string{moveID}, targets)
}

func TestNewMove_ConcurrentSubmitLosesAtConstraint(t *testing.T) {
	svc, ledgerRepo, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	// 竞争的提交者已占用(round, owner)但其移动尚未链出，
	// 此时读不到alice的任何移动，约束仍然拦下第二次提交
	require.NoError(t, ledgerRepo.ClaimMove(ctx, boot.RoundID, "alice"))

	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateMove))

	// 失败的提交不留下任何链接
	targets, err := ledgerRepo.ListTargets(ctx, boot.RoundID, models.TagGameMove)
	require.NoError(t, err)
	assert.Empty(t, targets)

	// bob不受alice的占用影响
	_, err = svc.NewMove(ctx, "bob", boot.RoundID, 5)
	require.NoError(t, err)
}

func TestNewMove_Validation(t *testing.T) {
	svc, ledgerRepo, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	// 负消耗
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, -1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))

	// 回合不存在
	_, err = svc.NewMove(ctx, "alice", "no-such-round", 10)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	// 非会话玩家
	_, err = svc.NewMove(ctx, "mallory", boot.RoundID, 10)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotAPlayer))

	// 重复提交
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 20)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateMove))

	// 重复提交不产生新链接
	targets, err := ledgerRepo.ListTargets(ctx, boot.RoundID, models.TagGameMove)
	require.NoError(t, err)
	assert.Len(t, targets, 1)
}

func TestTryToCloseRound_StillWaiting(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	// 没有任何移动
	_, err = svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrStillWaiting))
	assert.True(t, apperrors.IsRetryable(err))

	// 只有一个玩家提交
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.NoError(t, err)
	_, err = svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrStillWaiting))
}

func TestTryToCloseRound_Continue(t *testing.T) {
	svc, ledgerRepo, spy := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "bob", boot.RoundID, 10)
	require.NoError(t, err)

	result, err := svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, result.Status)
	assert.False(t, result.Terminal())
	require.NotEmpty(t, result.NextRoundID)
	assert.Empty(t, result.ScoresID)

	// 下一回合携带结转的状态
	var next models.GameRound
	require.NoError(t, ledgerRepo.Get(ctx, result.NextRoundID, &next))
	assert.Equal(t, 1, next.RoundNum)
	assert.Equal(t, int64(80), next.ResourcesLeft)
	assert.Equal(t, models.PlayerStats{Resources: 10}, next.PlayerStats["alice"])
	assert.Equal(t, models.PlayerStats{Resources: 10}, next.PlayerStats["bob"])

	// 会话保持进行中
	view, err := svc.GetSession(ctx, boot.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, view.Session.Status)

	// 下一回合信号
	last := spy.last()
	require.NotNil(t, last)
	assert.Equal(t, SignalNextRound, last.Type)
	assert.Equal(t, result.NextRoundID, last.RoundID)
}

func TestTryToCloseRound_DuplicateTransition(t *testing.T) {
	svc, ledgerRepo, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "bob", boot.RoundID, 10)
	require.NoError(t, err)

	_, err = svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.NoError(t, err)

	// 第二个关闭者输掉占用竞争
	_, err = svc.TryToCloseRound(ctx, "bob", boot.RoundID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateTransition))

	// 回合链只增长了一次
	targets, err := ledgerRepo.ListTargets(ctx, boot.SessionID, models.TagGameRound)
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestTryToCloseRound_Lost(t *testing.T) {
	svc, _, spy := newTestGameService(t)
	ctx := context.Background()

	params := dummyParams()
	params.NumRounds = 5

	boot, err := svc.NewSession(ctx, "alice", params, []string{"alice", "bob"})
	require.NoError(t, err)

	// bob一次取走全部资源
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 0)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "bob", boot.RoundID, 100)
	require.NoError(t, err)

	result, err := svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionLost, result.Status)
	assert.True(t, result.Terminal())
	assert.Empty(t, result.NextRoundID)
	require.NotEmpty(t, result.ScoresID)

	// 得分记录
	scores, err := svc.GetScores(ctx, boot.SessionID)
	require.NoError(t, err)
	assert.Equal(t, boot.SessionID, scores.Scores.SessionID)
	assert.Equal(t, models.PlayerStats{Resources: 100}, scores.Scores.Stats["bob"])

	// 最新会话版本是终态
	view, err := svc.GetSession(ctx, boot.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionLost, view.Session.Status)
	assert.NotEqual(t, boot.SessionID, view.ID)

	// 终局信号
	last := spy.last()
	require.NotNil(t, last)
	assert.Equal(t, SignalGameOver, last.Type)
	assert.Equal(t, result.ScoresID, last.ScoresID)
}

func TestTryToCloseRound_FinishedAfterRoundLimit(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	params := dummyParams()
	params.NumRounds = 1

	boot, err := svc.NewSession(ctx, "alice", params, []string{"alice", "bob"})
	require.NoError(t, err)

	// 第0回合正常关闭，继续
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 10)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "bob", boot.RoundID, 10)
	require.NoError(t, err)
	result, err := svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.NoError(t, err)
	require.False(t, result.Terminal())

	// 第1回合达到上限，进入Finished；资源打到负数也不影响
	_, err = svc.NewMove(ctx, "alice", result.NextRoundID, 60)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "bob", result.NextRoundID, 60)
	require.NoError(t, err)
	result, err = svc.TryToCloseRound(ctx, "bob", result.NextRoundID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFinished, result.Status)
	require.NotEmpty(t, result.ScoresID)

	scores, err := svc.GetScores(ctx, boot.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStats{Resources: 60}, scores.Scores.Stats["alice"])
	assert.Equal(t, models.PlayerStats{Resources: 60}, scores.Scores.Stats["bob"])
}

func TestTerminalSessionRejectsActivity(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	params := dummyParams()
	params.NumRounds = 5

	boot, err := svc.NewSession(ctx, "alice", params, []string{"alice", "bob"})
	require.NoError(t, err)

	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 50)
	require.NoError(t, err)
	_, err = svc.NewMove(ctx, "bob", boot.RoundID, 50)
	require.NoError(t, err)
	_, err = svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.NoError(t, err)

	// 会话已经Lost，后续操作被拒绝
	_, err = svc.NewMove(ctx, "alice", boot.RoundID, 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSessionEnded))

	_, err = svc.TryToCloseRound(ctx, "alice", boot.RoundID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSessionEnded))
}

func TestGetSessionRounds_Sorted(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	roundID := boot.RoundID
	for i := 0; i < 2; i++ {
		_, err = svc.NewMove(ctx, "alice", roundID, 1)
		require.NoError(t, err)
		_, err = svc.NewMove(ctx, "bob", roundID, 1)
		require.NoError(t, err)
		result, err := svc.TryToCloseRound(ctx, "alice", roundID)
		require.NoError(t, err)
		roundID = result.NextRoundID
	}

	rounds, err := svc.GetSessionRounds(ctx, boot.SessionID)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for i, r := range rounds {
		assert.Equal(t, i, r.Round.RoundNum)
	}
}

func TestListMySessions(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	views, err := svc.ListMySessions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	params := dummyParams()
	params.StartAmount = 200
	_, err = svc.NewSession(ctx, "alice", params, []string{"alice", "carol"})
	require.NoError(t, err)

	views, err = svc.ListMySessions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = svc.ListMySessions(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestGetScores_NotFoundBeforeTerminal(t *testing.T) {
	svc, _, _ := newTestGameService(t)
	ctx := context.Background()

	boot, err := svc.NewSession(ctx, "alice", dummyParams(), []string{"alice", "bob"})
	require.NoError(t, err)

	_, err = svc.GetScores(ctx, boot.SessionID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
