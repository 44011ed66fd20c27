package service

import (
	"context"
	"sort"

	apperrors "github.com/wfunc/commons-game/internal/errors"
	"github.com/wfunc/commons-game/internal/game"
	"github.com/wfunc/commons-game/internal/models"
	"github.com/wfunc/commons-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// gameService 游戏服务实现
type gameService struct {
	db         *gorm.DB
	ledgerRepo repository.LedgerRepository
	notifier   Notifier
	minPlayers int
	log        *zap.Logger
}

// NewGameService 创建游戏服务
func NewGameService(
	db *gorm.DB,
	ledgerRepo repository.LedgerRepository,
	notifier Notifier,
	minPlayers int,
	log *zap.Logger,
) GameService {
	if minPlayers < 2 {
		minPlayers = 2
	}
	return &gameService{
		db:         db,
		ledgerRepo: ledgerRepo,
		notifier:   notifier,
		minPlayers: minPlayers,
		log:        log,
	}
}

// NewSession 创建会话并引导第0回合
func (s *gameService) NewSession(ctx context.Context, owner string, params models.GameParams, players []string) (*SessionBootstrap, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if err := s.validatePlayers(players); err != nil {
		return nil, err
	}

	session := &models.GameSession{
		Owner:   owner,
		Status:  models.SessionInProgress,
		Params:  params,
		Players: players,
	}
	round := &models.GameRound{
		RoundNum:      0,
		ResourcesLeft: params.StartAmount,
		PlayerStats:   map[string]models.PlayerStats{},
	}

	var sessionID, roundID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledgerRepo.WithTx(tx).(repository.LedgerRepository)

		var err error
		sessionID, err = ledger.Put(ctx, models.KindGameSession, session)
		if err != nil {
			return err
		}

		round.SessionID = sessionID
		roundID, err = ledger.Put(ctx, models.KindGameRound, round)
		if err != nil {
			return err
		}

		// 发起者可以找回自己的会话，会话可以枚举自己的回合
		if err := ledger.Link(ctx, owner, sessionID, models.TagMyGames); err != nil {
			return err
		}
		return ledger.Link(ctx, sessionID, roundID, models.TagGameRound)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("会话已创建",
		zap.String("session_id", sessionID),
		zap.String("round_id", roundID),
		zap.String("owner", owner),
		zap.Int("players", len(players)))

	s.notifier.NotifyPlayers(players, &Signal{
		Type:      SignalGameStarted,
		SessionID: sessionID,
		RoundID:   roundID,
	})

	return &SessionBootstrap{SessionID: sessionID, RoundID: roundID}, nil
}

// StartDummySession 用占位参数创建会话
// 在撮合层出现之前的权宜入口
func (s *gameService) StartDummySession(ctx context.Context, owner string, players []string) (*SessionBootstrap, error) {
	return s.NewSession(ctx, owner, models.DefaultGameParams(), players)
}

// NewMove 提交移动并链接到所属回合
func (s *gameService) NewMove(ctx context.Context, owner string, roundID string, resources int64) (string, error) {
	if resources < 0 {
		return "", apperrors.New(apperrors.ErrInvalidParam, "消耗量不能为负")
	}

	var round models.GameRound
	if err := s.ledgerRepo.Get(ctx, roundID, &round); err != nil {
		return "", err
	}

	session, _, err := s.latestSession(ctx, round.SessionID)
	if err != nil {
		return "", err
	}
	if !session.HasPlayer(owner) {
		return "", apperrors.New(apperrors.ErrNotAPlayer, "不是本会话的玩家")
	}
	if session.Status.IsTerminal() {
		return "", apperrors.New(apperrors.ErrSessionEnded, "会话已结束")
	}

	move := &models.GameMove{
		Owner:     owner,
		RoundID:   roundID,
		Resources: resources,
	}

	var moveID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledgerRepo.WithTx(tx).(repository.LedgerRepository)

		// 每个玩家每回合只允许一次移动，唯一约束在并发提交下兜底
		if err := ledger.ClaimMove(ctx, roundID, owner); err != nil {
			return err
		}

		var err error
		moveID, err = ledger.Put(ctx, models.KindGameMove, move)
		if err != nil {
			return err
		}
		return ledger.Link(ctx, roundID, moveID, models.TagGameMove)
	})
	if err != nil {
		return "", err
	}

	s.log.Debug("移动已提交",
		zap.String("round_id", roundID),
		zap.String("move_id", moveID),
		zap.String("owner", owner),
		zap.Int64("resources", resources))

	return moveID, nil
}

// TryToCloseRound 尝试关闭回合
// 完整性门槛：全部玩家提交移动之前返回StillWaiting，
// 调用方视之为可重试的非失败。通过门槛后对(session, next_round)
// 做条件写入占用，并发关闭者中只有一个能走到持久化。
func (s *gameService) TryToCloseRound(ctx context.Context, caller string, roundID string) (*CloseResult, error) {
	var round models.GameRound
	if err := s.ledgerRepo.Get(ctx, roundID, &round); err != nil {
		return nil, err
	}

	session, sessionID, err := s.latestSession(ctx, round.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasPlayer(caller) && session.Owner != caller {
		return nil, apperrors.New(apperrors.ErrNotAPlayer, "不是本会话的玩家")
	}
	if session.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.ErrSessionEnded, "会话已结束")
	}

	moves, err := s.roundMoves(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if len(moves) < len(session.Players) {
		return nil, apperrors.Newf(apperrors.ErrStillWaiting,
			"等待其他玩家提交移动: %d/%d", len(moves), len(session.Players))
	}

	state := game.CalculateRoundState(session.Params, moves)
	tr := game.Decide(session.Params, round.RoundNum, state)

	result := &CloseResult{Status: tr.SessionStatus()}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledgerRepo.WithTx(tx).(repository.LedgerRepository)

		// 占用本次转移，输掉竞争的关闭者在这里收到DuplicateTransition
		if err := ledger.ClaimRound(ctx, round.SessionID, tr.NextRoundNum); err != nil {
			return err
		}

		if !tr.IsTerminal() {
			next := &models.GameRound{
				SessionID:     round.SessionID,
				RoundNum:      tr.NextRoundNum,
				ResourcesLeft: state.ResourcesLeft,
				PlayerStats:   state.PlayerStats,
			}
			nextID, err := ledger.Put(ctx, models.KindGameRound, next)
			if err != nil {
				return err
			}
			result.NextRoundID = nextID
			return ledger.Link(ctx, round.SessionID, nextID, models.TagGameRound)
		}

		// 终态：落盘得分，并追加带终态状态的会话新版本
		scores := &models.GameScores{
			SessionID: round.SessionID,
			Stats:     state.PlayerStats,
		}
		scoresID, err := ledger.Put(ctx, models.KindGameScores, scores)
		if err != nil {
			return err
		}
		result.ScoresID = scoresID
		if err := ledger.Link(ctx, round.SessionID, scoresID, models.TagGameScores); err != nil {
			return err
		}

		updated := &models.GameSession{
			Owner:   session.Owner,
			Status:  tr.SessionStatus(),
			Params:  session.Params,
			Players: session.Players,
		}
		updatedID, err := ledger.Put(ctx, models.KindGameSession, updated)
		if err != nil {
			return err
		}
		return ledger.Link(ctx, sessionID, updatedID, models.TagSessionUpdate)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("回合已关闭",
		zap.String("session_id", round.SessionID),
		zap.Int("round_num", round.RoundNum),
		zap.String("status", string(result.Status)),
		zap.Int64("resources_left", state.ResourcesLeft))

	if tr.IsTerminal() {
		s.notifier.NotifyPlayers(session.Players, &Signal{
			Type:      SignalGameOver,
			SessionID: round.SessionID,
			ScoresID:  result.ScoresID,
		})
	} else {
		s.notifier.NotifyPlayers(session.Players, &Signal{
			Type:      SignalNextRound,
			SessionID: round.SessionID,
			RoundID:   result.NextRoundID,
		})
	}

	return result, nil
}

// ListMySessions 列出调用者发起的全部会话
func (s *gameService) ListMySessions(ctx context.Context, owner string) ([]*SessionView, error) {
	ids, err := s.ledgerRepo.ListTargets(ctx, owner, models.TagMyGames)
	if err != nil {
		return nil, err
	}

	views := make([]*SessionView, 0, len(ids))
	for _, id := range ids {
		view, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetSession 读取会话的最新版本
func (s *gameService) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	session, latestID, err := s.latestSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionView{ID: latestID, Session: session}, nil
}

// GetSessionRounds 列出会话的回合链，按回合号排序
func (s *gameService) GetSessionRounds(ctx context.Context, sessionID string) ([]*RoundView, error) {
	// 确认会话存在
	if _, _, err := s.latestSession(ctx, sessionID); err != nil {
		return nil, err
	}

	ids, err := s.ledgerRepo.ListTargets(ctx, sessionID, models.TagGameRound)
	if err != nil {
		return nil, err
	}

	views := make([]*RoundView, 0, len(ids))
	for _, id := range ids {
		var round models.GameRound
		if err := s.ledgerRepo.Get(ctx, id, &round); err != nil {
			return nil, err
		}
		r := round
		views = append(views, &RoundView{ID: id, Round: &r})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Round.RoundNum < views[j].Round.RoundNum
	})
	return views, nil
}

// GetRound 读取单个回合
func (s *gameService) GetRound(ctx context.Context, roundID string) (*RoundView, error) {
	var round models.GameRound
	if err := s.ledgerRepo.Get(ctx, roundID, &round); err != nil {
		return nil, err
	}
	return &RoundView{ID: roundID, Round: &round}, nil
}

// GetScores 读取会话的终局得分
func (s *gameService) GetScores(ctx context.Context, sessionID string) (*ScoresView, error) {
	ids, err := s.ledgerRepo.ListTargets(ctx, sessionID, models.TagGameScores)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperrors.New(apperrors.ErrNotFound, "会话尚无终局得分")
	}

	var scores models.GameScores
	if err := s.ledgerRepo.Get(ctx, ids[0], &scores); err != nil {
		return nil, err
	}
	return &ScoresView{ID: ids[0], Scores: &scores}, nil
}

// latestSession 取回会话并沿session_update链解析到最新版本
func (s *gameService) latestSession(ctx context.Context, sessionID string) (*models.GameSession, string, error) {
	id := sessionID
	for {
		targets, err := s.ledgerRepo.ListTargets(ctx, id, models.TagSessionUpdate)
		if err != nil {
			return nil, "", err
		}
		if len(targets) == 0 {
			break
		}
		id = targets[len(targets)-1]
	}

	var session models.GameSession
	if err := s.ledgerRepo.Get(ctx, id, &session); err != nil {
		return nil, "", err
	}
	return &session, id, nil
}

// roundMoves 取回回合已链接的全部移动
func (s *gameService) roundMoves(ctx context.Context, roundID string) ([]*models.GameMove, error) {
	ids, err := s.ledgerRepo.ListTargets(ctx, roundID, models.TagGameMove)
	if err != nil {
		return nil, err
	}

	moves := make([]*models.GameMove, 0, len(ids))
	for _, id := range ids {
		var move models.GameMove
		if err := s.ledgerRepo.Get(ctx, id, &move); err != nil {
			return nil, err
		}
		m := move
		moves = append(moves, &m)
	}
	return moves, nil
}

// validatePlayers 校验玩家名单
func (s *gameService) validatePlayers(players []string) error {
	if len(players) < s.minPlayers {
		return apperrors.Newf(apperrors.ErrNotEnoughPlayers,
			"至少需要%d名玩家", s.minPlayers)
	}

	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p == "" {
			return apperrors.New(apperrors.ErrInvalidParam, "玩家标识不能为空")
		}
		if _, ok := seen[p]; ok {
			return apperrors.Newf(apperrors.ErrInvalidState, "玩家重复: %s", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// validateParams 校验游戏参数
func validateParams(params models.GameParams) error {
	if params.NumRounds < 1 {
		return apperrors.New(apperrors.ErrInvalidGameParams, "回合数必须至少为1")
	}
	if params.StartAmount < 0 {
		return apperrors.New(apperrors.ErrInvalidGameParams, "初始资源不能为负")
	}
	return nil
}
