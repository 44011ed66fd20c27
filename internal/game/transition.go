package game

import (
	"github.com/wfunc/commons-game/internal/models"
)

// TransitionKind 回合关闭后的转移类型
type TransitionKind string

const (
	// TransitionContinue 继续：创建下一回合
	TransitionContinue TransitionKind = "continue"
	// TransitionFinished 终态：达到回合数上限
	TransitionFinished TransitionKind = "finished"
	// TransitionLost 终态：资源耗尽但回合数未到上限
	TransitionLost TransitionKind = "lost"
)

// Transition 回合关闭的转移决定
type Transition struct {
	Kind         TransitionKind
	NextRoundNum int
	State        models.RoundState
}

// IsTerminal 判断转移是否进入终态
func (t Transition) IsTerminal() bool {
	return t.Kind != TransitionContinue
}

// SessionStatus 转移对应的会话状态
func (t Transition) SessionStatus() models.SessionStatus {
	switch t.Kind {
	case TransitionFinished:
		return models.SessionFinished
	case TransitionLost:
		return models.SessionLost
	default:
		return models.SessionInProgress
	}
}

// Decide 对编号为roundNum的回合应用转移优先级
// 回合从0开始编号：关闭第N回合产生第N+1回合，
// 当round_num达到num_rounds时进入Finished，会话的回合链
// 恰为0..num_rounds，长度num_rounds+1。回合上限判断先于
// 资源耗尽判断，最后一回合把资源打到负数仍算Finished。
func Decide(params models.GameParams, roundNum int, state models.RoundState) Transition {
	next := roundNum + 1

	if roundNum >= params.NumRounds {
		return Transition{Kind: TransitionFinished, NextRoundNum: next, State: state}
	}
	if state.ResourcesLeft <= 0 {
		return Transition{Kind: TransitionLost, NextRoundNum: next, State: state}
	}
	return Transition{Kind: TransitionContinue, NextRoundNum: next, State: state}
}
