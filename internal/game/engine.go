package game

import (
	"github.com/wfunc/commons-game/internal/models"
)

// CalculateRoundState 聚合引擎
// 纯函数：由参数和一组移动计算回合结果，不做任何I/O，
// 校验场景下也可以直接调用。
// resources_left不在此处截断为零，负值由调用方解释为输局条件。
// 消耗量对全部移动求和；统计映射内同一玩家后写覆盖先写，
// 唯一性由上游校验保证。
func CalculateRoundState(params models.GameParams, moves []*models.GameMove) models.RoundState {
	stats := make(map[string]models.PlayerStats, len(moves))

	var consumed int64
	for _, move := range moves {
		consumed += move.Resources
		stats[move.Owner] = models.PlayerStats{
			Resources:  move.Resources,
			Reputation: 0,
		}
	}

	return models.RoundState{
		ResourcesLeft: params.StartAmount - consumed,
		PlayerStats:   stats,
	}
}
