package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wfunc/commons-game/internal/models"
)

func testParams() models.GameParams {
	return models.GameParams{
		RegenerationFactor: 1,
		StartAmount:        100,
		NumRounds:          3,
		ResourceCoef:       3,
		ReputationCoef:     2,
	}
}

func move(owner string, resources int64) *models.GameMove {
	return &models.GameMove{Owner: owner, RoundID: "r", Resources: resources}
}

func TestCalculateRoundState_Empty(t *testing.T) {
	state := CalculateRoundState(testParams(), nil)
	assert.Equal(t, int64(100), state.ResourcesLeft)
	assert.Empty(t, state.PlayerStats)
}

func TestCalculateRoundState_TwoPlayers(t *testing.T) {
	moves := []*models.GameMove{
		move("alice", 10),
		move("bob", 10),
	}

	state := CalculateRoundState(testParams(), moves)
	assert.Equal(t, int64(80), state.ResourcesLeft)
	assert.Len(t, state.PlayerStats, 2)
	assert.Equal(t, models.PlayerStats{Resources: 10, Reputation: 0}, state.PlayerStats["alice"])
	assert.Equal(t, models.PlayerStats{Resources: 10, Reputation: 0}, state.PlayerStats["bob"])
}

func TestCalculateRoundState_NegativeLeftover(t *testing.T) {
	// 超额消耗不在此处截断
	moves := []*models.GameMove{
		move("alice", 50),
		move("bob", 70),
	}

	state := CalculateRoundState(testParams(), moves)
	assert.Equal(t, int64(-20), state.ResourcesLeft)
}

func TestCalculateRoundState_ZeroConsumption(t *testing.T) {
	moves := []*models.GameMove{
		move("alice", 0),
		move("bob", 0),
	}

	state := CalculateRoundState(testParams(), moves)
	assert.Equal(t, int64(100), state.ResourcesLeft)
	assert.Len(t, state.PlayerStats, 2)
	assert.Equal(t, models.PlayerStats{Resources: 0, Reputation: 0}, state.PlayerStats["alice"])
}

func TestCalculateRoundState_DuplicateOwnerLastWriteWins(t *testing.T) {
	// 消耗量对全部移动求和，统计取后写的值
	moves := []*models.GameMove{
		move("alice", 10),
		move("alice", 30),
	}

	state := CalculateRoundState(testParams(), moves)
	assert.Equal(t, int64(60), state.ResourcesLeft)
	assert.Len(t, state.PlayerStats, 1)
	assert.Equal(t, models.PlayerStats{Resources: 30, Reputation: 0}, state.PlayerStats["alice"])
}

func TestCalculateRoundState_SumProperty(t *testing.T) {
	// resources_left == start_amount - sum(moves)
	cases := [][]int64{
		{},
		{1},
		{10, 20, 30},
		{100},
		{33, 33, 34},
	}

	for _, resources := range cases {
		var moves []*models.GameMove
		var sum int64
		for i, r := range resources {
			moves = append(moves, move(string(rune('a'+i)), r))
			sum += r
		}

		state := CalculateRoundState(testParams(), moves)
		assert.Equal(t, testParams().StartAmount-sum, state.ResourcesLeft)
		assert.Len(t, state.PlayerStats, len(moves))
	}
}
