package models

// SessionStatus 会话状态
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionFinished   SessionStatus = "finished"
	SessionLost       SessionStatus = "lost"
)

// IsTerminal 判断会话状态是否为终态
func (s SessionStatus) IsTerminal() bool {
	return s == SessionFinished || s == SessionLost
}

// GameParams 游戏参数（不可变，嵌入会话记录）
type GameParams struct {
	RegenerationFactor float64 `json:"regeneration_factor"`
	StartAmount        int64   `json:"start_amount"`
	NumRounds          int     `json:"num_rounds"`
	ResourceCoef       int     `json:"resource_coef"`
	ReputationCoef     int     `json:"reputation_coef"`
}

// DefaultGameParams 返回占位用的默认参数
func DefaultGameParams() GameParams {
	return GameParams{
		RegenerationFactor: 1,
		StartAmount:        100,
		NumRounds:          3,
		ResourceCoef:       3,
		ReputationCoef:     2,
	}
}

// PlayerStats 单个玩家的回合统计
type PlayerStats struct {
	Resources  int64 `json:"resources"`
	Reputation int64 `json:"reputation"`
}

// RoundState 聚合引擎的计算结果
type RoundState struct {
	ResourcesLeft int64                  `json:"resources_left"`
	PlayerStats   map[string]PlayerStats `json:"player_stats"`
}

// GameSession 会话记录（账本条目正文）
type GameSession struct {
	Owner   string        `json:"owner"`
	Status  SessionStatus `json:"status"`
	Params  GameParams    `json:"params"`
	Players []string      `json:"players"`
}

// HasPlayer 判断某玩家是否参与本会话
func (s *GameSession) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// GameRound 回合记录（账本条目正文）
type GameRound struct {
	SessionID     string                 `json:"session_id"`
	RoundNum      int                    `json:"round_num"`
	ResourcesLeft int64                  `json:"resources_left"`
	PlayerStats   map[string]PlayerStats `json:"player_stats"`
}

// GameMove 移动记录（账本条目正文）
type GameMove struct {
	Owner     string `json:"owner"`
	RoundID   string `json:"round_id"`
	Resources int64  `json:"resources"`
}

// GameScores 终局得分记录（账本条目正文）
type GameScores struct {
	SessionID string                 `json:"session_id"`
	Stats     map[string]PlayerStats `json:"stats"`
}
