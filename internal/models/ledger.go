package models

import (
	"time"
)

// 账本记录类型
const (
	KindGameSession = "game_session"
	KindGameRound   = "game_round"
	KindGameMove    = "game_move"
	KindGameScores  = "game_scores"
)

// 链接标签
const (
	TagGameMove      = "game_move"
	TagGameRound     = "game_round"
	TagGameScores    = "game_scores"
	TagMyGames       = "my_games"
	TagSessionUpdate = "session_update"
)

// LedgerEntry 账本条目表（只追加，内容寻址）
type LedgerEntry struct {
	EntryID   string    `gorm:"primaryKey;size:64" json:"entry_id"`
	Kind      string    `gorm:"size:32;not null;index" json:"kind"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// LedgerLink 账本链接表（base到target的单向关联）
type LedgerLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Base      string    `gorm:"size:64;not null;uniqueIndex:idx_link_triple;index" json:"base"`
	Target    string    `gorm:"size:64;not null;uniqueIndex:idx_link_triple" json:"target"`
	Tag       string    `gorm:"size:32;not null;uniqueIndex:idx_link_triple" json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// RoundClaim 回合关闭占用表（并发关闭的条件写入）
type RoundClaim struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;not null;uniqueIndex:idx_round_claim" json:"session_id"`
	RoundNum  int       `gorm:"not null;uniqueIndex:idx_round_claim" json:"round_num"`
	CreatedAt time.Time `json:"created_at"`
}

// MoveClaim 移动占用表
// 同一玩家对同一回合只允许一次提交，约束在数据库层兜底
type MoveClaim struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoundID   string    `gorm:"size:64;not null;uniqueIndex:idx_move_claim" json:"round_id"`
	Owner     string    `gorm:"size:64;not null;uniqueIndex:idx_move_claim" json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定LedgerEntry表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// TableName 指定LedgerLink表名
func (LedgerLink) TableName() string {
	return "ledger_links"
}

// TableName 指定RoundClaim表名
func (RoundClaim) TableName() string {
	return "round_claims"
}

// TableName 指定MoveClaim表名
func (MoveClaim) TableName() string {
	return "move_claims"
}
