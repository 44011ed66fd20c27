package models

import (
	"time"

	"gorm.io/gorm"
)

// Player 玩家账号表
type Player struct {
	BaseModel
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Nickname    string     `gorm:"size:100" json:"nickname"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	Status      string     `gorm:"size:20;default:'active'" json:"status"` // active, frozen, banned
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP string     `gorm:"size:50" json:"last_login_ip"`
}

// TableName 指定Player表名
func (Player) TableName() string {
	return "players"
}

// BeforeCreate 创建前的钩子
func (p *Player) BeforeCreate(tx *gorm.DB) error {
	// 设置默认昵称
	if p.Nickname == "" {
		p.Nickname = p.Username
	}
	// 设置默认状态
	if p.Status == "" {
		p.Status = "active"
	}
	return nil
}

// CanLogin 检查玩家是否可以登录
func (p *Player) CanLogin() bool {
	return p.Status == "active"
}

// UpdateLoginInfo 更新登录信息
func (p *Player) UpdateLoginInfo(ip string) {
	now := time.Now()
	p.LastLoginAt = &now
	p.LastLoginIP = ip
}
