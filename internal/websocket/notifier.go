package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/wfunc/commons-game/internal/service"
	"go.uber.org/zap"
)

// Notifier 把游戏信号推送给在线玩家
// 实现service.Notifier：尽力而为，掉线的玩家直接跳过
type Notifier struct {
	hub    *Hub
	logger *zap.Logger
}

// NewNotifier 创建通知器
func NewNotifier(hub *Hub, logger *zap.Logger) *Notifier {
	return &Notifier{
		hub:    hub,
		logger: logger,
	}
}

// NotifyPlayers 把信号推送给一组玩家的全部连接
func (n *Notifier) NotifyPlayers(players []string, signal *service.Signal) {
	data, err := json.Marshal(signal)
	if err != nil {
		n.logger.Error("序列化游戏信号失败",
			zap.String("type", signal.Type),
			zap.Error(err))
		return
	}

	msg := &Message{
		Type:      signal.Type,
		SessionID: signal.SessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	for _, player := range players {
		if err := n.hub.SendToPlayer(player, msg); err != nil {
			if errors.Is(err, ErrPlayerNotConnected) {
				n.logger.Debug("玩家不在线，跳过通知",
					zap.String("username", player),
					zap.String("type", signal.Type))
				continue
			}
			n.logger.Warn("推送游戏信号失败",
				zap.String("username", player),
				zap.String("type", signal.Type),
				zap.Error(err))
		}
	}
}
