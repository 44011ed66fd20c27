package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/commons-game/internal/service"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, username string) *Client {
	return NewClient(hub, nil, 1, username)
}

func drain(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	default:
		t.Fatal("no message in send buffer")
		return nil
	}
}

func TestHub_RegisterAndSendToPlayer(t *testing.T) {
	hub := NewHub(zap.NewNop())

	alice := newTestClient(hub, "alice")
	hub.registerClient(alice)

	// 注册即收到连接确认
	msg := drain(t, alice)
	assert.Equal(t, MessageTypeConnected, msg.Type)

	err := hub.SendToPlayer("alice", &Message{Type: "next_round"})
	require.NoError(t, err)
	msg = drain(t, alice)
	assert.Equal(t, "next_round", msg.Type)

	// 未连接的玩家
	err = hub.SendToPlayer("bob", &Message{Type: "next_round"})
	assert.ErrorIs(t, err, ErrPlayerNotConnected)
}

func TestHub_MultipleClientsPerPlayer(t *testing.T) {
	hub := NewHub(zap.NewNop())

	c1 := newTestClient(hub, "alice")
	c2 := newTestClient(hub, "alice")
	hub.registerClient(c1)
	hub.registerClient(c2)
	drain(t, c1)
	drain(t, c2)

	// 两个连接都收到
	require.NoError(t, hub.SendToPlayer("alice", &Message{Type: "game_over"}))
	assert.Equal(t, "game_over", drain(t, c1).Type)
	assert.Equal(t, "game_over", drain(t, c2).Type)

	assert.Equal(t, 2, hub.GetOnlineCount())
	assert.Equal(t, []string{"alice"}, hub.GetOnlinePlayers())
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(zap.NewNop())

	alice := newTestClient(hub, "alice")
	hub.registerClient(alice)
	drain(t, alice)

	hub.unregisterClient(alice)
	assert.Equal(t, 0, hub.GetOnlineCount())
	assert.Empty(t, hub.GetOnlinePlayers())

	err := hub.SendToPlayer("alice", &Message{Type: "next_round"})
	assert.ErrorIs(t, err, ErrPlayerNotConnected)
}

func TestHub_SendToPlayerDuringUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())

	// 请求协程在每次回合关闭时推送信号，断开可能同时发生，
	// 发送绝不能落在已关闭的Send通道上
	for i := 0; i < 100; i++ {
		alice := newTestClient(hub, "alice")
		hub.registerClient(alice)
		drain(t, alice)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 20; j++ {
				hub.SendToPlayer("alice", &Message{Type: "next_round"})
			}
		}()

		hub.unregisterClient(alice)
		<-done

		// 注销后的通道已关闭，留存的消息可以读尽
		for range alice.Send {
		}
	}

	assert.Equal(t, 0, hub.GetOnlineCount())
}

func TestNotifier_NotifyPlayers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	notifier := NewNotifier(hub, zap.NewNop())

	alice := newTestClient(hub, "alice")
	hub.registerClient(alice)
	drain(t, alice)

	// bob不在线，不影响alice收到信号
	notifier.NotifyPlayers([]string{"alice", "bob"}, &service.Signal{
		Type:      service.SignalNextRound,
		SessionID: "session-1",
		RoundID:   "round-1",
	})

	msg := drain(t, alice)
	assert.Equal(t, service.SignalNextRound, msg.Type)
	assert.Equal(t, "session-1", msg.SessionID)

	var signal service.Signal
	require.NoError(t, json.Unmarshal(msg.Data, &signal))
	assert.Equal(t, "round-1", signal.RoundID)
}
