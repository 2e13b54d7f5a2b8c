package game

import (
	"time"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// Event 进入房间单写者队列的事件
type Event interface {
	EventType() string
}

const (
	TimeoutTurn  = "TURN"
	TimeoutClaim = "CLAIM"
)

// ActionEvent 客户端动作，reply 回传校验结果
type ActionEvent struct {
	UserID int64
	Action PlayerAction
	reply  chan error
}

func (e *ActionEvent) EventType() string { return "Action" }

// StartRoundEvent 开局
type StartRoundEvent struct{}

func (e *StartRoundEvent) EventType() string { return "StartRound" }

// TimeoutEvent 定时器触发。AsOfDeadline 与当前存活截止时间比对，
// 已经移动过的截止时间视为过期定时器，直接丢弃
type TimeoutEvent struct {
	Kind         string
	AsOfDeadline time.Time
}

func (e *TimeoutEvent) EventType() string { return "Timeout" }

// DisconnectEvent 连接断开
type DisconnectEvent struct {
	UserID int64
	At     time.Time
}

func (e *DisconnectEvent) EventType() string { return "Disconnect" }

// GraceExpiredEvent 断线宽限期到
type GraceExpiredEvent struct {
	UserID int64
	AsOf   time.Time
}

func (e *GraceExpiredEvent) EventType() string { return "GraceExpired" }

// ReconnectEvent 断线重连，reply 回传个人视角快照
type ReconnectEvent struct {
	UserID int64
	At     time.Time
	reply  chan reconnectResult
}

func (e *ReconnectEvent) EventType() string { return "Reconnect" }

type reconnectResult struct {
	snapshot *Snapshot
	err      error
}

// DissolveEvent 解散房间，之后的所有事件都被拒绝
type DissolveEvent struct {
	Reason string
	done   chan struct{}
}

func (e *DissolveEvent) EventType() string { return "Dissolve" }

// RetryPersistEvent 终局落库失败后的重试
type RetryPersistEvent struct{}

func (e *RetryPersistEvent) EventType() string { return "RetryPersist" }

// 服务端广播事件名
const (
	EvUserJoined              = "userJoined"
	EvUserLeft                = "userLeft"
	EvGameStart               = "gameStart"
	EvYourTurn                = "yourTurn"
	EvTurnChanged             = "turnChanged"
	EvPlayerAction            = "playerAction"
	EvGameStateUpdate         = "gameStateUpdate"
	EvClaimPrompt             = "claimPrompt"
	EvPlayerDisconnected      = "playerDisconnected"
	EvPlayerReconnected       = "playerReconnected"
	EvPlayerTrusteeActivated  = "playerTrusteeActivated"
	EvGameEnd                 = "gameEnd"
	EvRoomDissolved           = "roomDissolved"
)

// Broadcaster 把引擎事件送到在线客户端，由会话层实现。
// 广播与单发都走每用户 FIFO 通道，同一用户的消息保持顺序
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, data any)
	SendToUser(userID int64, event string, data any)
}

// NopBroadcaster 测试与重放用的空实现
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastToRoom(string, string, any) {}
func (NopBroadcaster) SendToUser(int64, string, any)       {}

// TurnInfo 轮转广播载荷
type TurnInfo struct {
	Seat     int       `json:"seat"`
	UserID   int64     `json:"userId"`
	Deadline time.Time `json:"deadline"`
}

// ActionInfo 动作广播载荷
type ActionInfo struct {
	Seat   int                `json:"seat"`
	Kind   mahjong.ActionKind `json:"kind"`
	Tile   string             `json:"tile,omitempty"`
	Meld   *mahjong.Meld      `json:"meld,omitempty"`
}
