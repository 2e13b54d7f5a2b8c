package game

import (
	"time"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// PlayerAction 客户端提交的动作，按 Kind 做穷举分发
type PlayerAction struct {
	Kind mahjong.ActionKind `json:"kind"`

	Tile        mahjong.Tile     `json:"tile,omitempty"`
	GangKind    mahjong.GangKind `json:"gangType,omitempty"`
	Sequence    []mahjong.Tile   `json:"sequence,omitempty"`
	ClaimedFrom int              `json:"claimedFrom,omitempty"`

	WinningTile mahjong.Tile `json:"winningTile,omitempty"`
	SelfDraw    bool         `json:"selfDraw,omitempty"`
}

// 日志里除玩家动作外的内部动作类型
const (
	LogDraw     mahjong.ActionKind = "DRAW"
	LogDrawBack mahjong.ActionKind = "DRAW_BACK"
	LogSettle   mahjong.ActionKind = "SETTLE"
)

// ActionLogEntry 追加式动作日志，Seq 从 1 开始且无空洞
type ActionLogEntry struct {
	Seq       int                `json:"seq"`
	Seat      int                `json:"seat"`
	Kind      mahjong.ActionKind `json:"kind"`
	Payload   ActionPayload      `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

// ActionPayload 动作参数，不同 Kind 用到不同字段
type ActionPayload struct {
	Tile        *mahjong.Tile    `json:"tile,omitempty"`
	GangKind    mahjong.GangKind `json:"gangKind,omitempty"`
	Sequence    []mahjong.Tile   `json:"sequence,omitempty"`
	ClaimedFrom *int             `json:"claimedFrom,omitempty"`
	WinningTile *mahjong.Tile    `json:"winningTile,omitempty"`
	SelfDraw    bool             `json:"selfDraw,omitempty"`
}

// FinalHand 终局手牌，进 GameRecord
type FinalHand struct {
	Seat   int            `json:"seat"`
	UserID int64          `json:"userId"`
	Tiles  []mahjong.Tile `json:"tiles"`
	Melds  []mahjong.Meld `json:"melds"`
}

// GameRecord 终局封存的完整对局记录，落库后不可变
type GameRecord struct {
	GameID       string              `json:"gameId" bson:"gameId"`
	RoomID       string              `json:"roomId" bson:"roomId"`
	Seed         int64               `json:"seed" bson:"seed"`
	DealerSeat   int                 `json:"dealerSeat" bson:"dealerSeat"`
	Config       mahjong.Config      `json:"config" bson:"config"`
	Actions      []ActionLogEntry    `json:"actions" bson:"actions"`
	FinalHands   []FinalHand         `json:"finalHands" bson:"finalHands"`
	Settlement   *mahjong.Settlement `json:"settlement" bson:"settlement"`
	Result       string              `json:"result" bson:"result"`
	WinnerUserID int64               `json:"winnerUserId,omitempty" bson:"winnerUserId,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
}

// GamePlayerRecord 单个玩家的终局记录
type GamePlayerRecord struct {
	GameID     string `json:"gameId" bson:"gameId"`
	UserID     int64  `json:"userId" bson:"userId"`
	Seat       int    `json:"seat" bson:"seat"`
	Result     string `json:"result" bson:"result"`
	Score      int64  `json:"score" bson:"score"`
	IsDealer   bool   `json:"isDealer" bson:"isDealer"`
	IsSelfDraw bool   `json:"isSelfDraw" bson:"isSelfDraw"`
}
