package game

import (
	"time"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// SnapshotPlayer 快照里的单个座位。他家手牌只给张数
type SnapshotPlayer struct {
	Seat         int                  `json:"seat"`
	UserID       int64                `json:"userId"`
	Status       mahjong.PlayerStatus `json:"status"`
	IsDealer     bool                 `json:"isDealer"`
	Score        int64                `json:"score"`
	Melds        []mahjong.Meld       `json:"melds"`
	HandCount    int                  `json:"handCount"`
	Hand         []mahjong.Tile       `json:"hand,omitempty"` // 仅个人视角可见
	Available    []mahjong.ActionKind `json:"availableActions,omitempty"`
	TimeoutCount int                  `json:"timeoutCount"`
}

// Snapshot 对局快照。ForSeat 为 -1 时是全量视角，只用于落库
type Snapshot struct {
	RoomID        string           `json:"roomId"`
	GameID        string           `json:"gameId"`
	Phase         Phase            `json:"phase"`
	ForSeat       int              `json:"forSeat"`
	Players       []SnapshotPlayer `json:"players"`
	DiscardPile   []mahjong.Tile   `json:"discardPile"`
	WallRemaining int              `json:"wallRemaining"`
	CurrentSeat   int              `json:"currentSeat"`
	DealerSeat    int              `json:"dealerSeat"`
	TurnDeadline  time.Time        `json:"turnDeadline"`
	ClaimDeadline time.Time        `json:"claimDeadline,omitempty"`
	RoundIndex    int              `json:"roundIndex"`
	Degraded      bool             `json:"degraded,omitempty"`
}
