package room

import (
	"sync"
	"time"

	"github.com/JackieWYB/majiang-sub000/game"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// Status 房间状态
type Status string

const (
	StatusWaiting   Status = "WAITING"   // 等人
	StatusReady     Status = "READY"     // 满员待开局
	StatusPlaying   Status = "PLAYING"   // 对局中
	StatusDissolved Status = "DISSOLVED" // 已解散
)

const emptySeat int64 = 0

// Room 游戏房间聚合。房间独占它的对局引擎，
// 外部只拿房间号重新解析，不直接持有引擎
type Room struct {
	ID        string
	OwnerID   int64
	creatorID int64 // 建房人，房主转移后配额仍记在这里
	Config    mahjong.Config

	status        Status
	seats         [mahjong.PlayerLimit]int64 // 座位 -> 用户，0 为空位
	engine        *game.Engine
	dealerSeat    int
	roundsPlayed  int
	dissolveVotes map[int64]bool

	createdAt      time.Time
	lastActivityAt time.Time
	mu             sync.RWMutex
}

func newRoom(id string, ownerID int64, cfg mahjong.Config) *Room {
	now := time.Now()
	r := &Room{
		ID:             id,
		OwnerID:        ownerID,
		creatorID:      ownerID,
		Config:         cfg,
		status:         StatusWaiting,
		dissolveVotes:  make(map[int64]bool),
		createdAt:      now,
		lastActivityAt: now,
	}
	r.seats[0] = ownerID // 房主坐 0 号位
	return r
}

// Status 当前房间状态
func (r *Room) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Engine 当前对局引擎，没开局时为 nil
func (r *Room) Engine() *game.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engine
}

// HasUser 用户是否占有座位
func (r *Room) HasUser(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seatOf(userID) >= 0
}

// Seats 座位占用快照
func (r *Room) Seats() [mahjong.PlayerLimit]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seats
}

// LastActivityAt 最近一次人为操作时间，闲置清扫用
func (r *Room) LastActivityAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivityAt
}

func (r *Room) touch() {
	r.lastActivityAt = time.Now()
}

func (r *Room) seatOf(userID int64) int {
	for seat, uid := range r.seats {
		if uid == userID && uid != emptySeat {
			return seat
		}
	}
	return -1
}

func (r *Room) freeSeat() int {
	for seat, uid := range r.seats {
		if uid == emptySeat {
			return seat
		}
	}
	return -1
}

func (r *Room) seatedCount() int {
	n := 0
	for _, uid := range r.seats {
		if uid != emptySeat {
			n++
		}
	}
	return n
}

// Info 对外的房间摘要
type Info struct {
	RoomID       string     `json:"roomId"`
	OwnerID      int64      `json:"ownerId"`
	Status       Status     `json:"status"`
	Seats        []SeatInfo `json:"seats"`
	RoundsPlayed int        `json:"roundsPlayed"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type SeatInfo struct {
	Seat   int   `json:"seat"`
	UserID int64 `json:"userId,omitempty"`
}

// Info 生成摘要快照
func (r *Room) Info() Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := Info{
		RoomID:       r.ID,
		OwnerID:      r.OwnerID,
		Status:       r.status,
		RoundsPlayed: r.roundsPlayed,
		CreatedAt:    r.createdAt,
	}
	for seat, uid := range r.seats {
		si := SeatInfo{Seat: seat}
		if uid != emptySeat {
			si.UserID = uid
		}
		info.Seats = append(info.Seats, si)
	}
	return info
}
