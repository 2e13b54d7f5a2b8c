package mahjong

type PlayerStatus string

const (
	StatusWaiting      PlayerStatus = "WAITING"
	StatusReady        PlayerStatus = "READY"
	StatusPlaying      PlayerStatus = "PLAYING"
	StatusWaitingTurn  PlayerStatus = "WAITING_TURN"
	StatusDisconnected PlayerStatus = "DISCONNECTED"
	StatusTrustee      PlayerStatus = "TRUSTEE"
	StatusFinished     PlayerStatus = "FINISHED"
)

type ActionKind string

const (
	ActionDiscard ActionKind = "DISCARD"
	ActionPeng    ActionKind = "PENG"
	ActionGang    ActionKind = "GANG"
	ActionChi     ActionKind = "CHI"
	ActionHu      ActionKind = "HU"
	ActionPass    ActionKind = "PASS"
)

// PlayerState 单个座位的牌局状态
type PlayerState struct {
	SeatIndex int          `json:"seatIndex"`
	UserID    int64        `json:"userId"`
	Hand      Hand27       `json:"hand"`
	Melds     []Meld       `json:"melds"`
	Status    PlayerStatus `json:"status"`
	Available []ActionKind `json:"availableActions"`

	NewestTile   *Tile `json:"newestTile,omitempty"` // 最新摸的牌，托管出牌用
	IsDealer     bool  `json:"isDealer"`
	TimeoutCount int   `json:"timeoutCount"`
	Score        int64 `json:"score"`
}

func NewPlayerState(userID int64, seatIndex int) *PlayerState {
	return &PlayerState{
		SeatIndex: seatIndex,
		UserID:    userID,
		Melds:     make([]Meld, 0, 4),
		Status:    StatusWaiting,
		Available: make([]ActionKind, 0, 4),
	}
}

// ResetRound 开新一局前清空牌面状态，保留累计分数
func (p *PlayerState) ResetRound() {
	p.Hand = Hand27{}
	p.Melds = p.Melds[:0]
	p.Available = p.Available[:0]
	p.NewestTile = nil
	p.IsDealer = false
	if p.Status != StatusDisconnected && p.Status != StatusTrustee {
		p.Status = StatusPlaying
	}
}

// DrawTile 摸牌入手并记为最新
func (p *PlayerState) DrawTile(tile Tile) {
	p.Hand.Add(tile)
	newest := tile
	p.NewestTile = &newest
}

// DealTile 发牌入手，不更新最新摸牌
func (p *PlayerState) DealTile(tile Tile) {
	p.Hand.Add(tile)
}

// DiscardTile 打出一张，手中没有返回 false。
// 打出任何一张都结束本轮的最新摸牌状态，否则碰吃接手后
// 残留的 NewestTile 会被误当成自摸
func (p *PlayerState) DiscardTile(tile Tile) bool {
	if !p.Hand.Remove(tile) {
		return false
	}
	p.NewestTile = nil
	return true
}

// NewestOrHighest 托管出牌：优先最新摸的牌，否则取编码最大的一张
func (p *PlayerState) NewestOrHighest() (Tile, bool) {
	if p.NewestTile != nil && p.Hand.Count(*p.NewestTile) > 0 {
		return *p.NewestTile, true
	}
	return p.Hand.Highest()
}

// CanPeng 手中至少两张同牌
func (p *PlayerState) CanPeng(tile Tile) bool {
	return p.Hand.Count(tile) >= 2
}

// CanChi 用手中 a b 与弃牌组成同花色顺子。吃只允许下家，座位限制由仲裁层保证
func (p *PlayerState) CanChi(tile, a, b Tile) bool {
	if p.Hand.Count(a) == 0 || p.Hand.Count(b) == 0 {
		return false
	}
	if a == b && p.Hand.Count(a) < 2 {
		return false
	}
	return isRun(tile, a, b)
}

// ChiChoices 能与弃牌组成顺子的手牌组合
func (p *PlayerState) ChiChoices(tile Tile) [][2]Tile {
	var out [][2]Tile
	for _, delta := range [][2]int{{-2, -1}, {-1, 1}, {1, 2}} {
		r1, r2 := tile.Rank+delta[0], tile.Rank+delta[1]
		if r1 < 1 || r2 > 9 {
			continue
		}
		a := Tile{Suit: tile.Suit, Rank: r1}
		b := Tile{Suit: tile.Suit, Rank: r2}
		if p.Hand.Count(a) > 0 && p.Hand.Count(b) > 0 {
			out = append(out, [2]Tile{a, b})
		}
	}
	return out
}

// CanMingGang 手中至少三张同牌
func (p *PlayerState) CanMingGang(tile Tile) bool {
	return p.Hand.Count(tile) >= 3
}

// ConcealedGangCandidates 手中凑满四张的牌
func (p *PlayerState) ConcealedGangCandidates() []Tile {
	var out []Tile
	for idx, c := range p.Hand {
		if c >= 4 {
			out = append(out, TileFromIndex(idx))
		}
	}
	return out
}

// CanUpgradeGang 已有该牌的碰且手中还有一张
func (p *PlayerState) CanUpgradeGang(tile Tile) bool {
	if p.Hand.Count(tile) == 0 {
		return false
	}
	for _, m := range p.Melds {
		if m.Kind == MeldPeng && m.Tiles[0] == tile {
			return true
		}
	}
	return false
}

// HasAction 检查动作是否在公布的可用集合里
func (p *PlayerState) HasAction(kind ActionKind) bool {
	for _, a := range p.Available {
		if a == kind {
			return true
		}
	}
	return false
}

// SetAvailable 覆盖可用动作集合
func (p *PlayerState) SetAvailable(kinds ...ActionKind) {
	p.Available = p.Available[:0]
	p.Available = append(p.Available, kinds...)
}

// GangCount 已成杠的张数补偿，用于手牌数校验
func (p *PlayerState) GangCount() int {
	n := 0
	for _, m := range p.Melds {
		if m.IsGang() {
			n++
		}
	}
	return n
}

// TotalTiles 手牌加副露的实体牌总数
func (p *PlayerState) TotalTiles() int {
	total := p.Hand.Size()
	for _, m := range p.Melds {
		total += m.TileCount()
	}
	return total
}

// isRun 三张牌是否构成同花色顺子
func isRun(a, b, c Tile) bool {
	if a.Suit != b.Suit || b.Suit != c.Suit {
		return false
	}
	lo, mid, hi := a.Rank, b.Rank, c.Rank
	if lo > mid {
		lo, mid = mid, lo
	}
	if mid > hi {
		mid, hi = hi, mid
	}
	if lo > mid {
		lo, mid = mid, lo
	}
	return mid == lo+1 && hi == mid+1
}
