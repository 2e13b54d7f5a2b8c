package mahjong

import (
	"math/rand"
)

// DeckManager 管理一局的牌墙。洗牌由 64 位种子驱动，
// 同一种子重放必须得到完全相同的牌序。
type DeckManager struct {
	mode TileMode
	seed int64

	wall []Tile
	head int // 常规摸牌游标
	tail int // 杠后补牌从墙尾取

	remain27 [IndexCount]int
}

func NewDeckManager(mode TileMode, seed int64) *DeckManager {
	return &DeckManager{mode: mode, seed: seed}
}

// InitRound 生成整副牌并按种子洗牌
func (dm *DeckManager) InitRound() {
	deck := NewDeck(dm.mode)
	rng := rand.New(rand.NewSource(dm.seed))
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	dm.wall = deck
	dm.head = 0
	dm.tail = len(deck) - 1

	for i := range dm.remain27 {
		dm.remain27[i] = 0
	}
	for _, t := range deck {
		dm.remain27[t.Index()]++
	}
}

// Draw 从墙头摸一张，墙空返回 false
func (dm *DeckManager) Draw() (Tile, bool) {
	if dm.head > dm.tail {
		return Tile{}, false
	}
	t := dm.wall[dm.head]
	dm.head++
	dm.remain27[t.Index()]--
	return t, true
}

// DrawBack 杠后从墙尾补一张
func (dm *DeckManager) DrawBack() (Tile, bool) {
	if dm.head > dm.tail {
		return Tile{}, false
	}
	t := dm.wall[dm.tail]
	dm.tail--
	dm.remain27[t.Index()]--
	return t, true
}

// DeckMark 牌墙游标快照
type DeckMark struct {
	Head int
	Tail int
}

// Mark 记录当前游标，配合 Rewind 回滚失败的动作
func (dm *DeckManager) Mark() DeckMark {
	return DeckMark{Head: dm.head, Tail: dm.tail}
}

// Rewind 把游标退回到 Mark 时的位置
func (dm *DeckManager) Rewind(mark DeckMark) {
	for dm.head > mark.Head {
		dm.head--
		dm.remain27[dm.wall[dm.head].Index()]++
	}
	for dm.tail < mark.Tail {
		dm.tail++
		dm.remain27[dm.wall[dm.tail].Index()]++
	}
}

// Remaining 墙上剩余张数
func (dm *DeckManager) Remaining() int {
	if dm.head > dm.tail {
		return 0
	}
	return dm.tail - dm.head + 1
}

func (dm *DeckManager) Seed() int64 {
	return dm.seed
}

func (dm *DeckManager) Mode() TileMode {
	return dm.mode
}

// Wall 洗牌后的完整牌序，仅供重放校验使用
func (dm *DeckManager) Wall() []Tile {
	out := make([]Tile, len(dm.wall))
	copy(out, dm.wall)
	return out
}
