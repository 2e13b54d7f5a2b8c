package mahjong

// Hand27 手牌计数表示，下标对应 Tile.Index()
type Hand27 [IndexCount]uint8

func NewHand27(tiles []Tile) Hand27 {
	var h Hand27
	for _, t := range tiles {
		h[t.Index()]++
	}
	return h
}

func (h *Hand27) Add(t Tile) {
	h[t.Index()]++
}

// Remove 移除一张，手中没有返回 false
func (h *Hand27) Remove(t Tile) bool {
	idx := t.Index()
	if h[idx] == 0 {
		return false
	}
	h[idx]--
	return true
}

// RemoveN 移除 n 张同种牌
func (h *Hand27) RemoveN(t Tile, n int) bool {
	idx := t.Index()
	if int(h[idx]) < n {
		return false
	}
	h[idx] -= uint8(n)
	return true
}

func (h Hand27) Count(t Tile) int {
	return int(h[t.Index()])
}

// Size 手牌总张数
func (h Hand27) Size() int {
	total := 0
	for _, c := range h {
		total += int(c)
	}
	return total
}

// Tiles 展开为按 (花色,点数) 排序的牌列表
func (h Hand27) Tiles() []Tile {
	out := make([]Tile, 0, h.Size())
	for idx, c := range h {
		for i := 0; i < int(c); i++ {
			out = append(out, TileFromIndex(idx))
		}
	}
	return out
}

// Highest 手中编码最大的一张牌，空手返回 false
func (h Hand27) Highest() (Tile, bool) {
	for idx := IndexCount - 1; idx >= 0; idx-- {
		if h[idx] > 0 {
			return TileFromIndex(idx), true
		}
	}
	return Tile{}, false
}
