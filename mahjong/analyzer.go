package mahjong

import (
	"github.com/dgraph-io/ristretto"
)

type WaitKind string

const (
	WaitNone     WaitKind = "NONE"
	WaitPair     WaitKind = "PAIR"
	WaitEdge     WaitKind = "EDGE"
	WaitMiddle   WaitKind = "MIDDLE"
	WaitMultiple WaitKind = "MULTIPLE"
)

// WinAnalysis 胡牌判定结果与牌型属性，供计番使用
type WinAnalysis struct {
	Win        bool `json:"win"`
	SelfDraw   bool `json:"selfDraw"`
	SevenPairs bool `json:"sevenPairs"`

	AllPungs         bool `json:"allPungs"`
	AllSameSuit      bool `json:"allSameSuit"`
	MixedOneSuit     bool `json:"mixedOneSuit"`
	NoTerminals      bool `json:"noTerminals"`
	AllTerminals     bool `json:"allTerminals"`
	TerminalEverySet bool `json:"terminalEverySet"`
	AllConcealed     bool `json:"allConcealed"`
	ConcealedPungs   int  `json:"concealedPungs"`
	ConcealedGangs   int  `json:"concealedGangs"`

	Wait WaitKind `json:"wait"`
}

// setPiece 拆解出的一个面子，顺子记最小下标
type setPiece struct {
	triplet bool
	index   int
}

type decomposition struct {
	pair int
	sets []setPiece
}

// Analyzer 胡牌判定器。拆解结果按 (手牌,副露,胡张) 缓存，
// 同一手牌在听牌枚举与胡牌校验间会被反复查询。
type Analyzer struct {
	cache *ristretto.Cache
}

func NewAnalyzer() *Analyzer {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		// 缓存建不起来就退化为每次都算
		cache = nil
	}
	return &Analyzer{cache: cache}
}

// Analyze 判定 手牌+胡张 是否构成合法胡牌并归纳牌型。
// hand 不含 winningTile，锚定 |H| == 14 - 3*副露数。
func (a *Analyzer) Analyze(hand Hand27, melds []Meld, winningTile Tile, selfDraw bool, hu HuTypes) *WinAnalysis {
	result := &WinAnalysis{SelfDraw: selfDraw, Wait: WaitNone}
	if !winningTile.Valid() {
		return result
	}

	working := hand
	working.Add(winningTile)
	if working.Size() != 14-3*len(melds) {
		return result
	}

	if cached, ok := a.cacheGet(working, melds, winningTile, selfDraw, hu); ok {
		return cached
	}

	// 七对：无副露的 14 张凑满 7 个互不相同的对子
	if hu.SevenPairs && len(melds) == 0 && isSevenPairs(working) {
		result.Win = true
		result.SevenPairs = true
		a.fillTileFlags(result, working, melds)
		result.AllConcealed = true
		result.Wait = WaitPair
		a.cacheSet(working, melds, winningTile, selfDraw, hu, result)
		return result
	}

	decomps := decomposeAll(working, 4-len(melds))
	if len(decomps) == 0 {
		a.cacheSet(working, melds, winningTile, selfDraw, hu, result)
		return result
	}

	result.Win = true
	a.fillTileFlags(result, working, melds)
	a.fillStructFlags(result, decomps, melds, winningTile, selfDraw)
	a.cacheSet(working, melds, winningTile, selfDraw, hu, result)
	return result
}

// WinningTiles 枚举能让当前手牌胡的所有牌，听牌检测与可用动作计算用
func (a *Analyzer) WinningTiles(hand Hand27, melds []Meld, hu HuTypes) []Tile {
	var out []Tile
	for idx := 0; idx < IndexCount; idx++ {
		if hand[idx] >= CopiesPerTile {
			continue
		}
		t := TileFromIndex(idx)
		if a.Analyze(hand, melds, t, false, hu).Win {
			out = append(out, t)
		}
	}
	return out
}

// fillTileFlags 与拆解无关的全牌属性
func (a *Analyzer) fillTileFlags(result *WinAnalysis, working Hand27, melds []Meld) {
	suits := map[Suit]bool{}
	hasTerminal := false
	allTerminal := true
	scan := func(t Tile, n int) {
		if n == 0 {
			return
		}
		suits[t.Suit] = true
		if t.IsTerminal() {
			hasTerminal = true
		} else {
			allTerminal = false
		}
	}
	for idx, c := range working {
		scan(TileFromIndex(idx), int(c))
	}
	for _, m := range melds {
		for _, t := range m.Tiles {
			scan(t, 1)
		}
	}

	result.AllSameSuit = len(suits) == 1
	result.MixedOneSuit = len(suits) == 2
	result.NoTerminals = !hasTerminal
	result.AllTerminals = allTerminal

	result.AllConcealed = true
	for _, m := range melds {
		if !m.Concealed {
			result.AllConcealed = false
		}
		if m.Kind == MeldGang && m.GangKind == GangAn {
			result.ConcealedGangs++
		}
	}
}

// fillStructFlags 依赖拆解的属性，各项取对胡家最有利的拆法
func (a *Analyzer) fillStructFlags(result *WinAnalysis, decomps []decomposition, melds []Meld, winningTile Tile, selfDraw bool) {
	chiMeld := false
	meldsAllTerminal := true
	for _, m := range melds {
		if m.Kind == MeldChi {
			chiMeld = true
		}
		if !meldHasTerminal(m) {
			meldsAllTerminal = false
		}
	}

	winIdx := winningTile.Index()
	roles := map[WaitKind]bool{}

	for _, d := range decomps {
		allTriplet := true
		everySetTerminal := TileFromIndex(d.pair).IsTerminal()
		concealedPungs := result.ConcealedGangs
		for _, s := range d.sets {
			if !s.triplet {
				allTriplet = false
			} else {
				concealedPungs++
			}
			if !pieceHasTerminal(s) {
				everySetTerminal = false
			}
		}
		// 点炮胡进的刻子不算暗刻
		if !selfDraw {
			for _, s := range d.sets {
				if s.triplet && s.index == winIdx {
					concealedPungs--
					break
				}
			}
		}

		if allTriplet && !chiMeld {
			result.AllPungs = true
		}
		if everySetTerminal && meldsAllTerminal {
			result.TerminalEverySet = true
		}
		if concealedPungs > result.ConcealedPungs {
			result.ConcealedPungs = concealedPungs
		}

		for _, role := range waitRoles(d, winIdx) {
			roles[role] = true
		}
	}

	delete(roles, WaitNone)
	switch len(roles) {
	case 0:
		result.Wait = WaitNone
	case 1:
		for k := range roles {
			result.Wait = k
		}
	default:
		result.Wait = WaitMultiple
	}
}

// waitRoles 胡张在一个拆法里可能扮演的听型
func waitRoles(d decomposition, winIdx int) []WaitKind {
	var roles []WaitKind
	if d.pair == winIdx {
		roles = append(roles, WaitPair)
	}
	for _, s := range d.sets {
		if s.triplet {
			continue
		}
		base := s.index
		rank := base%RankCount + 1
		switch winIdx {
		case base + 1:
			roles = append(roles, WaitMiddle)
		case base:
			// 8-9 听 7
			if rank == 7 {
				roles = append(roles, WaitEdge)
			} else {
				roles = append(roles, WaitNone)
			}
		case base + 2:
			// 1-2 听 3
			if rank == 1 {
				roles = append(roles, WaitEdge)
			} else {
				roles = append(roles, WaitNone)
			}
		}
	}
	return roles
}

func pieceHasTerminal(s setPiece) bool {
	if s.triplet {
		return TileFromIndex(s.index).IsTerminal()
	}
	// 顺子只有 1-2-3 或 7-8-9 含幺九
	rank := s.index%RankCount + 1
	return rank == 1 || rank == 7
}

func meldHasTerminal(m Meld) bool {
	for _, t := range m.Tiles {
		if t.IsTerminal() {
			return true
		}
	}
	return false
}

func isSevenPairs(working Hand27) bool {
	pairs := 0
	for _, c := range working {
		switch c {
		case 0:
		case 2:
			pairs++
		default:
			return false
		}
	}
	return pairs == 7
}

// decomposeAll 枚举所有 将+面子 的拆法，面子按下标从小到大规范化避免重复
func decomposeAll(counts Hand27, setsNeeded int) []decomposition {
	var results []decomposition
	var cur []setPiece
	for idx := 0; idx < IndexCount; idx++ {
		if counts[idx] < 2 {
			continue
		}
		counts[idx] -= 2
		searchSets(&counts, 0, setsNeeded, &cur, func(sets []setPiece) {
			cp := make([]setPiece, len(sets))
			copy(cp, sets)
			results = append(results, decomposition{pair: idx, sets: cp})
		})
		counts[idx] += 2
	}
	return results
}

func searchSets(counts *Hand27, start, need int, cur *[]setPiece, emit func([]setPiece)) {
	idx := start
	for idx < IndexCount && counts[idx] == 0 {
		idx++
	}
	if need == 0 {
		if idx == IndexCount {
			emit(*cur)
		}
		return
	}
	if idx == IndexCount {
		return
	}

	if counts[idx] >= 3 {
		counts[idx] -= 3
		*cur = append(*cur, setPiece{triplet: true, index: idx})
		searchSets(counts, idx, need-1, cur, emit)
		*cur = (*cur)[:len(*cur)-1]
		counts[idx] += 3
	}
	if idx%RankCount <= 6 && counts[idx+1] > 0 && counts[idx+2] > 0 {
		counts[idx]--
		counts[idx+1]--
		counts[idx+2]--
		*cur = append(*cur, setPiece{index: idx})
		searchSets(counts, idx, need-1, cur, emit)
		*cur = (*cur)[:len(*cur)-1]
		counts[idx]++
		counts[idx+1]++
		counts[idx+2]++
	}
}
