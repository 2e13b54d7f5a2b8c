package mahjong

import (
	"encoding/json"
	"fmt"
)

type Suit int

const (
	SuitWan  Suit = iota // 万
	SuitTiao             // 条
	SuitTong             // 筒
)

const (
	SuitCount = 3
	RankCount = 9
	// IndexCount 按 花色*9+点数 编码后的下标总数
	IndexCount = SuitCount * RankCount
	// CopiesPerTile 每种牌 4 张
	CopiesPerTile = 4
)

func (s Suit) Letter() string {
	switch s {
	case SuitWan:
		return "W"
	case SuitTiao:
		return "T"
	case SuitTong:
		return "C"
	default:
		return "?"
	}
}

func suitFromLetter(b byte) (Suit, bool) {
	switch b {
	case 'W', 'w':
		return SuitWan, true
	case 'T', 't':
		return SuitTiao, true
	case 'C', 'c':
		return SuitTong, true
	default:
		return 0, false
	}
}

// Tile 值语义的一张牌，点数 1-9
type Tile struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// Index 编码为 0-26 的下标
func (t Tile) Index() int {
	return int(t.Suit)*RankCount + t.Rank - 1
}

// TileFromIndex 从 0-26 的下标还原
func TileFromIndex(idx int) Tile {
	return Tile{Suit: Suit(idx / RankCount), Rank: idx%RankCount + 1}
}

func (t Tile) Valid() bool {
	return t.Suit >= SuitWan && t.Suit <= SuitTong && t.Rank >= 1 && t.Rank <= 9
}

// IsTerminal 幺九牌
func (t Tile) IsTerminal() bool {
	return t.Rank == 1 || t.Rank == 9
}

// String 线路格式 "<点数><花色>"，如 "5W"
func (t Tile) String() string {
	return fmt.Sprintf("%d%s", t.Rank, t.Suit.Letter())
}

// ParseTile 解析 "5W" 格式
func ParseTile(s string) (Tile, error) {
	if len(s) != 2 {
		return Tile{}, fmt.Errorf("非法牌面: %q", s)
	}
	rank := int(s[0] - '0')
	if rank < 1 || rank > 9 {
		return Tile{}, fmt.Errorf("非法点数: %q", s)
	}
	suit, ok := suitFromLetter(s[1])
	if !ok {
		return Tile{}, fmt.Errorf("非法花色: %q", s)
	}
	return Tile{Suit: suit, Rank: rank}, nil
}

func (t Tile) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tile) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTile(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TileMode 牌池模式
type TileMode string

const (
	WanOnly  TileMode = "WAN_ONLY"  // 仅万子，36 张
	AllSuits TileMode = "ALL_SUITS" // 三花色，108 张
)

// DeckSize 模式对应的总牌数
func (m TileMode) DeckSize() int {
	if m == WanOnly {
		return RankCount * CopiesPerTile
	}
	return IndexCount * CopiesPerTile
}

// Suits 模式包含的花色
func (m TileMode) Suits() []Suit {
	if m == WanOnly {
		return []Suit{SuitWan}
	}
	return []Suit{SuitWan, SuitTiao, SuitTong}
}

// NewDeck 按模式生成整副牌，未洗牌
func NewDeck(mode TileMode) []Tile {
	tiles := make([]Tile, 0, mode.DeckSize())
	for _, suit := range mode.Suits() {
		for rank := 1; rank <= 9; rank++ {
			for i := 0; i < CopiesPerTile; i++ {
				tiles = append(tiles, Tile{Suit: suit, Rank: rank})
			}
		}
	}
	return tiles
}

// ParseTiles 批量解析
func ParseTiles(ss []string) ([]Tile, error) {
	tiles := make([]Tile, 0, len(ss))
	for _, s := range ss {
		t, err := ParseTile(s)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// TileStrings 批量格式化
func TileStrings(tiles []Tile) []string {
	ss := make([]string, 0, len(tiles))
	for _, t := range tiles {
		ss = append(ss, t.String())
	}
	return ss
}
