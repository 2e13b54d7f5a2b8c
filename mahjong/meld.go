package mahjong

type MeldKind string

const (
	MeldPeng MeldKind = "PENG"
	MeldChi  MeldKind = "CHI"
	MeldGang MeldKind = "GANG"
)

type GangKind string

const (
	GangAn   GangKind = "AN"   // 暗杠
	GangMing GangKind = "MING" // 明杠
	GangBu   GangKind = "BU"   // 补杠（碰升级）
)

// NoClaimSource 暗杠等不来自他家弃牌的面子
const NoClaimSource = -1

// Meld 副露或暗杠
type Meld struct {
	Kind        MeldKind `json:"kind"`
	GangKind    GangKind `json:"gangKind,omitempty"`
	Tiles       []Tile   `json:"tiles"`
	ClaimedFrom int      `json:"claimedFrom"` // 弃牌来源座位，暗杠为 -1
	Concealed   bool     `json:"concealed"`
}

func NewPeng(tile Tile, claimedFrom int) Meld {
	return Meld{
		Kind:        MeldPeng,
		Tiles:       []Tile{tile, tile, tile},
		ClaimedFrom: claimedFrom,
	}
}

func NewChi(seq [3]Tile, claimedFrom int) Meld {
	return Meld{
		Kind:        MeldChi,
		Tiles:       []Tile{seq[0], seq[1], seq[2]},
		ClaimedFrom: claimedFrom,
	}
}

func NewMingGang(tile Tile, claimedFrom int) Meld {
	return Meld{
		Kind:        MeldGang,
		GangKind:    GangMing,
		Tiles:       []Tile{tile, tile, tile, tile},
		ClaimedFrom: claimedFrom,
	}
}

func NewAnGang(tile Tile) Meld {
	return Meld{
		Kind:        MeldGang,
		GangKind:    GangAn,
		Tiles:       []Tile{tile, tile, tile, tile},
		ClaimedFrom: NoClaimSource,
		Concealed:   true,
	}
}

// UpgradeToBuGang 碰升级为补杠，保留原碰的来源座位
func (m Meld) UpgradeToBuGang() Meld {
	return Meld{
		Kind:        MeldGang,
		GangKind:    GangBu,
		Tiles:       []Tile{m.Tiles[0], m.Tiles[0], m.Tiles[0], m.Tiles[0]},
		ClaimedFrom: m.ClaimedFrom,
	}
}

// IsGang 是否为杠
func (m Meld) IsGang() bool {
	return m.Kind == MeldGang
}

// TileCount 面子的实体牌数，杠为 4
func (m Meld) TileCount() int {
	return len(m.Tiles)
}
