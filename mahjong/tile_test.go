package mahjong_test

import (
	"encoding/json"
	"testing"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

func TestTileWireFormat(t *testing.T) {
	cases := []struct {
		in   string
		suit mahjong.Suit
		rank int
	}{
		{"5W", mahjong.SuitWan, 5},
		{"3T", mahjong.SuitTiao, 3},
		{"7C", mahjong.SuitTong, 7},
		{"1W", mahjong.SuitWan, 1},
		{"9C", mahjong.SuitTong, 9},
	}
	for _, c := range cases {
		tile, err := mahjong.ParseTile(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if tile.Suit != c.suit || tile.Rank != c.rank {
			t.Fatalf("parse %q got %+v", c.in, tile)
		}
		if tile.String() != c.in {
			t.Fatalf("round trip %q got %q", c.in, tile.String())
		}
	}
}

func TestTileParseRejectsJunk(t *testing.T) {
	for _, s := range []string{"", "W", "0W", "5X", "10W", "W5"} {
		if _, err := mahjong.ParseTile(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestTileJSON(t *testing.T) {
	tile := mahjong.Tile{Suit: mahjong.SuitTiao, Rank: 4}
	data, err := json.Marshal(tile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"4T"` {
		t.Fatalf("marshal got %s", data)
	}
	var back mahjong.Tile
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != tile {
		t.Fatalf("round trip got %+v", back)
	}
}

func TestTileIndexRoundTrip(t *testing.T) {
	for idx := 0; idx < mahjong.IndexCount; idx++ {
		if got := mahjong.TileFromIndex(idx).Index(); got != idx {
			t.Fatalf("index %d round trips to %d", idx, got)
		}
	}
}

func TestDeckComposition(t *testing.T) {
	wan := mahjong.NewDeck(mahjong.WanOnly)
	if len(wan) != 36 {
		t.Fatalf("wan-only deck expected 36 tiles, got %d", len(wan))
	}
	all := mahjong.NewDeck(mahjong.AllSuits)
	if len(all) != 108 {
		t.Fatalf("all-suits deck expected 108 tiles, got %d", len(all))
	}
	counts := map[mahjong.Tile]int{}
	for _, tile := range all {
		counts[tile]++
	}
	for tile, n := range counts {
		if n != 4 {
			t.Fatalf("tile %s appears %d times", tile, n)
		}
	}
}
