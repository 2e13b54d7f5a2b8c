package mahjong_test

import (
	"testing"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

func mt(s string) mahjong.Tile {
	t, err := mahjong.ParseTile(s)
	if err != nil {
		panic(err)
	}
	return t
}

func hand(ss ...string) mahjong.Hand27 {
	tiles := make([]mahjong.Tile, 0, len(ss))
	for _, s := range ss {
		tiles = append(tiles, mt(s))
	}
	return mahjong.NewHand27(tiles)
}

func scenarioHuTypes() mahjong.HuTypes {
	return mahjong.HuTypes{
		SelfDraw:   true,
		SevenPairs: true,
		AllPungs:   true,
		EdgeWait:   true,
	}
}

func TestAnalyzer_BasicSelfDrawWin(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "1W", "2W", "3W", "4W", "5W", "6W", "7W", "8W", "9W", "9W", "9W")
	an := a.Analyze(h, nil, mt("2W"), true, scenarioHuTypes())
	if !an.Win {
		t.Fatalf("pure nine-range hand expected to win on 2W")
	}
	if an.SevenPairs {
		t.Fatalf("not a seven pairs hand")
	}
	if fan := mahjong.CalculateFan(an, scenarioHuTypes()); fan != 2 {
		t.Fatalf("fan expected 2 (base+selfdraw), got %d", fan)
	}
}

func TestAnalyzer_RejectsNonWinningHand(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "1W", "2W", "2W", "3W", "3W", "5W", "5W", "7W", "7W", "8W", "9W")
	an := a.Analyze(h, nil, mt("9W"), false, scenarioHuTypes())
	if an.Win {
		t.Fatalf("broken hand accepted as a win")
	}
}

func TestAnalyzer_HandSizeAnchoring(t *testing.T) {
	a := mahjong.NewAnalyzer()
	// 9 张手牌配一个碰，张数对不上 4 面子 1 将
	h := hand("1W", "1W", "1W", "2W", "3W", "4W", "5W", "6W", "7W")
	melds := []mahjong.Meld{mahjong.NewPeng(mt("9W"), 2)}
	if an := a.Analyze(h, melds, mt("9W"), false, scenarioHuTypes()); an.Win {
		t.Fatalf("hand with wrong size must not win")
	}
}

func TestAnalyzer_SevenPairs(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "2W", "2W", "3W", "3W", "4W", "4W", "5W", "5W", "6W", "6W", "7W")
	an := a.Analyze(h, nil, mt("7W"), true, scenarioHuTypes())
	if !an.Win || !an.SevenPairs {
		t.Fatalf("seven pairs expected, got win=%v sevenPairs=%v", an.Win, an.SevenPairs)
	}
	if fan := mahjong.CalculateFan(an, scenarioHuTypes()); fan != 6 {
		t.Fatalf("seven pairs fan expected 6, got %d", fan)
	}
}

func TestAnalyzer_SevenPairsDisabled(t *testing.T) {
	a := mahjong.NewAnalyzer()
	hu := scenarioHuTypes()
	hu.SevenPairs = false
	h := hand("1W", "1W", "2W", "2W", "3W", "3W", "4W", "4W", "5W", "5W", "6W", "6W", "7W")
	if an := a.Analyze(h, nil, mt("7W"), true, hu); an.Win {
		t.Fatalf("seven pairs must not win when disabled")
	}
}

func TestAnalyzer_SevenPairsRequiresDistinct(t *testing.T) {
	a := mahjong.NewAnalyzer()
	// 四张 1W 只算 6 对，不满足七个互不相同的对子
	h := hand("1W", "1W", "1W", "1W", "2W", "2W", "3W", "3W", "4W", "4W", "5W", "5W", "6W")
	an := a.Analyze(h, nil, mt("6W"), true, scenarioHuTypes())
	if an.SevenPairs {
		t.Fatalf("four of a kind must not count as two pairs")
	}
}

func TestAnalyzer_EdgeWait(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "2W", "5W", "5W", "5W", "6W", "6W", "6W", "7W", "7W", "7W", "9W", "9W")
	an := a.Analyze(h, nil, mt("3W"), false, scenarioHuTypes())
	if !an.Win {
		t.Fatalf("hand expected to win on 3W")
	}
	if an.Wait != mahjong.WaitEdge {
		t.Fatalf("wait expected EDGE, got %s", an.Wait)
	}
	if fan := mahjong.CalculateFan(an, scenarioHuTypes()); fan != 2 {
		t.Fatalf("fan expected 2 (base+edge), got %d", fan)
	}
}

func TestAnalyzer_PairWait(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "1W", "2W", "3W", "4W", "5W", "6W", "7W", "8W", "8W", "8W", "9W")
	an := a.Analyze(h, nil, mt("9W"), false, scenarioHuTypes())
	if !an.Win {
		t.Fatalf("hand expected to win on 9W")
	}
	if an.Wait != mahjong.WaitPair {
		t.Fatalf("wait expected PAIR, got %s", an.Wait)
	}
}

func TestAnalyzer_AllPungs(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "1W", "2W", "2W", "2W", "3W", "3W", "3W", "5W", "5W", "5W", "4W")
	an := a.Analyze(h, nil, mt("4W"), true, scenarioHuTypes())
	if !an.Win || !an.AllPungs {
		t.Fatalf("all pungs expected, got win=%v allPungs=%v", an.Win, an.AllPungs)
	}
	// 1(底) + 1(自摸) + 6(碰碰胡)
	if fan := mahjong.CalculateFan(an, scenarioHuTypes()); fan != 8 {
		t.Fatalf("fan expected 8, got %d", fan)
	}
}

func TestAnalyzer_AllPungsBrokenByChiMeld(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "1W", "2W", "2W", "2W", "3W", "3W", "3W", "4W")
	melds := []mahjong.Meld{mahjong.NewChi([3]mahjong.Tile{mt("5W"), mt("6W"), mt("7W")}, 2)}
	an := a.Analyze(h, melds, mt("4W"), false, scenarioHuTypes())
	if !an.Win {
		t.Fatalf("hand with chi meld expected to win")
	}
	if an.AllPungs {
		t.Fatalf("a chi meld must break all pungs")
	}
}

func TestAnalyzer_PengMeldBreaksAllConcealed(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("1W", "1W", "1W", "2W", "2W", "2W", "3W", "3W", "3W", "4W")
	melds := []mahjong.Meld{mahjong.NewPeng(mt("9W"), 1)}
	hu := mahjong.DefaultConfig().Hu
	an := a.Analyze(h, melds, mt("4W"), false, hu)
	if !an.Win {
		t.Fatalf("hand with peng meld expected to win")
	}
	if an.AllConcealed {
		t.Fatalf("open peng must break all concealed")
	}
	if !an.AllPungs {
		t.Fatalf("peng meld keeps all pungs intact")
	}
}

func TestAnalyzer_ConcealedGangCountsAsConcealedPung(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("2W", "2W", "2W", "3W", "3W", "3W", "5W", "5W", "5W", "9W")
	melds := []mahjong.Meld{mahjong.NewAnGang(mt("1W"))}
	hu := mahjong.DefaultConfig().Hu
	an := a.Analyze(h, melds, mt("9W"), true, hu)
	if !an.Win {
		t.Fatalf("hand expected to win")
	}
	if an.ConcealedGangs != 1 {
		t.Fatalf("concealed gangs expected 1, got %d", an.ConcealedGangs)
	}
	if an.ConcealedPungs != 4 {
		t.Fatalf("concealed pungs expected 4 (three in hand + an gang), got %d", an.ConcealedPungs)
	}
	if !an.AllConcealed {
		t.Fatalf("an gang keeps the hand concealed")
	}
}

func TestAnalyzer_DiscardedTripletNotConcealed(t *testing.T) {
	a := mahjong.NewAnalyzer()
	h := hand("2W", "2W", "3W", "3W", "3W", "5W", "5W", "5W", "7W", "7W", "7W", "9W", "9W")
	hu := mahjong.DefaultConfig().Hu
	an := a.Analyze(h, nil, mt("2W"), false, hu)
	if !an.Win {
		t.Fatalf("hand expected to win on 2W")
	}
	// 点炮凑成的 222 不算暗刻
	if an.ConcealedPungs != 3 {
		t.Fatalf("concealed pungs expected 3, got %d", an.ConcealedPungs)
	}
}

func TestAnalyzer_NoTerminalsAndSameSuit(t *testing.T) {
	a := mahjong.NewAnalyzer()
	hu := mahjong.DefaultConfig().Hu
	h := hand("2W", "3W", "4W", "4W", "5W", "6W", "6W", "7W", "8W", "3W", "3W", "3W", "5W")
	an := a.Analyze(h, nil, mt("5W"), false, hu)
	if !an.Win {
		t.Fatalf("hand expected to win on 5W")
	}
	if !an.NoTerminals {
		t.Fatalf("no terminals expected")
	}
	if !an.AllSameSuit {
		t.Fatalf("all same suit expected")
	}
}

func TestAnalyzer_WinningTilesRoundTrip(t *testing.T) {
	a := mahjong.NewAnalyzer()
	hu := mahjong.DefaultConfig().Hu
	h := hand("1W", "2W", "3W", "4W", "5W", "6W", "7W", "8W", "9W", "5W", "5W", "5W", "8W")
	waits := a.WinningTiles(h, nil, hu)
	if len(waits) == 0 {
		t.Fatalf("tenpai hand reported no waits")
	}
	for _, w := range waits {
		if !a.Analyze(h, nil, w, false, hu).Win {
			t.Fatalf("wait %s not accepted by Analyze", w)
		}
	}
	// 反向：不在听口里的牌不能胡
	for idx := 0; idx < mahjong.IndexCount; idx++ {
		tile := mahjong.TileFromIndex(idx)
		inWaits := false
		for _, w := range waits {
			if w == tile {
				inWaits = true
			}
		}
		if !inWaits && a.Analyze(h, nil, tile, false, hu).Win {
			t.Fatalf("tile %s wins but was not enumerated", tile)
		}
	}
}
