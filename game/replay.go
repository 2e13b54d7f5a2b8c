package game

import (
	"fmt"
	"sort"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// ReplayResult 纯函数重放的产物
type ReplayResult struct {
	FinalHands []FinalHand
	Settlement *mahjong.Settlement
}

type replaySeat struct {
	hand   mahjong.Hand27
	melds  []mahjong.Meld
	newest *mahjong.Tile
}

// Replay 用种子和动作日志重演整局。重放不触发任何副作用，
// 同一份记录重演任意多次结果恒等
func Replay(record *GameRecord) (*ReplayResult, error) {
	if record == nil {
		return nil, fmt.Errorf("记录为空")
	}
	deck := mahjong.NewDeckManager(record.Config.Tiles, record.Seed)
	deck.InitRound()
	analyzer := mahjong.NewAnalyzer()

	var seats [mahjong.PlayerLimit]replaySeat
	for i := 0; i < dealPerSeat; i++ {
		for offset := 0; offset < mahjong.PlayerLimit; offset++ {
			seat := (record.DealerSeat + offset) % mahjong.PlayerLimit
			tile, ok := deck.Draw()
			if !ok {
				return nil, fmt.Errorf("发牌阶段牌墙不足")
			}
			seats[seat].hand.Add(tile)
		}
	}

	var discardPile []mahjong.Tile
	var winners []mahjong.Winner
	discarderSeat := mahjong.NoClaimSource
	winSeats := make([]int, 0, 2)
	var result *ReplayResult

	popDiscard := func() {
		if n := len(discardPile); n > 0 {
			discardPile = discardPile[:n-1]
		}
	}

	for i, entry := range record.Actions {
		if entry.Seq != i+1 {
			return nil, fmt.Errorf("动作序号不连续: 第 %d 条 seq=%d", i+1, entry.Seq)
		}
		switch entry.Kind {
		case LogDraw, LogDrawBack:
			var tile mahjong.Tile
			var ok bool
			if entry.Kind == LogDraw {
				tile, ok = deck.Draw()
			} else {
				tile, ok = deck.DrawBack()
			}
			if !ok {
				return nil, fmt.Errorf("seq=%d 摸牌时牌墙已空", entry.Seq)
			}
			if entry.Payload.Tile != nil && *entry.Payload.Tile != tile {
				return nil, fmt.Errorf("seq=%d 摸牌与日志不符: 墙 %s 日志 %s", entry.Seq, tile, *entry.Payload.Tile)
			}
			p := &seats[entry.Seat]
			p.hand.Add(tile)
			t := tile
			p.newest = &t
		case mahjong.ActionDiscard:
			if entry.Payload.Tile == nil {
				return nil, fmt.Errorf("seq=%d 出牌缺少牌面", entry.Seq)
			}
			if !seats[entry.Seat].hand.Remove(*entry.Payload.Tile) {
				return nil, fmt.Errorf("seq=%d 出牌 %s 不在手中", entry.Seq, *entry.Payload.Tile)
			}
			discardPile = append(discardPile, *entry.Payload.Tile)
		case mahjong.ActionPeng:
			p := &seats[entry.Seat]
			tile := *entry.Payload.Tile
			p.hand.RemoveN(tile, 2)
			p.melds = append(p.melds, mahjong.NewPeng(tile, *entry.Payload.ClaimedFrom))
			popDiscard()
		case mahjong.ActionChi:
			p := &seats[entry.Seat]
			tile := *entry.Payload.Tile
			p.hand.Remove(entry.Payload.Sequence[0])
			p.hand.Remove(entry.Payload.Sequence[1])
			p.melds = append(p.melds, mahjong.NewChi(
				sortedRun(tile, entry.Payload.Sequence[0], entry.Payload.Sequence[1]),
				*entry.Payload.ClaimedFrom))
			popDiscard()
		case mahjong.ActionGang:
			p := &seats[entry.Seat]
			tile := *entry.Payload.Tile
			switch entry.Payload.GangKind {
			case mahjong.GangMing:
				p.hand.RemoveN(tile, 3)
				p.melds = append(p.melds, mahjong.NewMingGang(tile, *entry.Payload.ClaimedFrom))
				popDiscard()
			case mahjong.GangAn:
				p.hand.RemoveN(tile, 4)
				p.melds = append(p.melds, mahjong.NewAnGang(tile))
			case mahjong.GangBu:
				p.hand.Remove(tile)
				for mi, m := range p.melds {
					if m.Kind == mahjong.MeldPeng && m.Tiles[0] == tile {
						p.melds[mi] = m.UpgradeToBuGang()
						break
					}
				}
			default:
				return nil, fmt.Errorf("seq=%d 非法杠类型: %s", entry.Seq, entry.Payload.GangKind)
			}
		case mahjong.ActionHu:
			p := &seats[entry.Seat]
			winning := *entry.Payload.WinningTile
			if entry.Payload.SelfDraw {
				working := p.hand
				working.Remove(winning)
				an := analyzer.Analyze(working, p.melds, winning, true, record.Config.Hu)
				if !an.Win {
					return nil, fmt.Errorf("seq=%d 自摸胡校验失败", entry.Seq)
				}
				winners = append(winners, mahjong.Winner{Seat: entry.Seat, Analysis: an})
			} else {
				an := analyzer.Analyze(p.hand, p.melds, winning, false, record.Config.Hu)
				if !an.Win {
					return nil, fmt.Errorf("seq=%d 点炮胡校验失败", entry.Seq)
				}
				winners = append(winners, mahjong.Winner{Seat: entry.Seat, Analysis: an})
				discarderSeat = *entry.Payload.ClaimedFrom
				// 实体牌归第一个登记的胡家
				if len(winSeats) == 0 {
					popDiscard()
					p.hand.Add(winning)
				}
			}
			winSeats = append(winSeats, entry.Seat)
		case LogSettle:
			var melds [mahjong.PlayerLimit][]mahjong.Meld
			for seat := range seats {
				melds[seat] = seats[seat].melds
			}
			settlement := mahjong.Settle(mahjong.SettleContext{
				Config:        record.Config.Score,
				Hu:            record.Config.Hu,
				DealerSeat:    record.DealerSeat,
				DiscarderSeat: discarderSeat,
				Winners:       winners,
				Melds:         melds,
			})
			result = &ReplayResult{Settlement: settlement}
			for seat := range seats {
				result.FinalHands = append(result.FinalHands, FinalHand{
					Seat:  seat,
					Tiles: seats[seat].hand.Tiles(),
					Melds: append([]mahjong.Meld(nil), seats[seat].melds...),
				})
			}
		default:
			return nil, fmt.Errorf("seq=%d 未知动作类型: %s", entry.Seq, entry.Kind)
		}
	}

	if result == nil {
		return nil, fmt.Errorf("日志没有终局结算条目")
	}
	return result, nil
}

// VerifyRecord 重放并逐项核对封存记录：终局手牌、分数变动、胜负结果
func VerifyRecord(record *GameRecord) error {
	replayed, err := Replay(record)
	if err != nil {
		return err
	}
	if replayed.Settlement.Result != record.Settlement.Result {
		return fmt.Errorf("结果不符: 重放 %s 记录 %s", replayed.Settlement.Result, record.Settlement.Result)
	}
	if replayed.Settlement.Deltas != record.Settlement.Deltas {
		return fmt.Errorf("分数变动不符: 重放 %v 记录 %v", replayed.Settlement.Deltas, record.Settlement.Deltas)
	}
	for _, fh := range record.FinalHands {
		if fh.Seat < 0 || fh.Seat >= mahjong.PlayerLimit {
			return fmt.Errorf("终局手牌座位越界: %d", fh.Seat)
		}
		if !sameTiles(replayed.FinalHands[fh.Seat].Tiles, fh.Tiles) {
			return fmt.Errorf("座位 %d 终局手牌不符", fh.Seat)
		}
	}
	return nil
}

func sameTiles(a, b []mahjong.Tile) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]mahjong.Tile(nil), a...)
	bs := append([]mahjong.Tile(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i].Index() < as[j].Index() })
	sort.Slice(bs, func(i, j int) bool { return bs[i].Index() < bs[j].Index() })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
