package mahjong

// MaxFan 封顶番数
const MaxFan = 13

const (
	ResultWin  = "WIN"
	ResultDraw = "DRAW"
)

// Winner 一次结算中的一个胡家
type Winner struct {
	Seat     int
	Analysis *WinAnalysis
}

// SettledWinner 结算后的胡家得分明细
type SettledWinner struct {
	Seat  int   `json:"seat"`
	Fan   int   `json:"fan"`
	Score int64 `json:"score"`
}

// Settlement 一局的分数结算
type Settlement struct {
	Result     string               `json:"result"`
	Deltas     [PlayerLimit]int64   `json:"deltas"`
	GangDeltas [PlayerLimit]int64   `json:"gangDeltas"`
	Winners    []SettledWinner      `json:"winners,omitempty"`
}

// SettleContext 结算输入
type SettleContext struct {
	Config        ScoreConfig
	Hu            HuTypes
	DealerSeat    int
	DiscarderSeat int // 点炮座位，自摸为 NoClaimSource
	Winners       []Winner
	Melds         [PlayerLimit][]Meld
}

// CalculateFan 按牌型累计番数，封顶 13。
// 七对是终结项：命中后除自摸外不再叠加其它项。
func CalculateFan(an *WinAnalysis, hu HuTypes) int {
	fan := 1
	if hu.SelfDraw && an.SelfDraw {
		fan++
	}
	if an.SevenPairs {
		fan += 4
		return capFan(fan)
	}
	if hu.AllSameSuit && an.AllSameSuit {
		fan += 8
	}
	if hu.MixedOneSuit && an.MixedOneSuit {
		fan += 3
	}
	if hu.AllTerminals && an.AllTerminals {
		fan += 10
	} else if hu.TerminalEverySet && an.TerminalEverySet {
		// 全带幺：清一色算纯，多花色算混
		if an.AllSameSuit {
			fan += 4
		} else {
			fan += 2
		}
	}
	if hu.NoTerminals && an.NoTerminals {
		fan++
	}
	if hu.AllPungs && an.AllPungs {
		fan += 6
	}
	if hu.AllConcealed && an.AllConcealed {
		fan += 2
	}
	if hu.PairWait && an.Wait == WaitPair {
		fan++
	}
	if hu.EdgeWait && an.Wait == WaitEdge {
		fan++
	}
	if hu.ConcealedPungs {
		switch {
		case an.ConcealedPungs >= 4:
			fan += 13
		case an.ConcealedPungs == 3:
			fan += 2
		}
	}
	if hu.ConcealedGangs && an.ConcealedGangs >= 3 {
		fan += 2
	}
	return capFan(fan)
}

func capFan(fan int) int {
	if fan > MaxFan {
		return MaxFan
	}
	return fan
}

// WinnerScore 单个胡家的得分：底分×番，庄家与自摸再乘成，最后按封顶截断
func WinnerScore(fan int, isDealer, selfDraw bool, sc ScoreConfig) int64 {
	score := float64(sc.BaseScore) * float64(fan)
	if isDealer {
		score *= sc.DealerMult
	}
	if selfDraw {
		score *= 1 + sc.SelfDrawBonus
	}
	result := int64(score)
	if result > sc.MaxScore {
		result = sc.MaxScore
	}
	if result < 1 {
		result = 1
	}
	return result
}

// Settle 计算整局分数变动。杠分独立于胡牌结算，流局也要结。
// 各项转移都是一收一付，总和恒为零。
func Settle(ctx SettleContext) *Settlement {
	s := &Settlement{Result: ResultDraw}
	s.GangDeltas = gangDeltas(ctx.Melds, ctx.Config.GangBonus)
	s.Deltas = s.GangDeltas

	winners := ctx.Winners
	if len(winners) == 0 {
		return s
	}
	if len(winners) > 1 && !ctx.Config.MultiWinner {
		winners = []Winner{pickUniqueWinner(winners, ctx.Hu, ctx.DealerSeat)}
	}

	s.Result = ResultWin
	isWinner := [PlayerLimit]bool{}
	for _, w := range winners {
		isWinner[w.Seat] = true
	}

	for _, w := range winners {
		fan := CalculateFan(w.Analysis, ctx.Hu)
		if len(winners) > 1 {
			fan = splitFan(fan, len(winners))
		}
		score := WinnerScore(fan, w.Seat == ctx.DealerSeat, w.Analysis.SelfDraw, ctx.Config)
		s.Winners = append(s.Winners, SettledWinner{Seat: w.Seat, Fan: fan, Score: score})

		losers := make([]int, 0, PlayerLimit-1)
		for seat := 0; seat < PlayerLimit; seat++ {
			if seat != w.Seat && !isWinner[seat] {
				losers = append(losers, seat)
			}
		}

		received := int64(0)
		if ctx.DiscarderSeat == NoClaimSource {
			// 自摸：闲家均摊，零头由庄家或最小座位的输家补齐
			each := score / 2
			remainder := score - each*int64(len(losers))
			remainderSeat := remainderPayer(losers, ctx.DealerSeat)
			for _, seat := range losers {
				pay := each
				if seat == remainderSeat {
					pay += remainder
				}
				s.Deltas[seat] -= pay
				received += pay
			}
		} else {
			// 点炮：放铳者付全额，其余输家付四分之一
			for _, seat := range losers {
				pay := score / 4
				if seat == ctx.DiscarderSeat {
					pay = score
				}
				s.Deltas[seat] -= pay
				received += pay
			}
		}
		s.Deltas[w.Seat] += received
	}
	return s
}

// splitFan 一炮多响时按人数折减，至少 1 番
func splitFan(fan, winners int) int {
	factor := 1.0 / float64(winners)
	if factor < 0.5 {
		factor = 0.5
	}
	split := int(float64(fan) * factor)
	if split < 1 {
		split = 1
	}
	return split
}

func remainderPayer(losers []int, dealerSeat int) int {
	if len(losers) == 0 {
		return NoClaimSource
	}
	payer := losers[0]
	for _, seat := range losers {
		if seat == dealerSeat {
			return seat
		}
		if seat < payer {
			payer = seat
		}
	}
	return payer
}

// pickUniqueWinner 不允许一炮多响时的裁决：
// 自摸优先，其次原始番高者，最后离庄家近者
func pickUniqueWinner(winners []Winner, hu HuTypes, dealerSeat int) Winner {
	best := winners[0]
	bestFan := CalculateFan(best.Analysis, hu)
	for _, w := range winners[1:] {
		fan := CalculateFan(w.Analysis, hu)
		switch {
		case w.Analysis.SelfDraw != best.Analysis.SelfDraw:
			if w.Analysis.SelfDraw {
				best, bestFan = w, fan
			}
		case fan != bestFan:
			if fan > bestFan {
				best, bestFan = w, fan
			}
		default:
			if seatDistance(w.Seat, dealerSeat) < seatDistance(best.Seat, dealerSeat) {
				best, bestFan = w, fan
			}
		}
	}
	return best
}

func seatDistance(seat, dealerSeat int) int {
	return (seat - dealerSeat + PlayerLimit) % PlayerLimit
}

func gangDeltas(melds [PlayerLimit][]Meld, bonus int64) [PlayerLimit]int64 {
	var d [PlayerLimit]int64
	for seat := 0; seat < PlayerLimit; seat++ {
		for _, m := range melds[seat] {
			if !m.IsGang() {
				continue
			}
			rate := bonus * 2
			if m.GangKind == GangAn {
				rate = bonus * 4
			}
			for other := 0; other < PlayerLimit; other++ {
				if other == seat {
					continue
				}
				d[seat] += rate
				d[other] -= rate
			}
		}
	}
	return d
}
