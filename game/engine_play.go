package game

import (
	"time"

	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

const dealPerSeat = 13

// handleStartRound 洗牌、发牌、庄家起手
func (eg *Engine) handleStartRound() {
	if eg.phase != PhaseWaiting {
		log.Warn("房间 %s 在 %s 阶段收到开局事件, 忽略", eg.RoomID, eg.phase)
		return
	}
	eg.setPhase(PhaseDealing)
	eg.deck.InitRound()
	eg.discardPile = eg.discardPile[:0]
	eg.actionLog = eg.actionLog[:0]
	eg.settlement = nil
	eg.finalHands = nil
	eg.claim = nil
	eg.lastDiscard = LastDiscard{}
	eg.roundIndex++
	for seat, p := range eg.players {
		p.ResetRound()
		p.IsDealer = seat == eg.dealerSeat
	}

	// 从庄家起每家 13 张
	for i := 0; i < dealPerSeat; i++ {
		for offset := 0; offset < mahjong.PlayerLimit; offset++ {
			seat := (eg.dealerSeat + offset) % mahjong.PlayerLimit
			tile, ok := eg.deck.Draw()
			if !ok {
				eg.HappenDamageError("发牌阶段牌墙不足")
				return
			}
			eg.players[seat].DealTile(tile)
		}
	}
	eg.setPhase(PhasePlaying)
	log.Info("房间 %s 开局, gameId=%s seed=%d dealer=%d", eg.RoomID, eg.GameID, eg.seed, eg.dealerSeat)
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvGameStart, map[string]any{
		"gameId":     eg.GameID,
		"dealerSeat": eg.dealerSeat,
		"roundIndex": eg.roundIndex,
	})
	eg.startTurn(eg.dealerSeat, true)
}

// startTurn 进入 seat 的出牌轮。needDraw 为 false 时该座位刚做完
// 碰吃杠补摸，手里已经多出一张
func (eg *Engine) startTurn(seat int, needDraw bool) {
	eg.claim = nil
	if needDraw && !eg.drawForSeat(seat, false) {
		return
	}
	eg.currentSeat = seat
	eg.refreshTurnActions(seat)
	for s, p := range eg.players {
		if p.Status == mahjong.StatusDisconnected || p.Status == mahjong.StatusTrustee {
			continue
		}
		if s == seat {
			p.Status = mahjong.StatusPlaying
		} else {
			p.Status = mahjong.StatusWaitingTurn
		}
	}

	eg.turnStart = eg.now()
	eg.turnDeadline = eg.turnStart.Add(time.Duration(eg.Config.Turn.TurnSeconds) * time.Second)
	eg.scheduleTimeout(TimeoutTurn, eg.turnDeadline)

	current := eg.players[seat]
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvTurnChanged, TurnInfo{
		Seat:     seat,
		UserID:   current.UserID,
		Deadline: eg.turnDeadline,
	})
	eg.broadcaster.SendToUser(current.UserID, EvYourTurn, map[string]any{
		"deadline":         eg.turnDeadline,
		"availableActions": current.Available,
	})
	eg.pushSnapshots()
	eg.persistLive()

	if current.Status == mahjong.StatusTrustee {
		eg.trusteePlayTurn(seat)
	}
}

// drawForSeat 摸牌，fromBack 为杠后补牌。墙空转流局
func (eg *Engine) drawForSeat(seat int, fromBack bool) bool {
	var tile mahjong.Tile
	var ok bool
	kind := LogDraw
	if fromBack {
		tile, ok = eg.deck.DrawBack()
		kind = LogDrawBack
	} else {
		tile, ok = eg.deck.Draw()
	}
	if !ok {
		eg.settleDrawOut()
		return false
	}
	eg.players[seat].DrawTile(tile)
	t := tile
	eg.appendLog(seat, kind, ActionPayload{Tile: &t})
	return true
}

// refreshTurnActions 轮到出牌时重算可用动作
func (eg *Engine) refreshTurnActions(seat int) {
	p := eg.players[seat]
	kinds := []mahjong.ActionKind{mahjong.ActionDiscard}
	if eg.Config.AllowGang && eg.hasOwnTurnGang(p) {
		kinds = append(kinds, mahjong.ActionGang)
	}
	if p.NewestTile != nil {
		working := p.Hand
		working.Remove(*p.NewestTile)
		an := eg.analyzer.Analyze(working, p.Melds, *p.NewestTile, true, eg.Config.Hu)
		if an.Win {
			kinds = append(kinds, mahjong.ActionHu)
		}
	}
	p.SetAvailable(kinds...)
	for s, other := range eg.players {
		if s != seat {
			other.SetAvailable()
		}
	}
}

func (eg *Engine) hasOwnTurnGang(p *mahjong.PlayerState) bool {
	if len(p.ConcealedGangCandidates()) > 0 {
		return true
	}
	for idx, c := range p.Hand {
		if c > 0 && p.CanUpgradeGang(mahjong.TileFromIndex(idx)) {
			return true
		}
	}
	return false
}

// handleAction 校验并执行玩家动作，返回错误时状态不变
func (eg *Engine) handleAction(ev *ActionEvent) error {
	seat, err := eg.seatOf(ev.UserID)
	if err != nil {
		return err
	}
	if eg.phase != PhasePlaying {
		return NewError(CodeActionNotAvailable, "对局不在进行中")
	}

	backup := eg.captureState()
	if err := eg.applyAction(seat, ev.Action); err != nil {
		return err
	}
	if invErr := eg.verifyInvariants(); invErr != nil {
		eg.restoreState(backup)
		eg.HappenDamageError(invErr.Error())
		return NewError(CodeStateInvariantViolated, "房间状态异常, 动作已拒绝")
	}
	eg.resumeControl(seat)
	eg.pushSnapshots()
	eg.persistLive()
	return nil
}

func (eg *Engine) applyAction(seat int, action PlayerAction) error {
	switch action.Kind {
	case mahjong.ActionDiscard:
		return eg.applyDiscard(seat, action.Tile)
	case mahjong.ActionPeng, mahjong.ActionChi:
		return eg.applyClaimDecision(seat, action)
	case mahjong.ActionGang:
		if action.GangKind == mahjong.GangMing {
			return eg.applyClaimDecision(seat, action)
		}
		return eg.applyOwnGang(seat, action)
	case mahjong.ActionHu:
		if eg.claim != nil {
			return eg.applyClaimDecision(seat, action)
		}
		return eg.applySelfDrawHu(seat, action)
	case mahjong.ActionPass:
		return eg.applyClaimDecision(seat, action)
	default:
		return NewError(CodeInvalidInput, "未知动作类型: %s", action.Kind)
	}
}

// applyDiscard 出牌并打开响应窗口
func (eg *Engine) applyDiscard(seat int, tile mahjong.Tile) error {
	if eg.claim != nil {
		return NewError(CodeNotYourTurn, "响应窗口未关闭")
	}
	if seat != eg.currentSeat {
		return NewError(CodeNotYourTurn, "还没轮到该座位出牌")
	}
	if !tile.Valid() {
		return NewError(CodeInvalidInput, "非法牌面")
	}
	p := eg.players[seat]
	if !p.DiscardTile(tile) {
		return NewError(CodeTileNotInHand, "手中没有 %s", tile)
	}
	eg.discardPile = append(eg.discardPile, tile)
	eg.lastDiscard = LastDiscard{Seat: seat, Tile: tile, Valid: true}
	t := tile
	eg.appendLog(seat, mahjong.ActionDiscard, ActionPayload{Tile: &t})
	p.SetAvailable()
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvPlayerAction, ActionInfo{
		Seat: seat,
		Kind: mahjong.ActionDiscard,
		Tile: tile.String(),
	})
	eg.openClaimWindow(seat, tile)
	return nil
}

// openClaimWindow 弃牌后征集响应。没有任何候选时直接轮到下家
func (eg *Engine) openClaimWindow(discarderSeat int, tile mahjong.Tile) {
	deadline := eg.now().Add(time.Duration(eg.Config.Turn.ActionSeconds) * time.Second)
	cw := NewClaimWindow(tile, discarderSeat, deadline)
	for offset := 1; offset < mahjong.PlayerLimit; offset++ {
		seat := (discarderSeat + offset) % mahjong.PlayerLimit
		p := eg.players[seat]
		var kinds []mahjong.ActionKind
		an := eg.analyzer.Analyze(p.Hand, p.Melds, tile, false, eg.Config.Hu)
		if an.Win {
			kinds = append(kinds, mahjong.ActionHu)
		}
		if eg.Config.AllowGang && p.CanMingGang(tile) {
			kinds = append(kinds, mahjong.ActionGang)
		}
		if eg.Config.AllowPeng && p.CanPeng(tile) {
			kinds = append(kinds, mahjong.ActionPeng)
		}
		// 吃只开放给下家
		if eg.Config.AllowChi && offset == 1 && len(p.ChiChoices(tile)) > 0 {
			kinds = append(kinds, mahjong.ActionChi)
		}
		if len(kinds) > 0 {
			kinds = append(kinds, mahjong.ActionPass)
			cw.Candidates[seat] = kinds
			p.SetAvailable(kinds...)
		}
	}
	if len(cw.Candidates) == 0 {
		eg.startTurn((discarderSeat+1)%mahjong.PlayerLimit, true)
		return
	}

	eg.claim = cw
	eg.scheduleTimeout(TimeoutClaim, deadline)
	for seat := range cw.Candidates {
		eg.broadcaster.SendToUser(eg.players[seat].UserID, EvClaimPrompt, map[string]any{
			"tile":             tile.String(),
			"from":             discarderSeat,
			"deadline":         deadline,
			"availableActions": cw.Candidates[seat],
		})
	}
	// 托管座位立即替打
	for seat := range cw.Candidates {
		if eg.players[seat].Status == mahjong.StatusTrustee {
			eg.trusteeClaimDecision(seat)
			if eg.claim == nil {
				return
			}
		}
	}
}

// applyClaimDecision 响应窗口内的表态。窗口不存在或已过点按关闭处理
func (eg *Engine) applyClaimDecision(seat int, action PlayerAction) error {
	cw := eg.claim
	if cw == nil {
		return NewError(CodeClaimWindowClosed, "响应窗口已关闭")
	}
	if eg.now().After(cw.Deadline) {
		return NewError(CodeClaimWindowClosed, "响应窗口已超时")
	}
	if !cw.HasCandidate(seat, action.Kind) {
		return NewError(CodeActionNotAvailable, "动作 %s 不在该座位的候选集合里", action.Kind)
	}

	decision := &ClaimDecision{Kind: action.Kind}
	p := eg.players[seat]
	switch action.Kind {
	case mahjong.ActionHu:
		an := eg.analyzer.Analyze(p.Hand, p.Melds, cw.Tile, false, eg.Config.Hu)
		if !an.Win {
			return NewError(CodeInvalidWin, "手牌不构成胡牌")
		}
	case mahjong.ActionGang:
		if !p.CanMingGang(cw.Tile) {
			return NewError(CodeActionNotAvailable, "手中不足三张 %s", cw.Tile)
		}
		decision.GangKind = mahjong.GangMing
	case mahjong.ActionChi:
		if len(action.Sequence) != 2 || !p.CanChi(cw.Tile, action.Sequence[0], action.Sequence[1]) {
			return NewError(CodeInvalidInput, "吃牌组合不合法")
		}
		decision.Sequence = append([]mahjong.Tile(nil), action.Sequence...)
	case mahjong.ActionPass:
	}

	if !cw.Decide(seat, decision) {
		return NewError(CodeActionNotAvailable, "该座位已经表过态")
	}
	if cw.Complete() {
		eg.resolveClaim()
	}
	return nil
}

// resolveClaim 关闭窗口并执行仲裁胜者的动作
func (eg *Engine) resolveClaim() {
	cw := eg.claim
	eg.claim = nil
	for _, p := range eg.players {
		p.SetAvailable()
	}
	outcome := cw.Resolve()
	eg.lastDiscard.Valid = false
	if outcome == nil {
		eg.startTurn((cw.DiscarderSeat+1)%mahjong.PlayerLimit, true)
		return
	}

	switch outcome.Kind {
	case mahjong.ActionHu:
		eg.executeDiscardHu(cw, outcome.Seats)
	case mahjong.ActionGang:
		eg.executeMingGang(cw, outcome.Seats[0])
	case mahjong.ActionPeng:
		eg.executePeng(cw, outcome.Seats[0])
	case mahjong.ActionChi:
		eg.executeChi(cw, outcome.Seats[0], outcome.Winners[outcome.Seats[0]].Sequence)
	}
}

// popLastDiscard 把刚打出的那张从弃牌堆收走
func (eg *Engine) popLastDiscard() {
	if n := len(eg.discardPile); n > 0 {
		eg.discardPile = eg.discardPile[:n-1]
	}
}

func (eg *Engine) executePeng(cw *ClaimWindow, seat int) {
	p := eg.players[seat]
	p.Hand.RemoveN(cw.Tile, 2)
	p.Melds = append(p.Melds, mahjong.NewPeng(cw.Tile, cw.DiscarderSeat))
	eg.popLastDiscard()
	t := cw.Tile
	from := cw.DiscarderSeat
	eg.appendLog(seat, mahjong.ActionPeng, ActionPayload{Tile: &t, ClaimedFrom: &from})
	eg.broadcastMeld(seat, mahjong.ActionPeng, p.Melds[len(p.Melds)-1])
	eg.startTurn(seat, false)
}

func (eg *Engine) executeChi(cw *ClaimWindow, seat int, seq []mahjong.Tile) {
	p := eg.players[seat]
	p.Hand.Remove(seq[0])
	p.Hand.Remove(seq[1])
	p.Melds = append(p.Melds, mahjong.NewChi(sortedRun(cw.Tile, seq[0], seq[1]), cw.DiscarderSeat))
	eg.popLastDiscard()
	t := cw.Tile
	from := cw.DiscarderSeat
	eg.appendLog(seat, mahjong.ActionChi, ActionPayload{Tile: &t, Sequence: seq, ClaimedFrom: &from})
	eg.broadcastMeld(seat, mahjong.ActionChi, p.Melds[len(p.Melds)-1])
	eg.startTurn(seat, false)
}

func (eg *Engine) executeMingGang(cw *ClaimWindow, seat int) {
	p := eg.players[seat]
	p.Hand.RemoveN(cw.Tile, 3)
	p.Melds = append(p.Melds, mahjong.NewMingGang(cw.Tile, cw.DiscarderSeat))
	eg.popLastDiscard()
	t := cw.Tile
	from := cw.DiscarderSeat
	eg.appendLog(seat, mahjong.ActionGang, ActionPayload{Tile: &t, GangKind: mahjong.GangMing, ClaimedFrom: &from})
	eg.broadcastMeld(seat, mahjong.ActionGang, p.Melds[len(p.Melds)-1])
	// 杠完从墙尾补一张再出牌
	if !eg.drawForSeat(seat, true) {
		return
	}
	eg.startTurn(seat, false)
}

// applyOwnGang 自己回合里的暗杠与补杠
func (eg *Engine) applyOwnGang(seat int, action PlayerAction) error {
	if eg.claim != nil {
		return NewError(CodeNotYourTurn, "响应窗口未关闭")
	}
	if seat != eg.currentSeat {
		return NewError(CodeNotYourTurn, "还没轮到该座位")
	}
	if !eg.Config.AllowGang {
		return NewError(CodeActionNotAvailable, "本房间不允许杠")
	}
	p := eg.players[seat]
	tile := action.Tile
	if !tile.Valid() {
		return NewError(CodeInvalidInput, "非法牌面")
	}

	switch action.GangKind {
	case mahjong.GangAn:
		if p.Hand.Count(tile) < 4 {
			return NewError(CodeTileNotInHand, "手中不足四张 %s", tile)
		}
		p.Hand.RemoveN(tile, 4)
		p.Melds = append(p.Melds, mahjong.NewAnGang(tile))
	case mahjong.GangBu:
		if !p.CanUpgradeGang(tile) {
			return NewError(CodeActionNotAvailable, "没有可升级为补杠的碰")
		}
		p.Hand.Remove(tile)
		for i, m := range p.Melds {
			if m.Kind == mahjong.MeldPeng && m.Tiles[0] == tile {
				p.Melds[i] = m.UpgradeToBuGang()
				break
			}
		}
	default:
		return NewError(CodeInvalidInput, "非法杠类型: %s", action.GangKind)
	}

	t := tile
	eg.appendLog(seat, mahjong.ActionGang, ActionPayload{Tile: &t, GangKind: action.GangKind})
	eg.broadcastMeld(seat, mahjong.ActionGang, p.Melds[len(p.Melds)-1])
	if !eg.drawForSeat(seat, true) {
		return nil
	}
	eg.refreshTurnActions(seat)
	// 补牌后时限重开，只向前移动
	eg.turnDeadline = eg.now().Add(time.Duration(eg.Config.Turn.TurnSeconds) * time.Second)
	eg.scheduleTimeout(TimeoutTurn, eg.turnDeadline)
	return nil
}

// applySelfDrawHu 自摸胡
func (eg *Engine) applySelfDrawHu(seat int, action PlayerAction) error {
	if seat != eg.currentSeat {
		return NewError(CodeNotYourTurn, "还没轮到该座位")
	}
	p := eg.players[seat]
	if p.NewestTile == nil {
		return NewError(CodeActionNotAvailable, "没有刚摸的牌")
	}
	winning := *p.NewestTile
	working := p.Hand
	working.Remove(winning)
	an := eg.analyzer.Analyze(working, p.Melds, winning, true, eg.Config.Hu)
	if !an.Win {
		return NewError(CodeInvalidWin, "手牌不构成胡牌")
	}

	w := winning
	eg.appendLog(seat, mahjong.ActionHu, ActionPayload{WinningTile: &w, SelfDraw: true})
	eg.settleWin([]mahjong.Winner{{Seat: seat, Analysis: an}}, mahjong.NoClaimSource)
	return nil
}

// executeDiscardHu 点炮胡，可能一炮多响
func (eg *Engine) executeDiscardHu(cw *ClaimWindow, seats []int) {
	winners := make([]mahjong.Winner, 0, len(seats))
	for _, seat := range seats {
		p := eg.players[seat]
		an := eg.analyzer.Analyze(p.Hand, p.Melds, cw.Tile, false, eg.Config.Hu)
		t := cw.Tile
		from := cw.DiscarderSeat
		eg.appendLog(seat, mahjong.ActionHu, ActionPayload{WinningTile: &t, ClaimedFrom: &from})
		winners = append(winners, mahjong.Winner{Seat: seat, Analysis: an})
	}
	// 实体牌只有一张，归行牌顺序最近的胡家
	eg.popLastDiscard()
	eg.players[seats[0]].DealTile(cw.Tile)
	eg.settleWin(winners, cw.DiscarderSeat)
}

// broadcastMeld 副露广播
func (eg *Engine) broadcastMeld(seat int, kind mahjong.ActionKind, meld mahjong.Meld) {
	m := meld
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvPlayerAction, ActionInfo{
		Seat: seat,
		Kind: kind,
		Tile: meld.Tiles[0].String(),
		Meld: &m,
	})
}

// resumeControl 玩家亲自操作成功即退出托管
func (eg *Engine) resumeControl(seat int) {
	p := eg.players[seat]
	if p.Status != mahjong.StatusTrustee {
		return
	}
	p.TimeoutCount = 0
	if seat == eg.currentSeat {
		p.Status = mahjong.StatusPlaying
	} else {
		p.Status = mahjong.StatusWaitingTurn
	}
}

// sortedRun 组成升序顺子
func sortedRun(a, b, c mahjong.Tile) [3]mahjong.Tile {
	run := [3]mahjong.Tile{a, b, c}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2-i; j++ {
			if run[j].Index() > run[j+1].Index() {
				run[j], run[j+1] = run[j+1], run[j]
			}
		}
	}
	return run
}
