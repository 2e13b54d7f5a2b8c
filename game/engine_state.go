package game

import (
	"context"
	"fmt"
	"time"

	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// stateBackup 动作执行前的状态备份，校验失败时整体回退
type stateBackup struct {
	phase       Phase
	players     [mahjong.PlayerLimit]mahjong.PlayerState
	discardPile []mahjong.Tile
	currentSeat int
	lastDiscard LastDiscard
	claim       *ClaimWindow
	logLen      int
	deckMark    mahjong.DeckMark
	settlement  *mahjong.Settlement
}

func (eg *Engine) captureState() stateBackup {
	b := stateBackup{
		phase:       eg.phase,
		discardPile: append([]mahjong.Tile(nil), eg.discardPile...),
		currentSeat: eg.currentSeat,
		lastDiscard: eg.lastDiscard,
		logLen:      len(eg.actionLog),
		deckMark:    eg.deck.Mark(),
		settlement:  eg.settlement,
	}
	for seat, p := range eg.players {
		cp := *p
		cp.Melds = append([]mahjong.Meld(nil), p.Melds...)
		cp.Available = append([]mahjong.ActionKind(nil), p.Available...)
		if p.NewestTile != nil {
			t := *p.NewestTile
			cp.NewestTile = &t
		}
		b.players[seat] = cp
	}
	if eg.claim != nil {
		cw := *eg.claim
		cw.Candidates = make(map[int][]mahjong.ActionKind, len(eg.claim.Candidates))
		for s, ks := range eg.claim.Candidates {
			cw.Candidates[s] = append([]mahjong.ActionKind(nil), ks...)
		}
		cw.Decisions = make(map[int]*ClaimDecision, len(eg.claim.Decisions))
		for s, d := range eg.claim.Decisions {
			dd := *d
			cw.Decisions[s] = &dd
		}
		b.claim = &cw
	}
	return b
}

func (eg *Engine) restoreState(b stateBackup) {
	eg.setPhase(b.phase)
	eg.discardPile = b.discardPile
	eg.currentSeat = b.currentSeat
	eg.lastDiscard = b.lastDiscard
	eg.claim = b.claim
	eg.actionLog = eg.actionLog[:b.logLen]
	eg.deck.Rewind(b.deckMark)
	eg.settlement = b.settlement
	for seat := range eg.players {
		cp := b.players[seat]
		eg.players[seat] = &cp
	}
}

// verifyInvariants 全量守恒校验：实体牌总数、单张不超四、
// 每家手牌数、庄家唯一、当前座位合法
func (eg *Engine) verifyInvariants() error {
	var counts [mahjong.IndexCount]int
	total := eg.deck.Remaining()
	for _, t := range eg.discardPile {
		counts[t.Index()]++
		total++
	}
	for _, p := range eg.players {
		total += p.TotalTiles()
		for idx, c := range p.Hand {
			counts[idx] += int(c)
		}
		for _, m := range p.Melds {
			for _, t := range m.Tiles {
				counts[t.Index()]++
			}
		}
	}
	if eg.phase == PhasePlaying && total != eg.Config.Tiles.DeckSize() {
		return fmt.Errorf("实体牌总数 %d 与牌副 %d 不符", total, eg.Config.Tiles.DeckSize())
	}
	for idx, c := range counts {
		if c > mahjong.CopiesPerTile {
			return fmt.Errorf("牌 %s 出现 %d 张", mahjong.TileFromIndex(idx), c)
		}
	}
	// 行牌中每家折算手牌 13 张，该出牌的那家多一张。
	// 杠的第四张不计入折算
	if eg.phase == PhasePlaying {
		for seat, p := range eg.players {
			expect := 13
			if eg.claim == nil && seat == eg.currentSeat {
				expect = 14
			}
			if got := p.TotalTiles() - p.GangCount(); got != expect {
				return fmt.Errorf("座位 %d 折算手牌 %d 张, 应为 %d", seat, got, expect)
			}
		}
	}
	dealers := 0
	for _, p := range eg.players {
		if p.IsDealer {
			dealers++
		}
	}
	if dealers != 1 {
		return fmt.Errorf("庄家数量异常: %d", dealers)
	}
	if eg.currentSeat < 0 || eg.currentSeat >= mahjong.PlayerLimit {
		return fmt.Errorf("当前座位越界: %d", eg.currentSeat)
	}
	return nil
}

// snapshotFor 生成指定座位的个人视角快照。forSeat 为 -1 时
// 带全部手牌，仅用于落库
func (eg *Engine) snapshotFor(forSeat int) *Snapshot {
	snap := &Snapshot{
		RoomID:        eg.RoomID,
		GameID:        eg.GameID,
		Phase:         eg.phase,
		ForSeat:       forSeat,
		DiscardPile:   append([]mahjong.Tile(nil), eg.discardPile...),
		WallRemaining: eg.deck.Remaining(),
		CurrentSeat:   eg.currentSeat,
		DealerSeat:    eg.dealerSeat,
		TurnDeadline:  eg.turnDeadline,
		RoundIndex:    eg.roundIndex,
		Degraded:      eg.degraded,
	}
	if eg.claim != nil {
		snap.ClaimDeadline = eg.claim.Deadline
	}
	for seat, p := range eg.players {
		sp := SnapshotPlayer{
			Seat:         seat,
			UserID:       p.UserID,
			Status:       p.Status,
			IsDealer:     p.IsDealer,
			Score:        p.Score,
			Melds:        append([]mahjong.Meld(nil), p.Melds...),
			HandCount:    p.Hand.Size(),
			TimeoutCount: p.TimeoutCount,
		}
		if forSeat < 0 || forSeat == seat {
			sp.Hand = p.Hand.Tiles()
			sp.Available = append([]mahjong.ActionKind(nil), p.Available...)
		}
		snap.Players = append(snap.Players, sp)
	}
	return snap
}

// pushSnapshots 给每个在线座位推各自视角的全量状态
func (eg *Engine) pushSnapshots() {
	for seat, p := range eg.players {
		if p.Status == mahjong.StatusDisconnected {
			continue
		}
		eg.broadcaster.SendToUser(p.UserID, EvGameStateUpdate, eg.snapshotFor(seat))
	}
}

// persistLive 每次状态变更后同步写 Redis。写失败降级为纯内存，
// 对局继续但不再支持跨节点恢复
func (eg *Engine) persistLive() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := eg.liveStore.SaveGameState(ctx, eg.RoomID, eg.snapshotFor(-1)); err != nil {
		if !eg.degraded {
			log.Error("房间 %s 在线状态写入失败, 降级为纯内存: %v", eg.RoomID, err)
		}
		eg.degraded = true
	}
}

func (eg *Engine) persistDelete() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := eg.liveStore.DeleteGameState(ctx, eg.RoomID); err != nil {
		log.Warn("房间 %s 在线状态清理失败: %v", eg.RoomID, err)
	}
}

// settleWin 胡牌结算
func (eg *Engine) settleWin(winners []mahjong.Winner, discarderSeat int) {
	var melds [mahjong.PlayerLimit][]mahjong.Meld
	for seat, p := range eg.players {
		melds[seat] = p.Melds
	}
	settlement := mahjong.Settle(mahjong.SettleContext{
		Config:        eg.Config.Score,
		Hu:            eg.Config.Hu,
		DealerSeat:    eg.dealerSeat,
		DiscarderSeat: discarderSeat,
		Winners:       winners,
		Melds:         melds,
	})
	eg.winSelfDraw = discarderSeat == mahjong.NoClaimSource
	eg.finishRound(settlement)
}

// settleDrawOut 牌墙摸空流局，只结杠分
func (eg *Engine) settleDrawOut() {
	log.Info("房间 %s 牌墙摸空, 流局", eg.RoomID)
	var melds [mahjong.PlayerLimit][]mahjong.Meld
	for seat, p := range eg.players {
		melds[seat] = p.Melds
	}
	settlement := mahjong.Settle(mahjong.SettleContext{
		Config:        eg.Config.Score,
		Hu:            eg.Config.Hu,
		DealerSeat:    eg.dealerSeat,
		DiscarderSeat: mahjong.NoClaimSource,
		Melds:         melds,
	})
	eg.finishRound(settlement)
}

// finishRound 封存终局：计分入座、记录落库、广播结果
func (eg *Engine) finishRound(settlement *mahjong.Settlement) {
	eg.setPhase(PhaseSettlement)
	eg.settlement = settlement
	eg.claim = nil
	for seat, p := range eg.players {
		p.Score += settlement.Deltas[seat]
		p.Status = mahjong.StatusFinished
		p.SetAvailable()
	}
	eg.appendLog(mahjong.NoClaimSource, LogSettle, ActionPayload{})

	eg.finalHands = eg.finalHands[:0]
	for seat, p := range eg.players {
		eg.finalHands = append(eg.finalHands, FinalHand{
			Seat:   seat,
			UserID: p.UserID,
			Tiles:  p.Hand.Tiles(),
			Melds:  append([]mahjong.Meld(nil), p.Melds...),
		})
	}
	eg.record = eg.sealRecord()

	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvGameEnd, map[string]any{
		"gameId":     eg.GameID,
		"settlement": settlement,
		"finalHands": eg.finalHands,
	})
	eg.tryFinishPersist()
}

// sealRecord 组装不可变的对局记录
func (eg *Engine) sealRecord() *GameRecord {
	record := &GameRecord{
		GameID:     eg.GameID,
		RoomID:     eg.RoomID,
		Seed:       eg.seed,
		DealerSeat: eg.dealerSeat,
		Config:     eg.Config,
		Actions:    append([]ActionLogEntry(nil), eg.actionLog...),
		FinalHands: append([]FinalHand(nil), eg.finalHands...),
		Settlement: eg.settlement,
		Result:     eg.settlement.Result,
		CreatedAt:  eg.now(),
	}
	if len(eg.settlement.Winners) == 1 {
		record.WinnerUserID = eg.players[eg.settlement.Winners[0].Seat].UserID
	}
	return record
}

// tryFinishPersist 终局记录落库。失败时留在 SETTLEMENT 并定时重试，
// FINISHED 只在落库成功后进入
func (eg *Engine) tryFinishPersist() {
	if eg.phase != PhaseSettlement || eg.record == nil {
		return
	}
	playerRecords := make([]GamePlayerRecord, 0, mahjong.PlayerLimit)
	for seat, p := range eg.players {
		pr := GamePlayerRecord{
			GameID:   eg.GameID,
			UserID:   p.UserID,
			Seat:     seat,
			Result:   "LOSE",
			Score:    eg.settlement.Deltas[seat],
			IsDealer: seat == eg.dealerSeat,
		}
		if eg.settlement.Result == mahjong.ResultDraw {
			pr.Result = mahjong.ResultDraw
		}
		for _, w := range eg.settlement.Winners {
			if w.Seat == seat {
				pr.Result = mahjong.ResultWin
				pr.IsSelfDraw = eg.winSelfDraw
			}
		}
		playerRecords = append(playerRecords, pr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := eg.recordStore.SaveGameRecord(ctx, eg.record, playerRecords); err != nil {
		log.Error("房间 %s 终局记录落库失败, 稍后重试: %v", eg.RoomID, err)
		time.AfterFunc(persistRetryDelay, func() {
			eg.NotifyEvent(&RetryPersistEvent{})
		})
		return
	}

	eg.setPhase(PhaseFinished)
	eg.persistDelete()
	log.Info("房间 %s 对局结束, gameId=%s result=%s", eg.RoomID, eg.GameID, eg.settlement.Result)
	if eg.onFinished != nil {
		eg.onFinished(eg.RoomID)
	}
}
