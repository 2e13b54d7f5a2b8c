package game

import (
	"testing"
	"time"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

type recordingBroadcaster struct {
	roomEvents []string
	userEvents map[int64][]string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{userEvents: make(map[int64][]string)}
}

func (r *recordingBroadcaster) BroadcastToRoom(roomID string, event string, data any) {
	r.roomEvents = append(r.roomEvents, event)
}

func (r *recordingBroadcaster) SendToUser(userID int64, event string, data any) {
	r.userEvents[userID] = append(r.userEvents[userID], event)
}

func (r *recordingBroadcaster) roomCount(event string) int {
	n := 0
	for _, e := range r.roomEvents {
		if e == event {
			n++
		}
	}
	return n
}

func testConfig() mahjong.Config {
	cfg := mahjong.DefaultConfig()
	cfg.Turn.TrusteeTimeoutCount = 2
	return cfg
}

func tile(t *testing.T, s string) mahjong.Tile {
	t.Helper()
	tl, err := mahjong.ParseTile(s)
	if err != nil {
		t.Fatalf("parse tile %q: %v", s, err)
	}
	return tl
}

func mustHand(t *testing.T, ss ...string) mahjong.Hand27 {
	t.Helper()
	tiles, err := mahjong.ParseTiles(ss)
	if err != nil {
		t.Fatalf("parse tiles: %v", err)
	}
	return mahjong.NewHand27(tiles)
}

// newPlayingEngine 构造一个进行中的对局，手牌由各测试自行摆放
func newPlayingEngine(t *testing.T, cfg mahjong.Config) (*Engine, *recordingBroadcaster) {
	t.Helper()
	rec := newRecordingBroadcaster()
	eg := NewEngine("123456", cfg, [3]int64{101, 102, 103}, 0, 42, Deps{Broadcaster: rec})
	eg.deck.InitRound()
	eg.setPhase(PhasePlaying)
	eg.roundIndex = 1
	eg.currentSeat = 0
	eg.players[0].Status = mahjong.StatusPlaying
	eg.players[1].Status = mahjong.StatusWaitingTurn
	eg.players[2].Status = mahjong.StatusWaitingTurn
	eg.turnDeadline = time.Now().Add(30 * time.Second)
	return eg, rec
}

func TestStartRoundDealsHands(t *testing.T) {
	rec := newRecordingBroadcaster()
	eg := NewEngine("123456", testConfig(), [3]int64{101, 102, 103}, 1, 7, Deps{Broadcaster: rec})
	eg.handleStartRound()

	if eg.phase != PhasePlaying {
		t.Fatalf("phase after deal = %s, want PLAYING", eg.phase)
	}
	if got := eg.players[1].Hand.Size(); got != 14 {
		t.Fatalf("dealer hand size = %d, want 14", got)
	}
	for _, seat := range []int{0, 2} {
		if got := eg.players[seat].Hand.Size(); got != 13 {
			t.Fatalf("seat %d hand size = %d, want 13", seat, got)
		}
	}
	if got := eg.deck.Remaining(); got != 108-40 {
		t.Fatalf("wall remaining = %d, want %d", got, 108-40)
	}
	if eg.currentSeat != 1 {
		t.Fatalf("current seat = %d, want dealer 1", eg.currentSeat)
	}
	if rec.roomCount(EvGameStart) != 1 {
		t.Fatalf("gameStart broadcast count = %d, want 1", rec.roomCount(EvGameStart))
	}
	if len(eg.actionLog) != 1 || eg.actionLog[0].Kind != LogDraw {
		t.Fatalf("first log entry must be dealer draw, got %+v", eg.actionLog)
	}
}

func TestDiscardWithoutClaimAdvancesTurn(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W")

	if err := eg.applyDiscard(0, tile(t, "2W")); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if eg.claim != nil {
		t.Fatalf("no one can claim, window must not open")
	}
	if eg.currentSeat != 1 {
		t.Fatalf("current seat = %d, want 1", eg.currentSeat)
	}
	if len(eg.discardPile) != 1 || eg.discardPile[0] != tile(t, "2W") {
		t.Fatalf("discard pile = %v", eg.discardPile)
	}
	// 下家已经摸牌
	if eg.players[1].NewestTile == nil {
		t.Fatalf("next seat must have drawn")
	}
}

func TestDiscardValidation(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W")

	if err := eg.applyDiscard(1, tile(t, "1W")); CodeOf(err) != CodeNotYourTurn {
		t.Fatalf("out-of-turn discard error = %v, want NOT_YOUR_TURN", err)
	}
	if err := eg.applyDiscard(0, tile(t, "9C")); CodeOf(err) != CodeTileNotInHand {
		t.Fatalf("absent tile error = %v, want TILE_NOT_IN_HAND", err)
	}
}

func TestClaimPriorityHuBeatsPeng(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "5W", "1T")
	eg.players[1].Hand = mustHand(t, "5W", "5W", "1T", "2T", "7C")
	eg.players[2].Hand = mustHand(t, "1W", "1W", "1W", "2W", "3W", "4W", "6W", "7W", "8W", "9W", "9W", "5W", "5W")

	if err := eg.applyDiscard(0, tile(t, "5W")); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if eg.claim == nil {
		t.Fatalf("claim window must open")
	}
	if !eg.claim.HasCandidate(1, mahjong.ActionPeng) {
		t.Fatalf("seat 1 must be peng candidate")
	}
	if !eg.claim.HasCandidate(2, mahjong.ActionHu) {
		t.Fatalf("seat 2 must be hu candidate")
	}

	if err := eg.applyClaimDecision(1, PlayerAction{Kind: mahjong.ActionPeng}); err != nil {
		t.Fatalf("peng decision failed: %v", err)
	}
	// 碰先到也要等窗口收齐，胡后到仍然赢下仲裁
	if err := eg.applyClaimDecision(2, PlayerAction{Kind: mahjong.ActionHu}); err != nil {
		t.Fatalf("hu decision failed: %v", err)
	}

	if eg.Phase() != PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", eg.Phase())
	}
	if len(eg.players[1].Melds) != 0 {
		t.Fatalf("losing peng must not execute")
	}
	if len(eg.settlement.Winners) != 1 || eg.settlement.Winners[0].Seat != 2 {
		t.Fatalf("winners = %+v, want seat 2", eg.settlement.Winners)
	}
	var sum int64
	for _, d := range eg.settlement.Deltas {
		sum += d
	}
	if sum != 0 {
		t.Fatalf("deltas not zero-sum: %v", eg.settlement.Deltas)
	}
}

func TestLateClaimRejected(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W")
	if err := eg.applyDiscard(0, tile(t, "2W")); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	// 窗口没开或已关，碰一律拒绝
	err := eg.applyClaimDecision(1, PlayerAction{Kind: mahjong.ActionPeng})
	if CodeOf(err) != CodeClaimWindowClosed {
		t.Fatalf("late peng error = %v, want CLAIM_WINDOW_CLOSED", err)
	}
}

func TestPengTransfersTurnWithoutDraw(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "5W", "1T")
	eg.players[1].Hand = mustHand(t, "5W", "5W", "8C")
	before := eg.deck.Remaining()

	if err := eg.applyDiscard(0, tile(t, "5W")); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if err := eg.applyClaimDecision(1, PlayerAction{Kind: mahjong.ActionPeng}); err != nil {
		t.Fatalf("peng failed: %v", err)
	}

	if eg.currentSeat != 1 {
		t.Fatalf("current seat = %d, want claimer 1", eg.currentSeat)
	}
	if eg.deck.Remaining() != before {
		t.Fatalf("peng must not draw from wall")
	}
	if len(eg.players[1].Melds) != 1 || eg.players[1].Melds[0].Kind != mahjong.MeldPeng {
		t.Fatalf("melds = %+v", eg.players[1].Melds)
	}
	if len(eg.discardPile) != 0 {
		t.Fatalf("claimed tile must leave the discard pile")
	}
	if !eg.players[1].HasAction(mahjong.ActionDiscard) {
		t.Fatalf("claimer must be on discard duty")
	}
}

func TestPengDoesNotInheritStaleDrawAsSelfDraw(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "5W", "1T")
	eg.players[1].Hand = mustHand(t,
		"1W", "1W", "1W", "2W", "3W", "4W", "6W", "7W", "8W", "9W", "5W", "5W", "1T")
	// 座位 1 上一轮摸进 9W 打出 1T，最新摸牌状态随出牌结束
	eg.players[1].DrawTile(tile(t, "9W"))
	if !eg.players[1].DiscardTile(tile(t, "1T")) {
		t.Fatalf("setup discard failed")
	}
	if eg.players[1].NewestTile != nil {
		t.Fatalf("discard must clear the newest tile")
	}

	if err := eg.applyDiscard(0, tile(t, "5W")); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if err := eg.applyClaimDecision(1, PlayerAction{Kind: mahjong.ActionPeng}); err != nil {
		t.Fatalf("peng failed: %v", err)
	}

	// 碰完没有摸牌，不能当成自摸开胡
	if eg.players[1].HasAction(mahjong.ActionHu) {
		t.Fatalf("peng without a draw must not offer hu, actions = %v", eg.players[1].Available)
	}
	err := eg.applySelfDrawHu(1, PlayerAction{Kind: mahjong.ActionHu})
	if CodeOf(err) != CodeActionNotAvailable {
		t.Fatalf("hu after peng error = %v, want ACTION_NOT_AVAILABLE", err)
	}
}

func TestMingGangDrawsReplacementFromBack(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "5W", "1T")
	eg.players[1].Hand = mustHand(t, "5W", "5W", "5W", "8C")
	before := eg.deck.Remaining()

	if err := eg.applyDiscard(0, tile(t, "5W")); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if err := eg.applyClaimDecision(1, PlayerAction{Kind: mahjong.ActionGang, GangKind: mahjong.GangMing}); err != nil {
		t.Fatalf("gang failed: %v", err)
	}

	if eg.deck.Remaining() != before-1 {
		t.Fatalf("gang must draw exactly one replacement")
	}
	meld := eg.players[1].Melds[0]
	if meld.Kind != mahjong.MeldGang || meld.GangKind != mahjong.GangMing {
		t.Fatalf("meld = %+v, want MING gang", meld)
	}
	if eg.currentSeat != 1 || eg.players[1].NewestTile == nil {
		t.Fatalf("claimer must hold the replacement and the turn")
	}
}

func TestConcealedGangReplacement(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "9W", "9W", "9W", "9W", "1T", "2T")
	before := eg.deck.Remaining()

	err := eg.applyOwnGang(0, PlayerAction{
		Kind:     mahjong.ActionGang,
		GangKind: mahjong.GangAn,
		Tile:     tile(t, "9W"),
	})
	if err != nil {
		t.Fatalf("an gang failed: %v", err)
	}
	if eg.deck.Remaining() != before-1 {
		t.Fatalf("replacement draw missing")
	}
	meld := eg.players[0].Melds[0]
	if meld.GangKind != mahjong.GangAn || !meld.Concealed {
		t.Fatalf("meld = %+v, want concealed AN gang", meld)
	}
	if eg.players[0].Hand.Count(tile(t, "9W")) != 0 {
		t.Fatalf("gang tiles must leave the hand")
	}
	// 日志先杠后补
	n := len(eg.actionLog)
	if n < 2 || eg.actionLog[n-2].Kind != mahjong.ActionGang || eg.actionLog[n-1].Kind != LogDrawBack {
		t.Fatalf("log tail = %+v", eg.actionLog)
	}
}

func TestSelfDrawHuSettles(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t,
		"1W", "1W", "1W", "2W", "2W", "3W", "4W", "5W", "6W", "7W", "8W", "9W", "9W", "9W")
	newest := tile(t, "2W")
	eg.players[0].NewestTile = &newest

	if err := eg.applySelfDrawHu(0, PlayerAction{Kind: mahjong.ActionHu}); err != nil {
		t.Fatalf("self-draw hu failed: %v", err)
	}
	if eg.Phase() != PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", eg.Phase())
	}
	if eg.settlement.Result != mahjong.ResultWin {
		t.Fatalf("result = %s", eg.settlement.Result)
	}
	if eg.settlement.Winners[0].Seat != 0 {
		t.Fatalf("winner = %+v", eg.settlement.Winners)
	}
	var sum int64
	for _, d := range eg.settlement.Deltas {
		sum += d
	}
	if sum != 0 {
		t.Fatalf("deltas not zero-sum: %v", eg.settlement.Deltas)
	}
	record := eg.Record()
	if record == nil || record.Result != mahjong.ResultWin || record.WinnerUserID != 101 {
		t.Fatalf("record = %+v", record)
	}
}

func TestInvalidSelfDrawHuRejected(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t,
		"1W", "1W", "1W", "2W", "2W", "3W", "4W", "5W", "6W", "7W", "8W", "9W", "9W", "1T")
	newest := tile(t, "1T")
	eg.players[0].NewestTile = &newest

	err := eg.applySelfDrawHu(0, PlayerAction{Kind: mahjong.ActionHu})
	if CodeOf(err) != CodeInvalidWin {
		t.Fatalf("error = %v, want INVALID_WIN", err)
	}
	if eg.phase != PhasePlaying {
		t.Fatalf("failed hu must not end the round")
	}
}

func TestTurnTimeoutAutoDiscards(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W")

	eg.handleTimeout(&TimeoutEvent{Kind: TimeoutTurn, AsOfDeadline: eg.turnDeadline})

	if eg.players[0].TimeoutCount != 1 {
		t.Fatalf("timeout count = %d, want 1", eg.players[0].TimeoutCount)
	}
	if len(eg.discardPile) != 1 {
		t.Fatalf("timeout must auto-discard, pile = %v", eg.discardPile)
	}
	if eg.currentSeat != 1 {
		t.Fatalf("turn must advance, current = %d", eg.currentSeat)
	}
}

func TestStaleTimeoutIgnored(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W")

	eg.handleTimeout(&TimeoutEvent{Kind: TimeoutTurn, AsOfDeadline: eg.turnDeadline.Add(-time.Second)})

	if eg.players[0].TimeoutCount != 0 {
		t.Fatalf("stale deadline must be ignored")
	}
	if len(eg.discardPile) != 0 {
		t.Fatalf("stale deadline must not discard")
	}
}

func TestConsecutiveTimeoutsActivateTrustee(t *testing.T) {
	eg, rec := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W")

	for i := 0; i < 4; i++ {
		eg.handleTimeout(&TimeoutEvent{Kind: TimeoutTurn, AsOfDeadline: eg.turnDeadline})
		if eg.phase != PhasePlaying {
			t.Fatalf("round ended unexpectedly at step %d", i)
		}
	}
	// 座位 0 两次超时后进入托管，且只广播一次
	if eg.players[0].Status != mahjong.StatusTrustee {
		t.Fatalf("seat 0 status = %s, want TRUSTEE", eg.players[0].Status)
	}
	if got := rec.roomCount(EvPlayerTrusteeActivated); got != 1 {
		t.Fatalf("trustee broadcast count = %d, want 1", got)
	}
}

func TestDisconnectGraceAndReconnect(t *testing.T) {
	eg, rec := newPlayingEngine(t, testConfig())
	eg.players[1].Hand = mustHand(t, "3W", "4W")
	at := time.Now()

	eg.handleDisconnect(&DisconnectEvent{UserID: 102, At: at})
	if eg.players[1].Status != mahjong.StatusDisconnected {
		t.Fatalf("status = %s, want DISCONNECTED", eg.players[1].Status)
	}

	// 或早或晚的过期事件都不算数
	eg.handleGraceExpired(&GraceExpiredEvent{UserID: 102, AsOf: at.Add(time.Second)})
	if eg.players[1].Status != mahjong.StatusDisconnected {
		t.Fatalf("mismatched grace event must be ignored")
	}

	eg.handleGraceExpired(&GraceExpiredEvent{UserID: 102, AsOf: at})
	if eg.players[1].Status != mahjong.StatusTrustee {
		t.Fatalf("status = %s, want TRUSTEE", eg.players[1].Status)
	}

	eg.players[1].TimeoutCount = 2
	snapshot, err := eg.handleReconnect(&ReconnectEvent{UserID: 102, At: time.Now()})
	if err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if eg.players[1].Status != mahjong.StatusWaitingTurn {
		t.Fatalf("status after reconnect = %s", eg.players[1].Status)
	}
	if eg.players[1].TimeoutCount != 0 {
		t.Fatalf("timeout count must reset on reconnect")
	}
	if snapshot.ForSeat != 1 {
		t.Fatalf("snapshot.ForSeat = %d, want 1", snapshot.ForSeat)
	}
	if rec.roomCount(EvPlayerReconnected) != 1 {
		t.Fatalf("reconnect broadcast missing")
	}
}

func TestSnapshotHidesOtherHands(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Hand = mustHand(t, "1W", "2W", "3W")
	eg.players[1].Hand = mustHand(t, "4W", "5W")

	snap := eg.snapshotFor(0)
	if len(snap.Players[0].Hand) != 3 {
		t.Fatalf("own hand must be visible, got %v", snap.Players[0].Hand)
	}
	if snap.Players[1].Hand != nil {
		t.Fatalf("other hand must be hidden, got %v", snap.Players[1].Hand)
	}
	if snap.Players[1].HandCount != 2 {
		t.Fatalf("other hand count = %d, want 2", snap.Players[1].HandCount)
	}

	full := eg.snapshotFor(-1)
	if len(full.Players[0].Hand) != 3 || len(full.Players[1].Hand) != 2 {
		t.Fatalf("persistence snapshot must carry all hands")
	}
}

func TestConservationViolationRejectsAction(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	// 手牌未从牌墙扣除，实体牌守恒必然失败
	eg.players[0].Hand = mustHand(t, "1W", "2W")

	err := eg.handleAction(&ActionEvent{UserID: 101, Action: PlayerAction{Kind: mahjong.ActionDiscard, Tile: tile(t, "1W")}})
	if CodeOf(err) != CodeStateInvariantViolated {
		t.Fatalf("error = %v, want STATE_INVARIANT_VIOLATED", err)
	}
	if eg.players[0].Hand.Count(tile(t, "1W")) != 1 {
		t.Fatalf("rejected action must leave prior state intact")
	}
	if len(eg.discardPile) != 0 {
		t.Fatalf("discard pile must be restored")
	}
	if !eg.Degraded() {
		t.Fatalf("room must be flagged degraded")
	}
}

func TestHandSizeViolationRejectsAction(t *testing.T) {
	rec := newRecordingBroadcaster()
	eg := NewEngine("123456", testConfig(), [3]int64{101, 102, 103}, 0, 11, Deps{Broadcaster: rec})
	eg.handleStartRound()

	// 座位间挪一张牌，总量守恒不破，只有手牌数校验能抓出来
	moved := eg.players[2].Hand.Tiles()[0]
	eg.players[2].Hand.Remove(moved)
	eg.players[1].Hand.Add(moved)

	newest := eg.players[0].NewestTile
	if newest == nil {
		t.Fatalf("dealer must hold the drawn tile")
	}
	err := eg.handleAction(&ActionEvent{
		UserID: 101,
		Action: PlayerAction{Kind: mahjong.ActionDiscard, Tile: *newest},
	})
	if CodeOf(err) != CodeStateInvariantViolated {
		t.Fatalf("error = %v, want STATE_INVARIANT_VIOLATED", err)
	}
}

func TestDissolveEndsWithoutSettlement(t *testing.T) {
	eg, rec := newPlayingEngine(t, testConfig())
	eg.handleDissolve("全员投票")

	if eg.Phase() != PhaseFinished {
		t.Fatalf("phase = %s, want FINISHED", eg.Phase())
	}
	if eg.settlement != nil {
		t.Fatalf("dissolve must not settle")
	}
	if rec.roomCount(EvRoomDissolved) != 1 {
		t.Fatalf("dissolve broadcast missing")
	}
}

func TestDrawOutSettlesGangBonusOnly(t *testing.T) {
	eg, _ := newPlayingEngine(t, testConfig())
	eg.players[0].Melds = append(eg.players[0].Melds, mahjong.NewAnGang(tile(t, "9W")))

	eg.settleDrawOut()

	if eg.settlement.Result != mahjong.ResultDraw {
		t.Fatalf("result = %s, want DRAW", eg.settlement.Result)
	}
	// 暗杠向其余两家各收四倍杠分
	want := 4 * eg.Config.Score.GangBonus * 2
	if eg.settlement.Deltas[0] != want {
		t.Fatalf("gang deltas = %v, want seat 0 +%d", eg.settlement.Deltas, want)
	}
	var sum int64
	for _, d := range eg.settlement.Deltas {
		sum += d
	}
	if sum != 0 {
		t.Fatalf("deltas not zero-sum: %v", eg.settlement.Deltas)
	}
}

func TestHandleActionDiscardOnRealDeal(t *testing.T) {
	rec := newRecordingBroadcaster()
	eg := NewEngine("123456", testConfig(), [3]int64{101, 102, 103}, 0, 11, Deps{Broadcaster: rec})
	eg.handleStartRound()

	newest := eg.players[0].NewestTile
	if newest == nil {
		t.Fatalf("dealer must hold the drawn tile")
	}
	err := eg.handleAction(&ActionEvent{
		UserID: 101,
		Action: PlayerAction{Kind: mahjong.ActionDiscard, Tile: *newest},
	})
	if err != nil {
		t.Fatalf("discard over a real deal failed: %v", err)
	}
	if eg.Degraded() {
		t.Fatalf("conservation must hold over a real deal")
	}
	if len(eg.actionLog) < 2 {
		t.Fatalf("discard must be logged")
	}
}

// 整局托管替打跑完，再用日志重放核对终局
func TestFullGameReplayRoundTrip(t *testing.T) {
	for _, seed := range []int64{1, 7, 20260826} {
		rec := newRecordingBroadcaster()
		eg := NewEngine("654321", testConfig(), [3]int64{101, 102, 103}, 0, seed, Deps{Broadcaster: rec})
		eg.handleStartRound()

		guard := 0
		for eg.phase == PhasePlaying && guard < 1000 {
			guard++
			if eg.claim != nil {
				eg.handleTimeout(&TimeoutEvent{Kind: TimeoutClaim, AsOfDeadline: eg.claim.Deadline})
			} else {
				eg.handleTimeout(&TimeoutEvent{Kind: TimeoutTurn, AsOfDeadline: eg.turnDeadline})
			}
		}
		if eg.Phase() != PhaseFinished {
			t.Fatalf("seed %d: game did not finish, phase=%s guard=%d", seed, eg.Phase(), guard)
		}

		record := eg.Record()
		if record == nil {
			t.Fatalf("seed %d: record missing", seed)
		}
		for i, entry := range record.Actions {
			if entry.Seq != i+1 {
				t.Fatalf("seed %d: log has a gap at %d: %+v", seed, i, entry)
			}
		}
		var sum int64
		for _, d := range record.Settlement.Deltas {
			sum += d
		}
		if sum != 0 {
			t.Fatalf("seed %d: deltas not zero-sum: %v", seed, record.Settlement.Deltas)
		}
		if err := VerifyRecord(record); err != nil {
			t.Fatalf("seed %d: replay mismatch: %v", seed, err)
		}
	}
}
