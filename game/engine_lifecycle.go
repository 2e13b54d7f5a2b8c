package game

import (
	"time"

	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// handleTimeout 截止事件。只认当前存活的截止时间，
// 被动作或补牌移动过的旧定时器直接丢弃
func (eg *Engine) handleTimeout(ev *TimeoutEvent) {
	switch ev.Kind {
	case TimeoutTurn:
		if eg.phase != PhasePlaying || eg.claim != nil {
			return
		}
		if !ev.AsOfDeadline.Equal(eg.turnDeadline) {
			return
		}
		seat := eg.currentSeat
		eg.markTimeout(seat)
		log.Info("房间 %s 座位 %d 出牌超时, 系统替打", eg.RoomID, seat)
		eg.trusteePlayTurn(seat)
	case TimeoutClaim:
		if eg.claim == nil || !ev.AsOfDeadline.Equal(eg.claim.Deadline) {
			return
		}
		for seat := range eg.claim.Candidates {
			if _, ok := eg.claim.Decisions[seat]; !ok {
				eg.markTimeout(seat)
			}
		}
		eg.claim.FillPasses()
		eg.resolveClaim()
	default:
		log.Warn("未知的截止类型: %s", ev.Kind)
		return
	}
	eg.pushSnapshots()
	eg.persistLive()
}

// markTimeout 累计超时次数，达到阈值进入托管
func (eg *Engine) markTimeout(seat int) {
	p := eg.players[seat]
	p.TimeoutCount++
	if !eg.Config.Turn.AutoTrustee {
		return
	}
	if p.TimeoutCount >= eg.Config.Turn.TrusteeTimeoutCount &&
		p.Status != mahjong.StatusTrustee && p.Status != mahjong.StatusDisconnected {
		eg.enterTrustee(seat, "连续超时")
	}
}

// enterTrustee 进入托管，重复进入不再广播
func (eg *Engine) enterTrustee(seat int, reason string) {
	p := eg.players[seat]
	if p.Status == mahjong.StatusTrustee {
		return
	}
	p.Status = mahjong.StatusTrustee
	log.Info("房间 %s 座位 %d 进入托管: %s", eg.RoomID, seat, reason)
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvPlayerTrusteeActivated, map[string]any{
		"seat":   seat,
		"userId": p.UserID,
		"reason": reason,
	})
}

// trusteePlayTurn 替打一手：能胡就胡，否则打最新摸的牌
func (eg *Engine) trusteePlayTurn(seat int) {
	p := eg.players[seat]
	if p.HasAction(mahjong.ActionHu) {
		if err := eg.applySelfDrawHu(seat, PlayerAction{Kind: mahjong.ActionHu}); err == nil {
			return
		}
	}
	tile, ok := p.NewestOrHighest()
	if !ok {
		eg.HappenDamageError("托管替打时手牌为空")
		return
	}
	if err := eg.applyDiscard(seat, tile); err != nil {
		log.Error("房间 %s 座位 %d 托管出牌失败: %v", eg.RoomID, seat, err)
	}
}

// trusteeClaimDecision 响应窗口里的替打：能胡就胡，否则过牌
func (eg *Engine) trusteeClaimDecision(seat int) {
	kind := mahjong.ActionPass
	if eg.claim != nil && eg.claim.HasCandidate(seat, mahjong.ActionHu) {
		kind = mahjong.ActionHu
	}
	if err := eg.applyClaimDecision(seat, PlayerAction{Kind: kind}); err != nil {
		log.Error("房间 %s 座位 %d 托管响应失败: %v", eg.RoomID, seat, err)
	}
}

// handleDisconnect 断线进入宽限期，宽限期内状态原地保留
func (eg *Engine) handleDisconnect(ev *DisconnectEvent) {
	seat, err := eg.seatOf(ev.UserID)
	if err != nil {
		return
	}
	if _, ok := eg.disconnectedAt[ev.UserID]; ok {
		return
	}
	eg.disconnectedAt[ev.UserID] = ev.At
	p := eg.players[seat]
	p.Status = mahjong.StatusDisconnected
	log.Info("房间 %s 座位 %d 断线, 宽限 %d 秒", eg.RoomID, seat, eg.Config.Turn.GraceSeconds)
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvPlayerDisconnected, map[string]any{
		"seat":         seat,
		"userId":       ev.UserID,
		"graceSeconds": eg.Config.Turn.GraceSeconds,
	})

	asOf := ev.At
	grace := time.Duration(eg.Config.Turn.GraceSeconds) * time.Second
	time.AfterFunc(grace, func() {
		eg.NotifyEvent(&GraceExpiredEvent{UserID: ev.UserID, AsOf: asOf})
	})
	eg.pushSnapshots()
	eg.persistLive()
}

// handleGraceExpired 宽限期到仍未回来，托管接管
func (eg *Engine) handleGraceExpired(ev *GraceExpiredEvent) {
	at, ok := eg.disconnectedAt[ev.UserID]
	if !ok || !at.Equal(ev.AsOf) {
		return
	}
	if eg.phase != PhasePlaying {
		return
	}
	seat, err := eg.seatOf(ev.UserID)
	if err != nil {
		return
	}
	eg.enterTrustee(seat, "断线宽限期到")
	if eg.claim != nil {
		if eg.claim.HasCandidate(seat, mahjong.ActionHu) || eg.claim.HasCandidate(seat, mahjong.ActionPass) {
			if _, decided := eg.claim.Decisions[seat]; !decided {
				eg.trusteeClaimDecision(seat)
			}
		}
	} else if seat == eg.currentSeat {
		eg.trusteePlayTurn(seat)
	}
	eg.pushSnapshots()
	eg.persistLive()
}

// handleReconnect 重连：退出托管、清零超时计数、回个人视角快照。
// 重连时限由会话层把关，引擎只认座位
func (eg *Engine) handleReconnect(ev *ReconnectEvent) (*Snapshot, error) {
	seat, err := eg.seatOf(ev.UserID)
	if err != nil {
		return nil, err
	}
	delete(eg.disconnectedAt, ev.UserID)
	p := eg.players[seat]
	if p.Status == mahjong.StatusDisconnected || p.Status == mahjong.StatusTrustee {
		p.TimeoutCount = 0
		switch {
		case eg.phase != PhasePlaying:
			p.Status = mahjong.StatusFinished
		case seat == eg.currentSeat:
			p.Status = mahjong.StatusPlaying
		default:
			p.Status = mahjong.StatusWaitingTurn
		}
		eg.broadcaster.BroadcastToRoom(eg.RoomID, EvPlayerReconnected, map[string]any{
			"seat":   seat,
			"userId": ev.UserID,
		})
	}
	log.Info("房间 %s 座位 %d 重连成功", eg.RoomID, seat)
	eg.persistLive()
	return eg.snapshotFor(seat), nil
}

// handleDissolve 解散对局，不做胡牌结算
func (eg *Engine) handleDissolve(reason string) {
	if eg.phase == PhaseFinished {
		return
	}
	log.Info("房间 %s 解散: %s", eg.RoomID, reason)
	eg.setPhase(PhaseFinished)
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvRoomDissolved, map[string]any{
		"reason": reason,
	})
	eg.persistDelete()
	if eg.onFinished != nil {
		eg.onFinished(eg.RoomID)
	}
}
