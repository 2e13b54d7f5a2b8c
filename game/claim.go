package game

import (
	"time"

	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// ClaimDecision 一个候选座位提交的响应
type ClaimDecision struct {
	Kind     mahjong.ActionKind
	GangKind mahjong.GangKind
	Sequence []mahjong.Tile
}

// ClaimWindow 弃牌后的响应窗口。所有候选都表态或到点即关闭，
// 未表态按过牌处理。窗口关闭前任何响应都不对外可见
type ClaimWindow struct {
	Tile          mahjong.Tile
	DiscarderSeat int
	Candidates    map[int][]mahjong.ActionKind
	Decisions     map[int]*ClaimDecision
	Deadline      time.Time
}

func NewClaimWindow(tile mahjong.Tile, discarderSeat int, deadline time.Time) *ClaimWindow {
	return &ClaimWindow{
		Tile:          tile,
		DiscarderSeat: discarderSeat,
		Candidates:    make(map[int][]mahjong.ActionKind),
		Decisions:     make(map[int]*ClaimDecision),
		Deadline:      deadline,
	}
}

// HasCandidate 座位是否有指定候选动作
func (cw *ClaimWindow) HasCandidate(seat int, kind mahjong.ActionKind) bool {
	for _, k := range cw.Candidates[seat] {
		if k == kind {
			return true
		}
	}
	return false
}

// Decide 记录座位表态，重复表态返回 false
func (cw *ClaimWindow) Decide(seat int, d *ClaimDecision) bool {
	if _, exists := cw.Decisions[seat]; exists {
		return false
	}
	cw.Decisions[seat] = d
	return true
}

// Complete 所有候选座位都已表态
func (cw *ClaimWindow) Complete() bool {
	for seat := range cw.Candidates {
		if _, ok := cw.Decisions[seat]; !ok {
			return false
		}
	}
	return true
}

// FillPasses 给未表态的候选补过牌，截止时间到时调用
func (cw *ClaimWindow) FillPasses() {
	for seat := range cw.Candidates {
		if _, ok := cw.Decisions[seat]; !ok {
			cw.Decisions[seat] = &ClaimDecision{Kind: mahjong.ActionPass}
		}
	}
}

// ClaimOutcome 仲裁结果
type ClaimOutcome struct {
	Kind    mahjong.ActionKind
	Seats   []int // 胡可能多家，其余动作恰一家
	Winners map[int]*ClaimDecision
}

// Resolve 按 胡 > 杠 > 碰 > 吃 的优先级仲裁，
// 同级按离放铳者的行牌顺序取近者。全过返回 nil
func (cw *ClaimWindow) Resolve() *ClaimOutcome {
	huSeats := make([]int, 0, mahjong.PlayerLimit)
	for offset := 1; offset < mahjong.PlayerLimit; offset++ {
		seat := (cw.DiscarderSeat + offset) % mahjong.PlayerLimit
		if d, ok := cw.Decisions[seat]; ok && d.Kind == mahjong.ActionHu {
			huSeats = append(huSeats, seat)
		}
	}
	if len(huSeats) > 0 {
		out := &ClaimOutcome{Kind: mahjong.ActionHu, Seats: huSeats, Winners: make(map[int]*ClaimDecision)}
		for _, seat := range huSeats {
			out.Winners[seat] = cw.Decisions[seat]
		}
		return out
	}

	for _, kind := range []mahjong.ActionKind{mahjong.ActionGang, mahjong.ActionPeng, mahjong.ActionChi} {
		for offset := 1; offset < mahjong.PlayerLimit; offset++ {
			seat := (cw.DiscarderSeat + offset) % mahjong.PlayerLimit
			if d, ok := cw.Decisions[seat]; ok && d.Kind == kind {
				return &ClaimOutcome{Kind: kind, Seats: []int{seat}, Winners: map[int]*ClaimDecision{seat: d}}
			}
		}
	}
	return nil
}
