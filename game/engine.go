package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

type Phase string

const (
	PhaseWaiting    Phase = "WAITING"
	PhaseDealing    Phase = "DEALING"
	PhasePlaying    Phase = "PLAYING"
	PhaseSettlement Phase = "SETTLEMENT"
	PhaseFinished   Phase = "FINISHED"
)

const (
	defaultEventQueue = 256
	persistTimeout    = 5 * time.Second
	persistRetryDelay = 3 * time.Second
)

// LastDiscard 最近一张弃牌，响应窗口围绕它展开
type LastDiscard struct {
	Seat  int
	Tile  mahjong.Tile
	Valid bool
}

// Deps 引擎的外部协作者
type Deps struct {
	Broadcaster Broadcaster
	LiveStore   LiveStore
	RecordStore RecordStore
	OnFinished  func(roomID string)
	Now         func() time.Time
}

// Engine 单个房间的对局引擎。房间是单写者：玩家动作、定时器、
// 断线重连、解散全部经过同一条事件队列，状态只在 actorLoop 里变更
type Engine struct {
	RoomID string
	GameID string
	Config mahjong.Config

	phase       Phase
	players     [mahjong.PlayerLimit]*mahjong.PlayerState
	deck        *mahjong.DeckManager
	analyzer    *mahjong.Analyzer
	discardPile []mahjong.Tile
	currentSeat int
	dealerSeat  int
	roundIndex  int
	seed        int64

	turnStart    time.Time
	turnDeadline time.Time
	claim        *ClaimWindow
	lastDiscard  LastDiscard

	actionLog   []ActionLogEntry
	settlement  *mahjong.Settlement
	finalHands  []FinalHand
	record      *GameRecord
	winSelfDraw bool
	degraded    bool

	disconnectedAt map[int64]time.Time

	broadcaster Broadcaster
	liveStore   LiveStore
	recordStore RecordStore
	onFinished  func(roomID string)
	now         func() time.Time

	phaseView  atomic.Value // Phase，给引擎外的读者
	gameEvents chan Event
	gameDone   chan struct{}
	actorExit  chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once
}

// NewEngine 创建对局引擎，seats 按座位序给出用户 ID
func NewEngine(roomID string, cfg mahjong.Config, seats [mahjong.PlayerLimit]int64, dealerSeat int, seed int64, deps Deps) *Engine {
	eg := &Engine{
		RoomID:         roomID,
		GameID:         uuid.NewString(),
		Config:         cfg,
		phase:          PhaseWaiting,
		deck:           mahjong.NewDeckManager(cfg.Tiles, seed),
		analyzer:       mahjong.NewAnalyzer(),
		dealerSeat:     dealerSeat,
		currentSeat:    dealerSeat,
		seed:           seed,
		disconnectedAt: make(map[int64]time.Time),
		broadcaster:    deps.Broadcaster,
		liveStore:      deps.LiveStore,
		recordStore:    deps.RecordStore,
		onFinished:     deps.OnFinished,
		now:            deps.Now,
	}
	if eg.broadcaster == nil {
		eg.broadcaster = NopBroadcaster{}
	}
	if eg.liveStore == nil {
		eg.liveStore = NopLiveStore{}
	}
	if eg.recordStore == nil {
		eg.recordStore = NopRecordStore{}
	}
	if eg.now == nil {
		eg.now = time.Now
	}
	for seat, userID := range seats {
		eg.players[seat] = mahjong.NewPlayerState(userID, seat)
	}
	eg.players[dealerSeat].IsDealer = true
	eg.phaseView.Store(PhaseWaiting)

	eg.gameEvents = make(chan Event, defaultEventQueue)
	eg.gameDone = make(chan struct{})
	eg.actorExit = make(chan struct{})
	return eg
}

// Start 启动事件循环并开局
func (eg *Engine) Start() {
	go eg.actorLoop()
	eg.NotifyEvent(&StartRoundEvent{})
}

// actorLoop 游戏事件循环
func (eg *Engine) actorLoop() {
	defer close(eg.actorExit)
	for {
		select {
		case <-eg.gameDone:
			return
		case event := <-eg.gameEvents:
			eg.processEvent(event)
		}
	}
}

// NotifyEvent 非阻塞投递事件，队列满或已关闭时丢弃
func (eg *Engine) NotifyEvent(event Event) {
	if event == nil || eg.closed.Load() {
		return
	}
	select {
	case <-eg.gameDone:
	case eg.gameEvents <- event:
	default:
		log.Warn("房间 %s 事件队列已满, eventType=%s", eg.RoomID, event.EventType())
	}
}

func (eg *Engine) processEvent(event Event) {
	switch ev := event.(type) {
	case *StartRoundEvent:
		eg.handleStartRound()
	case *ActionEvent:
		err := eg.handleAction(ev)
		if ev.reply != nil {
			ev.reply <- err
		}
	case *TimeoutEvent:
		eg.handleTimeout(ev)
	case *DisconnectEvent:
		eg.handleDisconnect(ev)
	case *GraceExpiredEvent:
		eg.handleGraceExpired(ev)
	case *ReconnectEvent:
		snapshot, err := eg.handleReconnect(ev)
		if ev.reply != nil {
			ev.reply <- reconnectResult{snapshot: snapshot, err: err}
		}
	case *DissolveEvent:
		eg.handleDissolve(ev.Reason)
		if ev.done != nil {
			close(ev.done)
		}
	case *RetryPersistEvent:
		eg.tryFinishPersist()
	default:
		log.Warn("不支持的事件类型: %s", event.EventType())
	}
}

// SubmitAction 提交玩家动作并等待校验结果
func (eg *Engine) SubmitAction(userID int64, action PlayerAction) error {
	if eg.closed.Load() {
		return NewError(CodeRoomClosed, "房间已关闭")
	}
	ev := &ActionEvent{UserID: userID, Action: action, reply: make(chan error, 1)}
	select {
	case <-eg.gameDone:
		return NewError(CodeRoomClosed, "房间已关闭")
	case eg.gameEvents <- ev:
	}
	select {
	case <-eg.gameDone:
		return NewError(CodeRoomClosed, "房间已关闭")
	case err := <-ev.reply:
		return err
	}
}

// Reconnect 断线重连，返回该座位的个人视角快照
func (eg *Engine) Reconnect(userID int64) (*Snapshot, error) {
	if eg.closed.Load() {
		return nil, NewError(CodeRoomClosed, "房间已关闭")
	}
	ev := &ReconnectEvent{UserID: userID, At: eg.now(), reply: make(chan reconnectResult, 1)}
	select {
	case <-eg.gameDone:
		return nil, NewError(CodeRoomClosed, "房间已关闭")
	case eg.gameEvents <- ev:
	}
	select {
	case <-eg.gameDone:
		return nil, NewError(CodeRoomClosed, "房间已关闭")
	case res := <-ev.reply:
		return res.snapshot, res.err
	}
}

// Disconnect 连接断开通知
func (eg *Engine) Disconnect(userID int64) {
	eg.NotifyEvent(&DisconnectEvent{UserID: userID, At: eg.now()})
}

// Dissolve 解散对局，等处理完成或引擎退出后返回
func (eg *Engine) Dissolve(reason string) {
	if eg.closed.Load() {
		return
	}
	ev := &DissolveEvent{Reason: reason, done: make(chan struct{})}
	select {
	case <-eg.gameDone:
		return
	case eg.gameEvents <- ev:
	}
	select {
	case <-eg.gameDone:
	case <-ev.done:
	}
}

// Phase 引擎外可见的当前阶段
func (eg *Engine) Phase() Phase {
	return eg.phaseView.Load().(Phase)
}

// Degraded 房间是否已降级为纯内存
func (eg *Engine) Degraded() bool {
	return eg.degraded
}

// Record 终局记录，FINISHED 之前返回 nil
func (eg *Engine) Record() *GameRecord {
	if eg.Phase() != PhaseFinished {
		return nil
	}
	return eg.record
}

// Seed 本局随机种子
func (eg *Engine) Seed() int64 {
	return eg.seed
}

func (eg *Engine) setPhase(phase Phase) {
	eg.phase = phase
	eg.phaseView.Store(phase)
}

// HasSeat 用户是否在本局中
func (eg *Engine) HasSeat(userID int64) bool {
	_, err := eg.seatOf(userID)
	return err == nil
}

func (eg *Engine) seatOf(userID int64) (int, error) {
	for seat, p := range eg.players {
		if p != nil && p.UserID == userID {
			return seat, nil
		}
	}
	return -1, NewError(CodeInvalidInput, "用户 %d 不在本局中", userID)
}

// Close 终止引擎，幂等
func (eg *Engine) Close() {
	eg.closeOnce.Do(func() {
		eg.closed.Store(true)
		close(eg.gameDone)
		<-eg.actorExit
	})
}

// appendLog 追加动作日志，序号连续无空洞
func (eg *Engine) appendLog(seat int, kind mahjong.ActionKind, payload ActionPayload) {
	eg.actionLog = append(eg.actionLog, ActionLogEntry{
		Seq:       len(eg.actionLog) + 1,
		Seat:      seat,
		Kind:      kind,
		Payload:   payload,
		Timestamp: eg.now(),
	})
}

// scheduleTimeout 投递截止事件。定时器不抢占，只往队列里投，
// 截止时间移动过的旧定时器由 handleTimeout 丢弃
func (eg *Engine) scheduleTimeout(kind string, deadline time.Time) {
	delay := deadline.Sub(eg.now())
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		eg.NotifyEvent(&TimeoutEvent{Kind: kind, AsOfDeadline: deadline})
	})
}

// HappenDamageError 状态失守，房间降级并告警
func (eg *Engine) HappenDamageError(msg string) {
	log.Error("房间 %s 状态失守: %s", eg.RoomID, msg)
	eg.degraded = true
	eg.broadcaster.BroadcastToRoom(eg.RoomID, EvGameStateUpdate, map[string]any{
		"error": string(CodeStateInvariantViolated),
	})
}
