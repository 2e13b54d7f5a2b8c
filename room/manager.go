package room

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/game"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

const (
	roomIDAttempts     = 10
	maxRoomsPerOwner   = 3
	defaultInactiveAge = 30 * time.Minute
	defaultSweepEvery  = 5 * time.Minute
)

// ManagerOptions 管理器的外部协作者与清扫参数
type ManagerOptions struct {
	Broadcaster game.Broadcaster
	LiveStore   game.LiveStore
	RecordStore game.RecordStore

	InactiveAge   time.Duration
	SweepEvery    time.Duration
	MaxOwnerRooms int
}

// Manager 房间注册表。房间的增删和座位变更在这里串行化，
// 对局内的状态变更走各房间自己的事件队列
type Manager struct {
	rooms      map[string]*Room
	userRoom   map[int64]string // userID -> roomID
	ownerRooms map[int64]int    // 房主名下活跃房间数

	broadcaster game.Broadcaster
	liveStore   game.LiveStore
	recordStore game.RecordStore

	inactiveAge   time.Duration
	sweepEvery    time.Duration
	maxOwnerRooms int

	rng    *rand.Rand
	mu     sync.RWMutex
	done   chan struct{}
	closed sync.Once
}

func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		rooms:         make(map[string]*Room),
		userRoom:      make(map[int64]string),
		ownerRooms:    make(map[int64]int),
		broadcaster:   opts.Broadcaster,
		liveStore:     opts.LiveStore,
		recordStore:   opts.RecordStore,
		inactiveAge:   opts.InactiveAge,
		sweepEvery:    opts.SweepEvery,
		maxOwnerRooms: opts.MaxOwnerRooms,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		done:          make(chan struct{}),
	}
	if m.inactiveAge <= 0 {
		m.inactiveAge = defaultInactiveAge
	}
	if m.sweepEvery <= 0 {
		m.sweepEvery = defaultSweepEvery
	}
	if m.maxOwnerRooms <= 0 {
		m.maxOwnerRooms = maxRoomsPerOwner
	}
	return m
}

// Start 启动闲置房间清扫
func (m *Manager) Start() {
	go m.sweepLoop()
}

// Close 停止清扫并解散全部房间
func (m *Manager) Close() {
	m.closed.Do(func() { close(m.done) })

	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()
	for _, r := range rooms {
		m.dissolveRoom(r, "服务关闭")
	}
}

// CreateRoom 建房。六位数字房间号随机抽取，十次撞号放弃
func (m *Manager) CreateRoom(ownerID int64, cfg mahjong.Config) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, game.NewError(game.CodeInvalidInput, "房间规则不合法: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if roomID, exists := m.userRoom[ownerID]; exists {
		return nil, game.NewError(game.CodeInvalidInput, "用户已在房间 %s 中", roomID)
	}
	if m.ownerRooms[ownerID] >= m.maxOwnerRooms {
		return nil, game.NewError(game.CodeInvalidInput, "同一房主最多 %d 个活跃房间", m.maxOwnerRooms)
	}

	id := ""
	for attempt := 0; attempt < roomIDAttempts; attempt++ {
		candidate := fmt.Sprintf("%06d", m.rng.Intn(900000)+100000)
		if _, taken := m.rooms[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		return nil, game.NewError(game.CodeRoomIdExhausted, "房间号抽取 %d 次仍然撞号", roomIDAttempts)
	}

	r := newRoom(id, ownerID, cfg)
	m.rooms[id] = r
	m.userRoom[ownerID] = id
	m.ownerRooms[ownerID]++
	log.Info("房间 %s 创建成功, owner=%d", id, ownerID)
	return r, nil
}

// JoinRoom 加入房间。坐满自动开局
func (m *Manager) JoinRoom(roomID string, userID int64) (int, error) {
	m.mu.Lock()
	r, exists := m.rooms[roomID]
	if !exists {
		m.mu.Unlock()
		return -1, game.NewError(game.CodeRoomNotFound, "房间 %s 不存在", roomID)
	}
	other, inRoom := m.userRoom[userID]
	if inRoom && other != roomID {
		m.mu.Unlock()
		return -1, game.NewError(game.CodeInvalidInput, "用户已在房间 %s 中", other)
	}
	// 先把名额占下，并发往别的房间加入会在上面的检查被挡掉。
	// 下面的失败路径要回滚这个占位
	m.userRoom[userID] = roomID
	m.mu.Unlock()

	rollback := func() {
		if inRoom {
			return
		}
		m.mu.Lock()
		if m.userRoom[userID] == roomID {
			delete(m.userRoom, userID)
		}
		m.mu.Unlock()
	}

	r.mu.Lock()
	if seat := r.seatOf(userID); seat >= 0 {
		r.mu.Unlock()
		return seat, nil // 重复加入幂等
	}
	if r.status == StatusDissolved {
		r.mu.Unlock()
		rollback()
		return -1, game.NewError(game.CodeRoomClosed, "房间 %s 已解散", roomID)
	}
	if r.status != StatusWaiting {
		r.mu.Unlock()
		rollback()
		return -1, game.NewError(game.CodeRoomFull, "房间 %s 不在等人, 状态 %s", roomID, r.status)
	}
	seat := r.freeSeat()
	if seat < 0 {
		r.mu.Unlock()
		rollback()
		return -1, game.NewError(game.CodeRoomFull, "房间 %s 已满", roomID)
	}
	r.seats[seat] = userID
	r.touch()
	full := r.seatedCount() == mahjong.PlayerLimit
	if full {
		r.status = StatusReady
	}
	r.mu.Unlock()

	if m.broadcaster != nil {
		m.broadcaster.BroadcastToRoom(roomID, game.EvUserJoined, map[string]any{
			"seat":   seat,
			"userId": userID,
		})
	}
	log.Info("房间 %s 用户 %d 入座 %d", roomID, userID, seat)

	// 满员即开第一局
	if full {
		if err := m.startGame(r); err != nil {
			log.Error("房间 %s 自动开局失败: %v", roomID, err)
		}
	}
	return seat, nil
}

// LeaveRoom 离开房间。对局中离开按断线处理，座位保留
func (m *Manager) LeaveRoom(roomID string, userID int64) error {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return game.NewError(game.CodeRoomNotFound, "房间 %s 不存在", roomID)
	}

	r.mu.Lock()
	seat := r.seatOf(userID)
	if seat < 0 {
		r.mu.Unlock()
		return game.NewError(game.CodeInvalidInput, "用户 %d 不在房间 %s 中", userID, roomID)
	}
	if r.status == StatusPlaying {
		engine := r.engine
		r.touch()
		r.mu.Unlock()
		engine.Disconnect(userID)
		return nil
	}

	r.seats[seat] = emptySeat
	delete(r.dissolveVotes, userID)
	r.touch()
	if r.status == StatusReady {
		r.status = StatusWaiting
	}
	// 房主走了把房主转给最小座位
	if r.OwnerID == userID {
		for _, uid := range r.seats {
			if uid != emptySeat {
				r.OwnerID = uid
				break
			}
		}
	}
	empty := r.seatedCount() == 0
	r.mu.Unlock()

	m.mu.Lock()
	delete(m.userRoom, userID)
	m.mu.Unlock()

	if m.broadcaster != nil {
		m.broadcaster.BroadcastToRoom(roomID, game.EvUserLeft, map[string]any{
			"seat":   seat,
			"userId": userID,
		})
	}
	log.Info("房间 %s 用户 %d 离座", roomID, userID)
	if empty {
		m.dissolveRoom(r, "房间已空")
	}
	return nil
}

// StartGame 房主手动开下一局，首局由满员自动触发
func (m *Manager) StartGame(roomID string, userID int64) error {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return game.NewError(game.CodeRoomNotFound, "房间 %s 不存在", roomID)
	}
	r.mu.RLock()
	owner := r.OwnerID
	r.mu.RUnlock()
	if owner != userID {
		return game.NewError(game.CodeInvalidInput, "只有房主可以开局")
	}
	return m.startGame(r)
}

func (m *Manager) startGame(r *Room) error {
	r.mu.Lock()
	if r.status != StatusReady {
		r.mu.Unlock()
		return game.NewError(game.CodeActionNotAvailable, "房间 %s 不满足开局条件, 状态 %s", r.ID, r.status)
	}
	seats := r.seats
	seed := m.drawSeed()
	engine := game.NewEngine(r.ID, r.Config, seats, r.dealerSeat, seed, game.Deps{
		Broadcaster: m.broadcaster,
		LiveStore:   m.liveStore,
		RecordStore: m.recordStore,
		OnFinished:  m.onGameFinished,
	})
	r.engine = engine
	r.status = StatusPlaying
	r.dissolveVotes = make(map[int64]bool)
	r.touch()
	r.mu.Unlock()

	engine.Start()
	return nil
}

func (m *Manager) drawSeed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Int63()
}

// onGameFinished 一局收尾：回到满员待开局，按规则轮庄
func (m *Manager) onGameFinished(roomID string) {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return
	}

	r.mu.Lock()
	if r.status != StatusPlaying {
		r.mu.Unlock()
		return
	}
	record := r.engine.Record()
	r.roundsPlayed++
	r.status = StatusReady
	r.touch()
	if r.Config.DealerRotation && record != nil {
		r.dealerSeat = nextDealer(r.dealerSeat, record)
	}
	r.mu.Unlock()
	log.Info("房间 %s 本局结束, 已完成 %d 局", roomID, r.roundsPlayed)
}

// nextDealer 庄家胡牌连庄，否则轮到下家
func nextDealer(dealerSeat int, record *game.GameRecord) int {
	if record.Settlement != nil {
		for _, w := range record.Settlement.Winners {
			if w.Seat == dealerSeat {
				return dealerSeat
			}
		}
	}
	return (dealerSeat + 1) % mahjong.PlayerLimit
}

// VoteDissolve 解散投票。等人阶段房主一票通过，
// 对局中凑满 dismissVotes 票生效
func (m *Manager) VoteDissolve(roomID string, userID int64) (bool, error) {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return false, game.NewError(game.CodeRoomNotFound, "房间 %s 不存在", roomID)
	}

	r.mu.Lock()
	if r.seatOf(userID) < 0 {
		r.mu.Unlock()
		return false, game.NewError(game.CodeInvalidInput, "用户 %d 不在房间 %s 中", userID, roomID)
	}
	switch r.status {
	case StatusDissolved:
		r.mu.Unlock()
		return true, nil
	case StatusWaiting, StatusReady:
		isOwner := r.OwnerID == userID
		r.mu.Unlock()
		if !isOwner {
			return false, game.NewError(game.CodeInvalidInput, "等人阶段只有房主能解散")
		}
		m.dissolveRoom(r, "房主解散")
		return true, nil
	default:
		r.dissolveVotes[userID] = true
		votes := len(r.dissolveVotes)
		needed := r.Config.DismissVotes
		r.touch()
		r.mu.Unlock()
		log.Info("房间 %s 解散投票 %d/%d", roomID, votes, needed)
		if votes >= needed {
			m.dissolveRoom(r, "投票通过")
			return true, nil
		}
		return false, nil
	}
}

// dissolveRoom 解散并出表
func (m *Manager) dissolveRoom(r *Room, reason string) {
	r.mu.Lock()
	if r.status == StatusDissolved {
		r.mu.Unlock()
		return
	}
	r.status = StatusDissolved
	engine := r.engine
	seats := r.seats
	creatorID := r.creatorID
	r.mu.Unlock()

	if engine != nil {
		engine.Dissolve(reason)
		engine.Close()
	}

	m.mu.Lock()
	delete(m.rooms, r.ID)
	for _, uid := range seats {
		if uid != emptySeat {
			delete(m.userRoom, uid)
		}
	}
	if m.ownerRooms[creatorID] > 0 {
		m.ownerRooms[creatorID]--
	}
	m.mu.Unlock()
	log.Info("房间 %s 解散: %s", r.ID, reason)
}

// Room 按房间号取房
func (m *Manager) Room(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, exists := m.rooms[roomID]
	if !exists {
		return nil, game.NewError(game.CodeRoomNotFound, "房间 %s 不存在", roomID)
	}
	return r, nil
}

// RoomByUser 按用户找房
func (m *Manager) RoomByUser(userID int64) (*Room, error) {
	m.mu.RLock()
	roomID, exists := m.userRoom[userID]
	var r *Room
	if exists {
		r = m.rooms[roomID]
	}
	m.mu.RUnlock()
	if r == nil {
		return nil, game.NewError(game.CodeRoomNotFound, "用户 %d 不在任何房间中", userID)
	}
	return r, nil
}

// SubmitAction 把玩家动作转给所在房间的引擎
func (m *Manager) SubmitAction(roomID string, userID int64, action game.PlayerAction) error {
	r, err := m.Room(roomID)
	if err != nil {
		return err
	}
	engine := r.Engine()
	if engine == nil {
		return game.NewError(game.CodeActionNotAvailable, "房间 %s 未开局", roomID)
	}
	r.mu.Lock()
	r.touch()
	r.mu.Unlock()
	return engine.SubmitAction(userID, action)
}

// Reconnect 断线重连转发
func (m *Manager) Reconnect(userID int64) (*game.Snapshot, error) {
	r, err := m.RoomByUser(userID)
	if err != nil {
		return nil, err
	}
	engine := r.Engine()
	if engine == nil {
		return nil, game.NewError(game.CodeActionNotAvailable, "房间 %s 未开局", r.ID)
	}
	return engine.Reconnect(userID)
}

// Disconnect 连接断开转发，没在房间里就当无事发生
func (m *Manager) Disconnect(userID int64) {
	r, err := m.RoomByUser(userID)
	if err != nil {
		return
	}
	if engine := r.Engine(); engine != nil {
		engine.Disconnect(userID)
	}
}

// RoomsByOwner 用户名下的活跃房间摘要
func (m *Manager) RoomsByOwner(userID int64) []Info {
	m.mu.RLock()
	var owned []*Room
	for _, r := range m.rooms {
		if r.creatorID == userID {
			owned = append(owned, r)
		}
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(owned))
	for _, r := range owned {
		infos = append(infos, r.Info())
	}
	return infos
}

// RoomUsers 房间内在座的用户，会话层广播时用来解析收件人
func (m *Manager) RoomUsers(roomID string) []int64 {
	m.mu.RLock()
	r, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return nil
	}
	seats := r.Seats()
	users := make([]int64, 0, len(seats))
	for _, uid := range seats {
		if uid != emptySeat {
			users = append(users, uid)
		}
	}
	return users
}

// Stats 活跃房间与在座用户数
func (m *Manager) Stats() (roomCount, userCount int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms), len(m.userRoom)
}

// sweepLoop 周期清扫闲置的等人房间
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweepIdleRooms()
		}
	}
}

func (m *Manager) sweepIdleRooms() {
	cutoff := time.Now().Add(-m.inactiveAge)
	m.mu.RLock()
	var idle []*Room
	for _, r := range m.rooms {
		status := r.Status()
		if (status == StatusWaiting || status == StatusReady) && r.LastActivityAt().Before(cutoff) {
			idle = append(idle, r)
		}
	}
	m.mu.RUnlock()
	for _, r := range idle {
		m.dissolveRoom(r, "长时间无人操作")
	}
}
