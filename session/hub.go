package session

import (
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JackieWYB/majiang-sub000/common/jwts"
	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/game"
)

const (
	bucketCount = 32

	// EvDuplicateLogin 同一用户再次登录时推给旧连接
	EvDuplicateLogin = "duplicateLogin"

	defaultReconnectWindow = 5 * time.Minute
)

var websocketUpgrade = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	EnableCompression: true,
}

// peer 注册进 Hub 的一条连接
type peer interface {
	ID() string
	User() int64
	deliver(buf []byte)
	shutdown()
}

func (c *client) ID() string         { return c.connID }
func (c *client) User() int64        { return c.userID }
func (c *client) deliver(buf []byte) { c.send(buf) }
func (c *client) shutdown()          { c.close() }

// Rooms 会话层向房间层要的全部能力
type Rooms interface {
	RoomUsers(roomID string) []int64
	SubmitAction(roomID string, userID int64, action game.PlayerAction) error
	Reconnect(userID int64) (*game.Snapshot, error)
	Disconnect(userID int64)
}

type bucket struct {
	sync.RWMutex
	peers map[int64]peer
}

// Hub 长连接管理器，按用户 ID 分片。实现 game.Broadcaster，
// 引擎的广播经由这里落到每用户的保序发送通道
type Hub struct {
	buckets [bucketCount]*bucket
	rooms   Rooms

	secret          string
	reconnectWindow time.Duration
	now             func() time.Time

	droppedMu sync.Mutex
	droppedAt map[int64]time.Time // userID -> 断开时刻
}

type HubOptions struct {
	Secret          string
	ReconnectWindow time.Duration
	Now             func() time.Time
}

func NewHub(opts HubOptions) *Hub {
	h := &Hub{
		secret:          opts.Secret,
		reconnectWindow: opts.ReconnectWindow,
		now:             opts.Now,
		droppedAt:       make(map[int64]time.Time),
	}
	if h.reconnectWindow <= 0 {
		h.reconnectWindow = defaultReconnectWindow
	}
	if h.now == nil {
		h.now = time.Now
	}
	for i := range h.buckets {
		h.buckets[i] = &bucket{peers: make(map[int64]peer)}
	}
	return h
}

// BindRooms 注入房间层。Hub 先于房间管理器构造，所以分两步接线
func (h *Hub) BindRooms(rooms Rooms) {
	h.rooms = rooms
}

// HandleWS 升级长连接。token 在握手前校验，校验不过不升级
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Token")
	}
	claims, err := jwts.ParseAccessToken(token, h.secret)
	if err != nil {
		http.Error(w, "token 校验失败", http.StatusUnauthorized)
		return
	}

	conn, err := websocketUpgrade.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket 升级失败: %v", err)
		return
	}

	c := newClient(uuid.NewString(), claims.UserID, conn, h)
	h.register(c)
	c.run()
	log.Info("客户端[%s] 用户 %d 上线", c.connID, c.userID)
}

func (h *Hub) bucketFor(userID int64) *bucket {
	f := fnv.New32a()
	var b [8]byte
	for i := range b {
		b[i] = byte(userID >> (8 * i))
	}
	f.Write(b[:])
	return h.buckets[f.Sum32()%bucketCount]
}

// register 登记连接。同一用户重复登录时旧连接被原子替换，
// 旧连接先收到 duplicateLogin 再被关闭
func (h *Hub) register(p peer) {
	bk := h.bucketFor(p.User())
	bk.Lock()
	old := bk.peers[p.User()]
	bk.peers[p.User()] = p
	bk.Unlock()

	if old != nil {
		if buf, err := pushFrame("", EvDuplicateLogin, nil); err == nil {
			old.deliver(buf)
		}
		old.shutdown()
		log.Warn("用户 %d 重复登录, 顶掉旧连接[%s]", p.User(), old.ID())
	}
}

// dropClient 连接断开。已被顶号的旧连接不触发断线流程
func (h *Hub) dropClient(p peer) {
	bk := h.bucketFor(p.User())
	bk.Lock()
	current, exists := bk.peers[p.User()]
	if exists && current.ID() == p.ID() {
		delete(bk.peers, p.User())
	} else {
		exists = false
	}
	bk.Unlock()
	if !exists {
		return
	}

	h.droppedMu.Lock()
	h.droppedAt[p.User()] = h.now()
	h.droppedMu.Unlock()

	if h.rooms != nil {
		h.rooms.Disconnect(p.User())
	}
	log.Info("客户端[%s] 用户 %d 断开", p.ID(), p.User())
}

func (h *Hub) peerOf(userID int64) peer {
	bk := h.bucketFor(userID)
	bk.RLock()
	defer bk.RUnlock()
	return bk.peers[userID]
}

// Online 用户是否有存活连接
func (h *Hub) Online(userID int64) bool {
	return h.peerOf(userID) != nil
}

// BroadcastToRoom 房间广播，不在线的用户静默跳过
func (h *Hub) BroadcastToRoom(roomID string, event string, data any) {
	if h.rooms == nil {
		return
	}
	buf, err := pushFrame(roomID, event, data)
	if err != nil {
		log.Error("房间 %s 广播 %s 序列化失败: %v", roomID, event, err)
		return
	}
	for _, userID := range h.rooms.RoomUsers(roomID) {
		if p := h.peerOf(userID); p != nil {
			p.deliver(buf)
		}
	}
}

// SendToUser 单发
func (h *Hub) SendToUser(userID int64, event string, data any) {
	p := h.peerOf(userID)
	if p == nil {
		return
	}
	buf, err := pushFrame("", event, data)
	if err != nil {
		log.Error("用户 %d 推送 %s 序列化失败: %v", userID, event, err)
		return
	}
	p.deliver(buf)
}

// Close 关闭全部连接
func (h *Hub) Close() {
	for _, bk := range h.buckets {
		bk.Lock()
		for userID, p := range bk.peers {
			p.shutdown()
			delete(bk.peers, userID)
		}
		bk.Unlock()
	}
}
