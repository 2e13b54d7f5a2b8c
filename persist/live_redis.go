package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JackieWYB/majiang-sub000/common/database"
	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/game"
)

const (
	gameStateKey     = "game"           // game:<roomId> -> 全量快照 JSON
	roomInfoKey      = "room"           // room:<roomId> -> 房间概要 JSON
	playerSessionKey = "player:session" // player:session:<userId> -> roomId

	defaultLiveTTL = 10 * time.Minute

	writeAttempts    = 3
	writeBackoffBase = 100 * time.Millisecond
)

// RedisLiveStore 在线状态的 Redis 实现。每次写都刷新 TTL，
// 房间正常结束时删除，异常退出靠 TTL 自然过期
type RedisLiveStore struct {
	redis *database.RedisManager
	ttl   time.Duration
}

func NewRedisLiveStore(redis *database.RedisManager, ttl time.Duration) *RedisLiveStore {
	if ttl <= 0 {
		ttl = defaultLiveTTL
	}
	return &RedisLiveStore{redis: redis, ttl: ttl}
}

func liveKey(roomID string) string   { return fmt.Sprintf("%s:%s", gameStateKey, roomID) }
func roomKey(roomID string) string   { return fmt.Sprintf("%s:%s", roomInfoKey, roomID) }
func sessionKey(userID int64) string { return fmt.Sprintf("%s:%d", playerSessionKey, userID) }

// setWithRetry 指数退避重试，耗尽后把错误交还调用方降级处理
func (s *RedisLiveStore) setWithRetry(ctx context.Context, key, value string) error {
	var lastErr error
	backoff := writeBackoffBase
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if lastErr = s.redis.Set(ctx, key, value, s.ttl); lastErr == nil {
			return nil
		}
		log.Warn("redis 写入 %s 第 %d 次失败: %v", key, attempt+1, lastErr)
	}
	return lastErr
}

func (s *RedisLiveStore) SaveGameState(ctx context.Context, roomID string, snapshot *game.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("快照序列化失败: %w", err)
	}
	return s.setWithRetry(ctx, liveKey(roomID), string(raw))
}

func (s *RedisLiveStore) DeleteGameState(ctx context.Context, roomID string) error {
	return s.redis.Del(ctx, liveKey(roomID))
}

// SaveRoomInfo 房间概要，大厅列表与对局恢复都从这里读
func (s *RedisLiveStore) SaveRoomInfo(ctx context.Context, roomID string, info any) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("房间概要序列化失败: %w", err)
	}
	return s.setWithRetry(ctx, roomKey(roomID), string(raw))
}

func (s *RedisLiveStore) DeleteRoomInfo(ctx context.Context, roomID string) error {
	return s.redis.Del(ctx, roomKey(roomID))
}

// SavePlayerSession 用户到房间的路由，进程重启后用它找回用户的房间
func (s *RedisLiveStore) SavePlayerSession(ctx context.Context, userID int64, roomID string) error {
	return s.setWithRetry(ctx, sessionKey(userID), roomID)
}

func (s *RedisLiveStore) GetPlayerSession(ctx context.Context, userID int64) (string, error) {
	return s.redis.Get(ctx, sessionKey(userID))
}

func (s *RedisLiveStore) DeletePlayerSession(ctx context.Context, userID int64) error {
	return s.redis.Del(ctx, sessionKey(userID))
}
