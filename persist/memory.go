package persist

import (
	"context"
	"sync"

	"github.com/JackieWYB/majiang-sub000/game"
)

// MemoryLiveStore 内存实现，测试与单机调试用
type MemoryLiveStore struct {
	mu        sync.RWMutex
	snapshots map[string]*game.Snapshot
	sessions  map[int64]string
}

func NewMemoryLiveStore() *MemoryLiveStore {
	return &MemoryLiveStore{
		snapshots: make(map[string]*game.Snapshot),
		sessions:  make(map[int64]string),
	}
}

func (s *MemoryLiveStore) SaveGameState(_ context.Context, roomID string, snapshot *game.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[roomID] = snapshot
	return nil
}

func (s *MemoryLiveStore) DeleteGameState(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, roomID)
	return nil
}

func (s *MemoryLiveStore) GameState(roomID string) *game.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[roomID]
}

func (s *MemoryLiveStore) SavePlayerSession(_ context.Context, userID int64, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = roomID
	return nil
}

func (s *MemoryLiveStore) GetPlayerSession(_ context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID], nil
}

// MemoryRecordStore 内存实现，写一次后重复写静默幂等
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]*game.GameRecord
	players map[string][]game.GamePlayerRecord

	// FailNext 置为 true 则下一次写失败, 测终局重试用
	FailNext bool
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]*game.GameRecord),
		players: make(map[string][]game.GamePlayerRecord),
	}
}

func (s *MemoryRecordStore) SaveGameRecord(_ context.Context, record *game.GameRecord, playerRecords []game.GamePlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return game.NewError(game.CodeStorageUnavailable, "记录存储暂时不可用")
	}
	if _, exists := s.records[record.GameID]; exists {
		return nil
	}
	s.records[record.GameID] = record
	s.players[record.GameID] = playerRecords
	return nil
}

func (s *MemoryRecordStore) Record(gameID string) *game.GameRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[gameID]
}

func (s *MemoryRecordStore) PlayerRecords(gameID string) []game.GamePlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[gameID]
}

func (s *MemoryRecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
