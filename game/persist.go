package game

import "context"

// LiveStore 在线状态的快写存储。写失败由适配层退避重试，
// 重试耗尽仍失败时房间降级为纯内存继续打，不能因为存储抖动丢一局
type LiveStore interface {
	SaveGameState(ctx context.Context, roomID string, snapshot *Snapshot) error
	DeleteGameState(ctx context.Context, roomID string) error
}

// RecordStore 终局记录的一次性写入。写成功才允许进入 FINISHED，
// 失败停留在 SETTLEMENT 并重试
type RecordStore interface {
	SaveGameRecord(ctx context.Context, record *GameRecord, playerRecords []GamePlayerRecord) error
}

// NopLiveStore 测试用空实现
type NopLiveStore struct{}

func (NopLiveStore) SaveGameState(context.Context, string, *Snapshot) error { return nil }
func (NopLiveStore) DeleteGameState(context.Context, string) error          { return nil }

// NopRecordStore 测试用空实现
type NopRecordStore struct{}

func (NopRecordStore) SaveGameRecord(context.Context, *GameRecord, []GamePlayerRecord) error {
	return nil
}
