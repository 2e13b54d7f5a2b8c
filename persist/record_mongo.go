package persist

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JackieWYB/majiang-sub000/common/database"
	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/game"
)

const (
	gameRecordsCollection       = "game_records"
	gamePlayerRecordsCollection = "game_player_records"
)

// MongoRecordStore 终局记录的 Mongo 实现。记录写入一次后不再变更，
// 重试路径上已存在的 gameId 视为成功
type MongoRecordStore struct {
	mongo *database.MongoManager
}

func NewMongoRecordStore(mongo *database.MongoManager) *MongoRecordStore {
	return &MongoRecordStore{mongo: mongo}
}

func (s *MongoRecordStore) SaveGameRecord(ctx context.Context, record *game.GameRecord, playerRecords []game.GamePlayerRecord) error {
	records := s.mongo.Db.Collection(gameRecordsCollection)

	count, err := records.CountDocuments(ctx, bson.M{"gameId": record.GameID})
	if err != nil {
		log.Error("查重游戏记录失败: %v", err)
		return fmt.Errorf("查重游戏记录失败: %w", err)
	}
	if count > 0 {
		log.Warn("游戏记录 %s 已存在, 跳过重复写入", record.GameID)
		return nil
	}

	if _, err := records.InsertOne(ctx, record); err != nil {
		log.Error("保存游戏记录 %s 失败: %v", record.GameID, err)
		return fmt.Errorf("保存游戏记录失败: %w", err)
	}

	if len(playerRecords) > 0 {
		docs := make([]any, 0, len(playerRecords))
		for i := range playerRecords {
			docs = append(docs, playerRecords[i])
		}
		players := s.mongo.Db.Collection(gamePlayerRecordsCollection)
		if _, err := players.InsertMany(ctx, docs); err != nil {
			log.Error("保存玩家记录 %s 失败: %v", record.GameID, err)
			return fmt.Errorf("保存玩家记录失败: %w", err)
		}
	}

	log.Info("游戏记录 %s 落库成功, players=%d", record.GameID, len(playerRecords))
	return nil
}

// FindGameRecord 按对局 ID 查询
func (s *MongoRecordStore) FindGameRecord(ctx context.Context, gameID string) (*game.GameRecord, error) {
	records := s.mongo.Db.Collection(gameRecordsCollection)

	var record game.GameRecord
	err := records.FindOne(ctx, bson.M{"gameId": gameID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, game.NewError(game.CodeRoomNotFound, "对局 %s 不存在", gameID)
		}
		log.Error("查询游戏记录失败: %v", err)
		return nil, err
	}
	return &record, nil
}

// FindUserHistory 用户的历史战绩，按时间倒序分页
func (s *MongoRecordStore) FindUserHistory(ctx context.Context, userID int64, page, size int) ([]game.GamePlayerRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	players := s.mongo.Db.Collection(gamePlayerRecordsCollection)
	filter := bson.M{"userId": userID}

	total, err := players.CountDocuments(ctx, filter)
	if err != nil {
		log.Error("统计用户 %d 战绩失败: %v", userID, err)
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"_id": -1}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))
	cursor, err := players.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询用户 %d 战绩失败: %v", userID, err)
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var result []game.GamePlayerRecord
	if err := cursor.All(ctx, &result); err != nil {
		log.Error("解析用户 %d 战绩失败: %v", userID, err)
		return nil, 0, err
	}
	return result, total, nil
}
