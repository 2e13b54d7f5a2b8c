package api

import (
	"context"

	"github.com/JackieWYB/majiang-sub000/common/http"
	"github.com/JackieWYB/majiang-sub000/game"
	"github.com/JackieWYB/majiang-sub000/room"
)

// RecordFinder 历史战绩查询，Mongo 实现在 persist 包
type RecordFinder interface {
	FindGameRecord(ctx context.Context, gameID string) (*game.GameRecord, error)
	FindUserHistory(ctx context.Context, userID int64, page, size int) ([]game.GamePlayerRecord, int64, error)
}

// Handlers 路由处理器持有的依赖
type Handlers struct {
	Rooms   *room.Manager
	Records RecordFinder
}

// RegisterRoutes 注册全部路由
func RegisterRoutes(server *http.HttpServer, secret string, h *Handlers) {
	server.GET("/ping", PingHandler)
	server.GET("/health", h.HealthHandler)

	v1 := server.Group("/api/v1", http.AuthMiddleware(secret))
	{
		rooms := v1.Group("/room")
		{
			rooms.POST("/create", h.CreateRoomHandler)
			rooms.POST("/:id/join", h.JoinRoomHandler)
			rooms.POST("/:id/leave", h.LeaveRoomHandler)
			rooms.POST("/:id/start", h.StartGameHandler)
			rooms.POST("/:id/dissolve", h.DissolveHandler)
			rooms.GET("/:id", h.RoomInfoHandler)
		}

		user := v1.Group("/user")
		{
			user.GET("/room", h.MyRoomHandler)
			user.GET("/rooms", h.MyOwnedRoomsHandler)
			user.GET("/history", h.HistoryHandler)
		}

		v1.GET("/game/:gameId", h.GameRecordHandler)
	}
}
