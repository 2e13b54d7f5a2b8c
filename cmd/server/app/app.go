package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JackieWYB/majiang-sub000/api"
	"github.com/JackieWYB/majiang-sub000/common/config"
	"github.com/JackieWYB/majiang-sub000/common/database"
	"github.com/JackieWYB/majiang-sub000/common/http"
	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/persist"
	"github.com/JackieWYB/majiang-sub000/room"
	"github.com/JackieWYB/majiang-sub000/session"
)

// Run 组装并启动全部组件，阻塞到退出信号
func Run(ctx context.Context) error {
	redis := database.NewRedis(config.Conf.DatabaseConf.RedisConf)
	mongo := database.NewMongo(config.Conf.DatabaseConf.MongoConf)

	liveStore := persist.NewRedisLiveStore(redis, time.Duration(config.Conf.GameConf.LiveTTLSeconds)*time.Second)
	recordStore := persist.NewMongoRecordStore(mongo)

	hub := session.NewHub(session.HubOptions{
		Secret:          config.Conf.JwtConf.Secret,
		ReconnectWindow: time.Duration(config.Conf.GameConf.MaxReconnectMinutes) * time.Minute,
	})

	rooms := room.NewManager(room.ManagerOptions{
		Broadcaster:   hub,
		LiveStore:     liveStore,
		RecordStore:   recordStore,
		InactiveAge:   time.Duration(config.Conf.GameConf.InactiveThresholdMinutes) * time.Minute,
		SweepEvery:    time.Duration(config.Conf.GameConf.CleanupIntervalMinutes) * time.Minute,
		MaxOwnerRooms: config.Conf.GameConf.MaxActiveRoomsPerOwner,
	})
	hub.BindRooms(rooms)
	rooms.Start()

	// 长连接入口单独一个监听
	wsMux := stdhttp.NewServeMux()
	wsMux.HandleFunc("/ws", hub.HandleWS)
	wsServer := &stdhttp.Server{
		Addr:    fmt.Sprintf(":%d", config.Conf.WsPort),
		Handler: wsMux,
	}
	go func() {
		log.Info("启动 WebSocket 服务器，端口: %d", config.Conf.WsPort)
		if err := wsServer.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			log.Fatal("WebSocket 服务器启动失败: %v", err)
		}
	}()

	server := http.NewHttpServer(
		http.WithPort(config.Conf.HttpPort),
		http.WithMode(config.Conf.Mode),
	)
	server.Use(
		http.CorsMiddleware(),
		http.RequestIDMiddleware(),
	)
	api.RegisterRoutes(server, config.Conf.JwtConf.Secret, &api.Handlers{
		Rooms:   rooms,
		Records: recordStore,
	})
	go func() {
		log.Info("启动 HTTP 服务器，端口: %d", config.Conf.HttpPort)
		if err := server.Start(); err != nil && err != stdhttp.ErrServerClosed {
			log.Fatal("HTTP 服务器启动失败: %v", err)
		}
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP 服务器关闭失败: %v", err)
		}
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("WebSocket 服务器关闭失败: %v", err)
		}
		rooms.Close()
		hub.Close()
		if err := redis.Close(); err != nil {
			log.Error("redis 关闭失败: %v", err)
		}
		if err := mongo.Close(); err != nil {
			log.Error("mongodb 关闭失败: %v", err)
		}
		log.Info("服务已优雅关闭")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	select {
	case <-ctx.Done():
		stop()
		return nil
	case s := <-c:
		log.Info("收到信号 %v，服务停止", s)
		stop()
		return nil
	}
}
