package api

import (
	"context"
	"strconv"
	"time"

	"github.com/JackieWYB/majiang-sub000/common/http"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// CreateRoomHandler 建房。请求体是规则覆盖项，缺省字段用默认规则
func (h *Handlers) CreateRoomHandler(c *http.Context) error {
	userID := currentUser(c)

	cfg := mahjong.DefaultConfig()
	if c.Request().ContentLength > 0 {
		if err := c.BindJSON(&cfg); err != nil {
			c.BadRequest("房间规则解析失败")
			return nil
		}
	}

	r, err := h.Rooms.CreateRoom(userID, cfg)
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(r.Info())
	return nil
}

// JoinRoomHandler 凭 6 位房间号加入
func (h *Handlers) JoinRoomHandler(c *http.Context) error {
	userID := currentUser(c)
	roomID := c.GetParam("id")
	if roomID == "" {
		c.BadRequest("房间号不能为空")
		return nil
	}

	seat, err := h.Rooms.JoinRoom(roomID, userID)
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(map[string]any{"roomId": roomID, "seat": seat})
	return nil
}

// LeaveRoomHandler 离开房间。对局中离开按断线处理
func (h *Handlers) LeaveRoomHandler(c *http.Context) error {
	userID := currentUser(c)
	roomID := c.GetParam("id")

	if err := h.Rooms.LeaveRoom(roomID, userID); err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(nil)
	return nil
}

// StartGameHandler 房主手动开下一局
func (h *Handlers) StartGameHandler(c *http.Context) error {
	userID := currentUser(c)
	roomID := c.GetParam("id")

	if err := h.Rooms.StartGame(roomID, userID); err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(nil)
	return nil
}

// DissolveHandler 解散投票。等人阶段房主直接解散
func (h *Handlers) DissolveHandler(c *http.Context) error {
	userID := currentUser(c)
	roomID := c.GetParam("id")

	dissolved, err := h.Rooms.VoteDissolve(roomID, userID)
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(map[string]bool{"dissolved": dissolved})
	return nil
}

// RoomInfoHandler 房间摘要
func (h *Handlers) RoomInfoHandler(c *http.Context) error {
	r, err := h.Rooms.Room(c.GetParam("id"))
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(r.Info())
	return nil
}

// MyRoomHandler 当前用户所在房间，重连入口先打这里拿房间号
func (h *Handlers) MyRoomHandler(c *http.Context) error {
	r, err := h.Rooms.RoomByUser(currentUser(c))
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(r.Info())
	return nil
}

// MyOwnedRoomsHandler 当前用户创建的活跃房间
func (h *Handlers) MyOwnedRoomsHandler(c *http.Context) error {
	infos := h.Rooms.RoomsByOwner(currentUser(c))
	c.Success(map[string]any{"rooms": infos, "total": len(infos)})
	return nil
}

// HistoryHandler 历史战绩分页
func (h *Handlers) HistoryHandler(c *http.Context) error {
	userID := currentUser(c)
	page, _ := strconv.Atoi(c.GetQueryWithDefault("page", "1"))
	size, _ := strconv.Atoi(c.GetQueryWithDefault("size", "20"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	records, total, err := h.Records.FindUserHistory(ctx, userID, page, size)
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.SuccessWithPage(records, total, page, size)
	return nil
}

// GameRecordHandler 单局完整记录，含可重放的动作日志
func (h *Handlers) GameRecordHandler(c *http.Context) error {
	gameID := c.GetParam("gameId")
	if gameID == "" {
		c.BadRequest("对局 ID 不能为空")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record, err := h.Records.FindGameRecord(ctx, gameID)
	if err != nil {
		writeGameError(c, err)
		return nil
	}
	c.Success(record)
	return nil
}
