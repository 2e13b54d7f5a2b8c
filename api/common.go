package api

import (
	stdhttp "net/http"

	"github.com/JackieWYB/majiang-sub000/common/http"
	"github.com/JackieWYB/majiang-sub000/game"
)

// PingHandler 存活探针
func PingHandler(c *http.Context) error {
	c.Success(map[string]string{"pong": "pong"})
	return nil
}

// HealthHandler 健康检查，带房间与在座人数
func (h *Handlers) HealthHandler(c *http.Context) error {
	roomCount, userCount := h.Rooms.Stats()
	c.Success(map[string]any{
		"status": "ok",
		"rooms":  roomCount,
		"users":  userCount,
	})
	return nil
}

// writeGameError 游戏错误码到 HTTP 状态码
func writeGameError(c *http.Context, err error) {
	code := game.CodeOf(err)
	status := stdhttp.StatusBadRequest
	switch code {
	case game.CodeRoomNotFound:
		status = stdhttp.StatusNotFound
	case game.CodeRoomFull, game.CodeRoomClosed:
		status = stdhttp.StatusConflict
	case game.CodeUserBanned:
		status = stdhttp.StatusForbidden
	case game.CodeRoomIdExhausted, game.CodeStorageUnavailable:
		status = stdhttp.StatusInternalServerError
	}
	c.ErrorWithCode(status, string(code), err.Error())
}

func currentUser(c *http.Context) int64 {
	return c.GetInt64(http.ContextUserID)
}
