package session

import (
	"encoding/json"

	"github.com/JackieWYB/majiang-sub000/common/log"
	"github.com/JackieWYB/majiang-sub000/game"
	"github.com/JackieWYB/majiang-sub000/mahjong"
)

// cmd 到动作类型的映射。动作参数从帧的 data 解出，
// 类型以 cmd 为准，data 里写了别的也会被覆盖
var cmdActions = map[string]mahjong.ActionKind{
	CmdPlay: mahjong.ActionDiscard,
	CmdPeng: mahjong.ActionPeng,
	CmdGang: mahjong.ActionGang,
	CmdChi:  mahjong.ActionChi,
	CmdHu:   mahjong.ActionHu,
	CmdPass: mahjong.ActionPass,
}

func (h *Hub) handleFrame(p peer, frame *Frame) {
	if frame.Type != FrameRequest {
		return
	}

	switch frame.Cmd {
	case CmdPing:
		h.reply(p, responseFrame(frame, map[string]string{"pong": "pong"}))
	case CmdReconnect:
		h.handleReconnect(p, frame)
	default:
		if _, isAction := cmdActions[frame.Cmd]; isAction {
			h.handleAction(p, frame)
			return
		}
		h.reply(p, errorFrame(frame, string(game.CodeInvalidInput), "未知命令 "+frame.Cmd))
	}
}

func (h *Hub) handleAction(p peer, frame *Frame) {
	if h.rooms == nil {
		h.reply(p, errorFrame(frame, string(game.CodeRoomNotFound), "服务尚未就绪"))
		return
	}
	if frame.RoomID == "" {
		h.reply(p, errorFrame(frame, string(game.CodeInvalidInput), "缺少 roomId"))
		return
	}

	var action game.PlayerAction
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &action); err != nil {
			h.reply(p, errorFrame(frame, string(game.CodeInvalidInput), "动作解析失败"))
			return
		}
	}
	action.Kind = cmdActions[frame.Cmd]

	if err := h.rooms.SubmitAction(frame.RoomID, p.User(), action); err != nil {
		h.reply(p, errorFrame(frame, string(game.CodeOf(err)), err.Error()))
		return
	}
	h.reply(p, responseFrame(frame, nil))
}

// handleReconnect 重连窗口在这里把关，过期的用户拿不到快照
func (h *Hub) handleReconnect(p peer, frame *Frame) {
	if h.rooms == nil {
		h.reply(p, errorFrame(frame, string(game.CodeRoomNotFound), "服务尚未就绪"))
		return
	}

	// 过期的掉线记录要留着, 重试多少次都一样拒绝
	h.droppedMu.Lock()
	droppedAt, wasDropped := h.droppedAt[p.User()]
	if wasDropped && h.now().Sub(droppedAt) > h.reconnectWindow {
		h.droppedMu.Unlock()
		log.Warn("用户 %d 重连超出窗口, 断开时刻 %v", p.User(), droppedAt)
		h.reply(p, errorFrame(frame, string(game.CodeReconnectWindowExpired), "重连窗口已过期"))
		return
	}
	delete(h.droppedAt, p.User())
	h.droppedMu.Unlock()

	snapshot, err := h.rooms.Reconnect(p.User())
	if err != nil {
		h.reply(p, errorFrame(frame, string(game.CodeOf(err)), err.Error()))
		return
	}
	h.reply(p, responseFrame(frame, snapshot))
}

func (h *Hub) reply(p peer, frame *Frame) {
	buf, err := json.Marshal(frame)
	if err != nil {
		log.Error("应答帧序列化失败: %v", err)
		return
	}
	p.deliver(buf)
}
