package session

import "encoding/json"

// 帧类型。REQUEST 来自客户端，RESPONSE 按 requestId 一一应答，
// EVENT 是服务端主动推送，ERROR 是携带错误码的应答
const (
	FrameRequest  = "REQUEST"
	FrameResponse = "RESPONSE"
	FrameEvent    = "EVENT"
	FrameFailed   = "ERROR"
)

// 客户端命令
const (
	CmdPlay      = "play"
	CmdPeng      = "peng"
	CmdGang      = "gang"
	CmdChi       = "chi"
	CmdHu        = "hu"
	CmdPass      = "pass"
	CmdReconnect = "reconnect"
	CmdPing      = "ping"
)

// Frame 长连接上的统一消息帧
type Frame struct {
	Type      string          `json:"type"`
	Cmd       string          `json:"cmd,omitempty"`
	RoomID    string          `json:"roomId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *FrameError     `json:"error,omitempty"`
}

// FrameError 应答帧里的错误信息，Code 是对客户端稳定的错误码
type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func responseFrame(req *Frame, data any) *Frame {
	f := &Frame{Type: FrameResponse, Cmd: req.Cmd, RoomID: req.RoomID, RequestID: req.RequestID}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			f.Data = raw
		}
	}
	return f
}

func errorFrame(req *Frame, code, message string) *Frame {
	return &Frame{
		Type:      FrameFailed,
		Cmd:       req.Cmd,
		RoomID:    req.RoomID,
		RequestID: req.RequestID,
		Error:     &FrameError{Code: code, Message: message},
	}
}

func pushFrame(roomID, event string, data any) ([]byte, error) {
	f := &Frame{Type: FrameEvent, Cmd: event, RoomID: roomID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		f.Data = raw
	}
	return json.Marshal(f)
}
