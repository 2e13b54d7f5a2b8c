package game

import "fmt"

// Code 对客户端暴露的稳定错误码
type Code string

const (
	CodeInvalidInput           Code = "INVALID_INPUT"
	CodeNotYourTurn            Code = "NOT_YOUR_TURN"
	CodeActionNotAvailable     Code = "ACTION_NOT_AVAILABLE"
	CodeTileNotInHand          Code = "TILE_NOT_IN_HAND"
	CodeInvalidWin             Code = "INVALID_WIN"
	CodeClaimWindowClosed      Code = "CLAIM_WINDOW_CLOSED"
	CodeRoomNotFound           Code = "ROOM_NOT_FOUND"
	CodeRoomFull               Code = "ROOM_FULL"
	CodeRoomClosed             Code = "ROOM_CLOSED"
	CodeRoomIdExhausted        Code = "ROOM_ID_EXHAUSTED"
	CodeUserBanned             Code = "USER_BANNED"
	CodeReconnectWindowExpired Code = "RECONNECT_WINDOW_EXPIRED"
	CodeWallExhausted          Code = "WALL_EXHAUSTED"
	CodeStateInvariantViolated Code = "STATE_INVARIANT_VIOLATED"
	CodeStorageUnavailable     Code = "STORAGE_UNAVAILABLE"
)

// Error 带错误码的游戏错误，规则类错误不改变任何状态
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf 取出错误码，非游戏错误归为 INVALID_INPUT
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if ge, ok := err.(*Error); ok {
		return ge.Code
	}
	return CodeInvalidInput
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code Code) bool {
	ge, ok := err.(*Error)
	return ok && ge.Code == code
}
