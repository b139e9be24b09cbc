package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/service"
)

// MessageContext provides all dependencies needed for frame processing
type MessageContext struct {
	UserID        uint
	Hub           *realtime.Hub
	Bridge        *realtime.Bridge
	ChatService   *service.ChatService
	UnreadService *service.UnreadService
	UserService   *service.UserService
}

// Reply writes a frame back on the user's connection through the hub, so
// replies never interleave with concurrent pushes.
func (ctx *MessageContext) Reply(data interface{}) error {
	return ctx.Hub.Reply(ctx.UserID, data)
}

// Message interface for all WebSocket frame types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse is sent when frame processing fails
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func ToJson(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func FromJson(jsonBytes []byte, msg Message) error {
	return json.Unmarshal(jsonBytes, msg)
}

func CreateMessage(msgType string, typeRegistry map[string]reflect.Type) (Message, error) {
	msgTypeReflect, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}

	instance := reflect.New(msgTypeReflect).Interface()
	return instance.(Message), nil
}

// ReplyError sends an error response to the client
func (ctx *MessageContext) ReplyError(code, message, details string) error {
	return ctx.Reply(ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}
