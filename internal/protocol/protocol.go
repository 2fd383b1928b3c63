package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/inklinehq/inkline/backend/internal/canvas"
	"github.com/inklinehq/inkline/backend/internal/room"
)

// Inbound event names (client -> hub)
const (
	EventJoinRoom    = "join-room"
	EventCursorMove  = "cursor:move"
	EventDrawMove    = "draw:move"
	EventStrokeEnd   = "stroke:end"
	EventHistoryUndo = "history:undo"
	EventHistoryRedo = "history:redo"
)

// Outbound event names (hub -> client). cursor:move and draw:move keep the
// same name in both directions with different payload shapes.
const (
	EventUserMe        = "user:me"
	EventHistoryUpdate = "history:update"
	EventRoomUsers     = "room:users"
	EventCursorRemove  = "cursor:remove"
)

// Returned by DecodeInbound for event names the hub does not understand
var ErrUnknownEvent = fmt.Errorf("protocol: unknown event")

// Every frame on the wire: an event name plus its raw payload
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type CursorMove struct {
	RoomID string       `json:"roomId"`
	Cursor canvas.Point `json:"cursor"`
}

type DrawMove struct {
	RoomID   string                `json:"roomId"`
	From     canvas.Point          `json:"from"`
	To       canvas.Point          `json:"to"`
	Settings canvas.StrokeSettings `json:"settings"`
}

type StrokeEnd struct {
	RoomID string        `json:"roomId"`
	Stroke canvas.Stroke `json:"stroke"`
}

type HistoryUndo struct {
	RoomID string `json:"roomId"`
}

type HistoryRedo struct {
	RoomID string `json:"roomId"`
}

// Outbound payloads

type CursorBroadcast struct {
	ParticipantID string       `json:"participantId"`
	Cursor        canvas.Point `json:"cursor"`
}

type CursorRemove struct {
	ParticipantID string `json:"participantId"`
}

type DrawBroadcast struct {
	From     canvas.Point          `json:"from"`
	To       canvas.Point          `json:"to"`
	Settings canvas.StrokeSettings `json:"settings"`
}

// Decodes a raw frame into one of the typed inbound payloads. The returned
// value is always one of JoinRoom, CursorMove, DrawMove, StrokeEnd,
// HistoryUndo or HistoryRedo; callers switch exhaustively on the type.
func DecodeInbound(data []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: invalid envelope: %w", err)
	}

	switch env.Event {
	case EventJoinRoom:
		return decodeAs[JoinRoom](env)
	case EventCursorMove:
		return decodeAs[CursorMove](env)
	case EventDrawMove:
		return decodeAs[DrawMove](env)
	case EventStrokeEnd:
		return decodeAs[StrokeEnd](env)
	case EventHistoryUndo:
		return decodeAs[HistoryUndo](env)
	case EventHistoryRedo:
		return decodeAs[HistoryRedo](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeAs[T any](env Envelope) (T, error) {
	var payload T
	if len(env.Data) == 0 {
		return payload, fmt.Errorf("protocol: %s: missing payload", env.Event)
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return payload, fmt.Errorf("protocol: %s: %w", env.Event, err)
	}
	return payload, nil
}

// Wraps an outbound payload in an envelope and marshals the whole frame
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Convenience encoders for the frequent outbound frames

func EncodeHistoryUpdate(strokes []canvas.Stroke) ([]byte, error) {
	return Encode(EventHistoryUpdate, strokes)
}

func EncodeRoomUsers(users []room.Participant) ([]byte, error) {
	return Encode(EventRoomUsers, users)
}
