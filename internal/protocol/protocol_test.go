package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inklinehq/inkline/backend/internal/canvas"
	"github.com/inklinehq/inkline/backend/internal/room"
)

func TestDecodeJoinRoom(t *testing.T) {
	raw := []byte(`{"event":"join-room","data":{"roomId":"demo"}}`)

	v, err := DecodeInbound(raw)
	require.NoError(t, err)

	join, ok := v.(JoinRoom)
	require.True(t, ok, "expected JoinRoom, got %T", v)
	assert.Equal(t, "demo", join.RoomID)
}

func TestDecodeDrawMove(t *testing.T) {
	raw := []byte(`{
		"event": "draw:move",
		"data": {
			"roomId": "demo",
			"from": {"x": 1, "y": 2},
			"to": {"x": 3, "y": 4},
			"settings": {"tool": "eraser", "color": "#ff1744", "width": 12}
		}
	}`)

	v, err := DecodeInbound(raw)
	require.NoError(t, err)

	draw, ok := v.(DrawMove)
	require.True(t, ok, "expected DrawMove, got %T", v)
	assert.Equal(t, canvas.Point{X: 1, Y: 2}, draw.From)
	assert.Equal(t, canvas.Point{X: 3, Y: 4}, draw.To)
	assert.Equal(t, canvas.ToolEraser, draw.Settings.Tool)
	assert.Equal(t, float64(12), draw.Settings.Width)
}

func TestDecodeStrokeEnd(t *testing.T) {
	raw := []byte(`{
		"event": "stroke:end",
		"data": {
			"roomId": "demo",
			"stroke": {
				"id": "s1",
				"points": [{"x": 0, "y": 0}, {"x": 5, "y": 5}],
				"settings": {"tool": "brush", "color": "#1e90ff", "width": 4}
			}
		}
	}`)

	v, err := DecodeInbound(raw)
	require.NoError(t, err)

	end, ok := v.(StrokeEnd)
	require.True(t, ok, "expected StrokeEnd, got %T", v)
	assert.Equal(t, "s1", end.Stroke.ID)
	assert.True(t, end.Stroke.Committable())
}

func TestDecodeHistoryEvents(t *testing.T) {
	v, err := DecodeInbound([]byte(`{"event":"history:undo","data":{"roomId":"demo"}}`))
	require.NoError(t, err)
	assert.IsType(t, HistoryUndo{}, v)

	v, err = DecodeInbound([]byte(`{"event":"history:redo","data":{"roomId":"demo"}}`))
	require.NoError(t, err)
	assert.IsType(t, HistoryRedo{}, v)
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"event":"canvas:clear","data":{}}`))
	assert.True(t, errors.Is(err, ErrUnknownEvent))
}

func TestDecodeMalformed(t *testing.T) {
	_, err := DecodeInbound([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeInbound([]byte(`{"event":"join-room"}`))
	assert.Error(t, err, "missing payload should be rejected")

	_, err = DecodeInbound([]byte(`{"event":"cursor:move","data":{"cursor":"nope"}}`))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	frame, err := Encode(EventCursorMove, CursorBroadcast{
		ParticipantID: "a",
		Cursor:        canvas.Point{X: 7, Y: 9},
	})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventCursorMove, env.Event)

	var payload CursorBroadcast
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "a", payload.ParticipantID)
	assert.Equal(t, canvas.Point{X: 7, Y: 9}, payload.Cursor)
}

func TestEncodeHistoryUpdateEmpty(t *testing.T) {
	frame, err := EncodeHistoryUpdate([]canvas.Stroke{})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventHistoryUpdate, env.Event)
	// An empty history is an empty array on the wire, not null
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestEncodeRoomUsers(t *testing.T) {
	frame, err := EncodeRoomUsers([]room.Participant{
		{ID: "a", Color: "#1e90ff"},
		{ID: "b", Color: "#ff1744"},
	})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventRoomUsers, env.Event)

	var users []room.Participant
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].ID)
}
