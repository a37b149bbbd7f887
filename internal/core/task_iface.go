package core

import (
	"context"
	"time"
)

const (
	EventRoomCreated   = "room_created"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventSongEnqueued  = "song_enqueued"
	EventSongStarted   = "song_started"
	EventSongFinalized = "song_finalized"
	EventRoomClosed    = "room_closed"
)

// Event is one analytics record.
type Event struct {
	Event    string         `json:"event"`
	TS       int64          `json:"ts"`
	RoomCode string         `json:"roomCode,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func NewEvent(name, roomCode string, data map[string]any) Event {
	return Event{Event: name, TS: time.Now().UnixMilli(), RoomCode: roomCode, Data: data}
}

type EventTracker interface {
	Track(e Event)
}

// TaskDispatcher runs best-effort side effects. Dispatch never blocks on
// the work itself and never reports the work's failure to the caller.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, taskType string, payload any)
}
