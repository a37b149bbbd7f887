// Package tasks carries best-effort side effects (library writes, visit
// counting, analytics) off the request path.
package tasks

import "github.com/dkeye/Karaoke/internal/core"

const (
	TypeSongSave   = "song:save"
	TypeSongPlayed = "song:played"
	TypeRoomVisit  = "room:visit"
	TypeTrackEvent = "analytics:track"
)

// Types lists every task type the handler understands.
var Types = []string{TypeSongSave, TypeSongPlayed, TypeRoomVisit, TypeTrackEvent}

type SongSavePayload struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	AddedBy string `json:"addedBy"`
}

type SongPlayedPayload struct {
	VideoID string `json:"videoId"`
}

type RoomVisitPayload struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
}

type TrackEventPayload struct {
	Event core.Event `json:"event"`
}
