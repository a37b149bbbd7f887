package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

var (
	ErrBadPayload  = errors.New("bad task payload")
	ErrUnknownTask = errors.New("unknown task type")
)

// Handler executes tasks against the durable collaborators. Any of them may be nil.
type Handler struct {
	Library   core.SongLibrary
	Directory core.RoomDirectory
	Events    core.EventTracker

	mu      sync.Mutex
	visited map[string]struct{}
}

func NewHandler(lib core.SongLibrary, dir core.RoomDirectory, events core.EventTracker) *Handler {
	return &Handler{
		Library:   lib,
		Directory: dir,
		Events:    events,
		visited:   make(map[string]struct{}),
	}
}

func (h *Handler) Handle(ctx context.Context, taskType string, payload []byte) error {
	switch taskType {
	case TypeSongSave:
		var p SongSavePayload
		if err := unmarshal(payload, &p); err != nil {
			return err
		}
		if h.Library == nil {
			return nil
		}
		_, err := h.Library.AddSong(ctx, p.VideoID, p.Title, p.AddedBy)
		return err
	case TypeSongPlayed:
		var p SongPlayedPayload
		if err := unmarshal(payload, &p); err != nil {
			return err
		}
		if h.Library == nil {
			return nil
		}
		return h.Library.IncrementPlayCount(ctx, p.VideoID)
	case TypeRoomVisit:
		var p RoomVisitPayload
		if err := unmarshal(payload, &p); err != nil {
			return err
		}
		_, err := h.RecordVisit(ctx, domain.NormalizeCode(p.RoomCode), p.UserID)
		return err
	case TypeTrackEvent:
		var p TrackEventPayload
		if err := unmarshal(payload, &p); err != nil {
			return err
		}
		if h.Events != nil {
			h.Events.Track(p.Event)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownTask, taskType)
}

// RecordVisit counts a user once per room for the life of the process.
func (h *Handler) RecordVisit(ctx context.Context, code domain.RoomCode, userID string) (bool, error) {
	if h.Directory == nil || userID == "" {
		return false, nil
	}
	key := strings.ToUpper(string(code)) + ":" + userID

	h.mu.Lock()
	_, seen := h.visited[key]
	h.mu.Unlock()
	if seen {
		return false, nil
	}

	if _, err := h.Directory.FindRoom(ctx, code); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	h.mu.Lock()
	if _, seen := h.visited[key]; seen {
		h.mu.Unlock()
		return false, nil
	}
	h.visited[key] = struct{}{}
	h.mu.Unlock()

	if err := h.Directory.IncrementVisitors(ctx, code); err != nil {
		return false, err
	}
	return true, nil
}

// ClearVisits forgets the recorded visitors of one room.
func (h *Handler) ClearVisits(code domain.RoomCode) {
	prefix := strings.ToUpper(string(code)) + ":"
	h.mu.Lock()
	defer h.mu.Unlock()
	for key := range h.visited {
		if strings.HasPrefix(key, prefix) {
			delete(h.visited, key)
		}
	}
}

func unmarshal(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
