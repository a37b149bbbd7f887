package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomStore is the authoritative in-memory registry of live rooms.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomCode]*LiveRoom
	dir     core.RoomDirectory
	opts    Options
	cleanup *cleanupLoop

	// OnEvict, when set, is called outside all locks for every evicted room.
	OnEvict func(code domain.RoomCode)
}

func NewRoomStore(dir core.RoomDirectory, opts Options) *RoomStore {
	return &RoomStore{
		rooms: make(map[domain.RoomCode]*LiveRoom),
		dir:   dir,
		opts:  opts.withDefaults(),
	}
}

func (s *RoomStore) Options() Options { return s.opts }

// Create registers an empty room. It is idempotent for an existing code.
func (s *RoomStore) Create(code domain.RoomCode, ownerID string) *LiveRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		return r
	}
	return s.insertLocked(domain.NewRoom(code, ownerID, s.opts.Now()))
}

func (s *RoomStore) insertLocked(state *domain.Room) *LiveRoom {
	r := newLiveRoom(state, &s.opts)
	s.rooms[state.Code] = r
	s.armLocked()
	log.Info().Str("module", "app.rooms").Str("room", string(state.Code)).Int("rooms", len(s.rooms)).Msg("room added")
	return r
}

func (s *RoomStore) Get(code domain.RoomCode) (*LiveRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	return r, ok
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// RestoreOrLoad returns the live room, rehydrating it from the directory
// with empty transient state when it is not in memory.
func (s *RoomStore) RestoreOrLoad(ctx context.Context, code domain.RoomCode) (*LiveRoom, error) {
	if r, ok := s.Get(code); ok {
		return r, nil
	}
	if s.dir == nil {
		return nil, domain.ErrRoomNotFound
	}
	rec, err := s.dir.FindRoom(ctx, code)
	if errors.Is(err, core.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup room %s: %w", code, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		return r, nil
	}
	state := domain.NewRoom(rec.Code, rec.OwnerID, s.opts.Now())
	if !rec.CreatedAt.IsZero() {
		state.CreatedAt = rec.CreatedAt
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("room restored from directory")
	return s.insertLocked(state), nil
}

// Do resolves code and runs fn with the room locked. Mutations and their
// broadcast both happen inside fn, so no other operation interleaves.
func (s *RoomStore) Do(ctx context.Context, code domain.RoomCode, fn func(*LiveRoom) error) error {
	for {
		r, err := s.RestoreOrLoad(ctx, code)
		if err != nil {
			return err
		}
		r.mu.Lock()
		if r.evicted {
			r.mu.Unlock()
			continue
		}
		err = fn(r)
		r.mu.Unlock()
		return err
	}
}

type RoomInfo struct {
	Code              domain.RoomCode `json:"code"`
	CreatedAt         int64           `json:"createdAt"`
	QueueLength       int             `json:"queueLength"`
	NowPlaying        *string         `json:"nowPlaying"`
	ParticipantsCount int             `json:"participantsCount"`
}

func (s *RoomStore) List() []RoomInfo {
	s.mu.RLock()
	rooms := make([]*LiveRoom, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		info := RoomInfo{
			Code:              r.code,
			CreatedAt:         r.state.CreatedAt.UnixMilli(),
			QueueLength:       len(r.state.Queue),
			ParticipantsCount: r.OnlineParticipants(),
		}
		if np := r.state.NowPlaying; np != nil {
			title := np.Title
			info.NowPlaying = &title
		}
		r.mu.Unlock()
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Sweep evicts rooms with no connected sockets that have been inactive for
// longer than InactiveThreshold. The directory record is left untouched.
func (s *RoomStore) Sweep() []domain.RoomCode {
	now := s.opts.Now()
	var evicted []domain.RoomCode

	s.mu.Lock()
	for code, r := range s.rooms {
		r.mu.Lock()
		if r.conns.connected() == 0 && now.Sub(r.state.LastActivityAt) > s.opts.InactiveThreshold {
			r.evict()
			delete(s.rooms, code)
			evicted = append(evicted, code)
		}
		r.mu.Unlock()
	}
	s.disarmLocked()
	remaining := len(s.rooms)
	s.mu.Unlock()

	if len(evicted) > 0 {
		log.Info().Str("module", "app.rooms").Int("evicted", len(evicted)).Int("remaining", remaining).Msg("cleanup sweep")
	}
	if s.OnEvict != nil {
		for _, code := range evicted {
			s.OnEvict(code)
		}
	}
	return evicted
}

// Close stops the cleanup loop. Rooms stay in memory.
func (s *RoomStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleanup != nil {
		s.cleanup.stop()
		s.cleanup = nil
	}
}

// CleanupArmed reports whether the periodic sweep is scheduled.
func (s *RoomStore) CleanupArmed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cleanup != nil
}

// DoIfPresent runs fn only when code is already live; it never restores.
func (s *RoomStore) DoIfPresent(code domain.RoomCode, fn func(*LiveRoom)) bool {
	r, ok := s.Get(code)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return false
	}
	fn(r)
	return true
}
