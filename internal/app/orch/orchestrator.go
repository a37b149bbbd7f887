package orch

import (
	"context"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/dkeye/Karaoke/internal/tasks"
	"github.com/rs/zerolog/log"
)

// TVTokenIssuer issues room-scoped tv tokens.
type TVTokenIssuer interface {
	IssueTV(code domain.RoomCode) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Orchestrator glues the room store to the durable collaborators and the
// fire-and-forget side effects.
type Orchestrator struct {
	Rooms     *app.RoomStore
	Directory core.RoomDirectory
	Verifier  core.TokenVerifier
	Issuer    TVTokenIssuer
	Passwords PasswordHasher
	Tasks     core.TaskDispatcher

	// CodeAttempts bounds room code generation retries.
	CodeAttempts int
}

func New(rooms *app.RoomStore, dir core.RoomDirectory, dispatcher core.TaskDispatcher) *Orchestrator {
	o := &Orchestrator{
		Rooms:        rooms,
		Directory:    dir,
		Tasks:        dispatcher,
		CodeAttempts: 10,
	}
	rooms.OnEvict = o.onEvict
	return o
}

func (o *Orchestrator) dispatch(ctx context.Context, taskType string, payload any) {
	if o.Tasks == nil {
		return
	}
	o.Tasks.Dispatch(ctx, taskType, payload)
}

func (o *Orchestrator) track(ctx context.Context, name string, code domain.RoomCode, data map[string]any) {
	o.dispatch(ctx, tasks.TypeTrackEvent, tasks.TrackEventPayload{
		Event: core.NewEvent(name, string(code), data),
	})
}

func (o *Orchestrator) onEvict(code domain.RoomCode) {
	log.Info().Str("module", "orch").Str("room", string(code)).Msg("room evicted")
	o.track(context.Background(), core.EventRoomClosed, code, map[string]any{"reason": "inactive"})
}
