package orch

import (
	"context"
	"strings"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/dkeye/Karaoke/internal/tasks"
	"github.com/rs/zerolog/log"
)

// HelloRequest is the realtime handshake. Token is preferred; Role, Name and
// UserID are the legacy unauthenticated fields.
type HelloRequest struct {
	Token  string
	Role   string
	Name   string
	UserID string
}

type HelloResult struct {
	Role   core.Role
	Name   string
	UserID string
}

// Open checks that a room exists (restoring it if needed) before a socket attaches.
func (o *Orchestrator) Open(ctx context.Context, code domain.RoomCode) error {
	_, err := o.Rooms.RestoreOrLoad(ctx, code)
	return err
}

// Hello classifies conn, resolves a nickname for mobile participants and sends
// the acknowledgement, the room snapshot and the participant list. Token
// failures return ErrInvalidToken or ErrWrongRoom; the caller closes conn.
func (o *Orchestrator) Hello(ctx context.Context, code domain.RoomCode, conn core.SignalConnection, req HelloRequest) (HelloResult, error) {
	var principal *core.Principal
	if req.Token != "" {
		var (
			p   *core.Principal
			err error = domain.ErrInvalidToken
		)
		if o.Verifier != nil {
			p, err = o.Verifier.Verify(req.Token)
		}
		if err != nil {
			return HelloResult{}, domain.WithMessage(domain.ErrInvalidToken, "Token inválido ou expirado")
		}
		if p.Kind == core.PrincipalTV && p.RoomCode != code {
			return HelloResult{}, domain.WithMessage(domain.ErrWrongRoom, "Token não é válido para esta sala")
		}
		principal = p
	}

	var res HelloResult
	participant := false
	err := o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		r.Touch()
		switch {
		case principal != nil && principal.Kind == core.PrincipalTV:
			res = HelloResult{Role: core.RoleTV, Name: "TV", UserID: "tv_" + string(code)}
			r.Register(conn, core.RoleTV, nil)
		case principal != nil:
			res, participant = o.helloUser(r, conn, principal, req.Name), true
		default:
			res, participant = o.helloLegacy(r, conn, req)
		}

		r.Send(conn, app.HelloMessage{Type: app.MsgHello, RoomCode: code, Role: res.Role, Name: res.Name, UserID: res.UserID})
		r.Send(conn, app.StateMessage{Type: app.MsgState, State: r.Snapshot()})
		r.Send(conn, app.ParticipantsMessage{Type: app.MsgParticipants, Participants: r.Participants()})
		return nil
	})
	if err != nil {
		return HelloResult{}, err
	}
	log.Info().Str("module", "orch").Str("room", string(code)).Str("role", string(res.Role)).Str("user", res.UserID).Msg("hello")

	if principal != nil && principal.Kind == core.PrincipalUser {
		o.dispatch(ctx, tasks.TypeRoomVisit, tasks.RoomVisitPayload{RoomCode: string(code), UserID: res.UserID})
	}
	if participant {
		o.track(ctx, core.EventUserJoined, code, map[string]any{"userName": res.Name, "userId": res.UserID})
	}
	return res, nil
}

func (o *Orchestrator) helloUser(r *app.LiveRoom, conn core.SignalConnection, p *core.Principal, hint string) HelloResult {
	requested := hint
	if strings.TrimSpace(requested) == "" {
		requested = p.Name
	}
	name, modified := r.Nickname(requested, p.UserID)

	r.Register(conn, core.RoleMobile, &domain.Participant{ID: p.UserID, Name: name})
	r.Send(conn, app.NicknameAssignedMessage{
		Type:         app.MsgNicknameAssigned,
		Nickname:     name,
		OriginalName: requested,
		WasModified:  modified,
	})
	r.BroadcastParticipants()
	return HelloResult{Role: core.RoleMobile, Name: name, UserID: p.UserID}
}

func (o *Orchestrator) helloLegacy(r *app.LiveRoom, conn core.SignalConnection, req HelloRequest) (HelloResult, bool) {
	role := core.RoleMobile
	if req.Role == string(core.RoleTV) {
		role = core.RoleTV
	}
	res := HelloResult{Role: role, Name: req.Name, UserID: req.UserID}
	if res.UserID == "" {
		res.UserID = app.AnonymousID()
	}

	if role == core.RoleTV {
		r.Register(conn, core.RoleTV, nil)
		return res, false
	}
	if strings.TrimSpace(req.Name) == "" {
		r.Register(conn, core.RoleMobile, nil)
		return res, false
	}

	name, modified := r.Nickname(req.Name, res.UserID)
	if modified {
		r.Send(conn, app.NicknameAssignedMessage{
			Type:         app.MsgNicknameAssigned,
			Nickname:     name,
			OriginalName: req.Name,
			WasModified:  true,
		})
	}
	res.Name = name
	r.Register(conn, core.RoleMobile, &domain.Participant{ID: res.UserID, Name: name})
	r.BroadcastParticipants()
	return res, true
}

// Leave detaches conn. A departing participant stays visible for the grace window.
func (o *Orchestrator) Leave(ctx context.Context, code domain.RoomCode, conn core.SignalConnection) {
	var (
		left domain.Participant
		had  bool
	)
	o.Rooms.DoIfPresent(code, func(r *app.LiveRoom) {
		left, had = r.Unregister(conn)
	})
	if had {
		o.track(ctx, core.EventUserLeft, code, map[string]any{"userName": left.Name, "userId": left.ID})
	}
}
