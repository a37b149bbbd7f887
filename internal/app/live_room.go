package app

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// LiveRoom pairs a room's state with its connections.
// Every method except Code must run inside RoomStore.Do, which holds mu.
type LiveRoom struct {
	mu        sync.Mutex
	code      domain.RoomCode
	state     *domain.Room
	conns     *Connections
	opts      *Options
	evicted   bool
	playTimer *time.Timer
}

func newLiveRoom(state *domain.Room, opts *Options) *LiveRoom {
	return &LiveRoom{
		code:  state.Code,
		state: state,
		conns: newConnections(state.Code),
		opts:  opts,
	}
}

func (r *LiveRoom) Code() domain.RoomCode { return r.code }

func (r *LiveRoom) Snapshot() Snapshot { return snapshotOf(r.state) }

func (r *LiveRoom) CreatedAt() time.Time { return r.state.CreatedAt }

func (r *LiveRoom) touch() { r.state.LastActivityAt = r.opts.Now() }

// Touch marks client activity without mutating visible state.
func (r *LiveRoom) Touch() { r.touch() }

// Participants returns online participants plus those inside the grace window.
func (r *LiveRoom) Participants() []domain.Participant {
	return r.conns.visible(r.opts.Now(), r.opts.GraceWindow)
}

// Nickname resolves desired against the currently visible participants.
func (r *LiveRoom) Nickname(desired, id string) (string, bool) {
	return ResolveNickname(desired, id, r.Participants())
}

// Register adds conn under role; p is nil for sockets that are not participants.
func (r *LiveRoom) Register(conn core.SignalConnection, role core.Role, p *domain.Participant) {
	r.conns.register(conn, role, p)
}

// Unregister removes conn and, if it belonged to a participant, broadcasts
// the updated participant list.
func (r *LiveRoom) Unregister(conn core.SignalConnection) (domain.Participant, bool) {
	p, ok := r.conns.unregister(conn, r.opts.Now())
	if ok {
		r.BroadcastParticipants()
	}
	return p, ok
}

func (r *LiveRoom) ConnectedCount() int { return r.conns.connected() }

func (r *LiveRoom) OnlineParticipants() int { return len(r.conns.participants) }

func (r *LiveRoom) BroadcastState() {
	r.Broadcast(StateMessage{Type: MsgState, State: r.Snapshot()})
}

func (r *LiveRoom) BroadcastParticipants() {
	r.Broadcast(ParticipantsMessage{Type: MsgParticipants, Participants: r.Participants()})
}

// Broadcast serializes v once and sends it to every tv and mobile socket.
// Sockets that fail are handled per Policy; closed ones are always pruned.
func (r *LiveRoom) Broadcast(v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	sent := 0
	for _, conn := range r.conns.sockets() {
		if r.deliver(conn, frame) {
			sent++
		}
	}
	log.Debug().Str("module", "app.room").Str("room", string(r.code)).Int("sent_to", sent).Msg("broadcast")
}

// SendTV delivers v to tv sockets only.
func (r *LiveRoom) SendTV(v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	for _, conn := range r.conns.tvSockets() {
		r.deliver(conn, frame)
	}
}

// Send delivers v to one socket, registered or not.
func (r *LiveRoom) Send(conn core.SignalConnection, v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	_ = conn.TrySend(frame)
}

func (r *LiveRoom) deliver(conn core.SignalConnection, frame core.Frame) bool {
	err := conn.TrySend(frame)
	if err == nil {
		return true
	}
	action := KickMember
	if !errors.Is(err, core.ErrConnClosed) {
		action = r.opts.Policy.OnSendFailure(r.roleOf(conn), err)
	}
	switch action {
	case KickMember:
		r.conns.prune(conn)
		conn.Close()
		log.Warn().Err(err).Str("module", "app.room").Str("room", string(r.code)).Msg("pruned socket")
	case DropFrame, NoAction:
	}
	return false
}

func (r *LiveRoom) roleOf(conn core.SignalConnection) core.Role {
	if _, ok := r.conns.tv[conn]; ok {
		return core.RoleTV
	}
	return core.RoleMobile
}

// PlayerCommand forwards play/pause to the tv. Room state is untouched.
func (r *LiveRoom) PlayerCommand(action string) error {
	if action != "play" && action != "pause" {
		return domain.ErrInvalidAction
	}
	r.touch()
	r.SendTV(PlayerCommandMessage{Type: MsgPlayerCommand, Action: action})
	return nil
}

// schedulePlay arms a one-shot play command for the tv after PlayDelay.
// The timer is dropped if the room is evicted first.
func (r *LiveRoom) schedulePlay() {
	if r.playTimer != nil {
		r.playTimer.Stop()
	}
	r.playTimer = time.AfterFunc(r.opts.PlayDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.evicted {
			return
		}
		r.SendTV(PlayerCommandMessage{Type: MsgPlayerCommand, Action: "play"})
	})
}

func (r *LiveRoom) evict() {
	r.evicted = true
	if r.playTimer != nil {
		r.playTimer.Stop()
		r.playTimer = nil
	}
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.room").Msg("marshal message")
		return nil, false
	}
	return b, true
}
