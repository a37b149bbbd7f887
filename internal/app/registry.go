package app

import (
	"sort"
	"strings"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

type recentParticipant struct {
	Name     string
	LastSeen time.Time
}

// Connections tracks the live sockets of one room, partitioned by role.
// It is guarded by the owning LiveRoom's mutex.
type Connections struct {
	code         domain.RoomCode
	tv           map[core.SignalConnection]struct{}
	mobile       map[core.SignalConnection]struct{}
	participants map[core.SignalConnection]domain.Participant
	recent       map[string]recentParticipant
}

func newConnections(code domain.RoomCode) *Connections {
	return &Connections{
		code:         code,
		tv:           make(map[core.SignalConnection]struct{}),
		mobile:       make(map[core.SignalConnection]struct{}),
		participants: make(map[core.SignalConnection]domain.Participant),
		recent:       make(map[string]recentParticipant),
	}
}

func (c *Connections) register(conn core.SignalConnection, role core.Role, p *domain.Participant) {
	delete(c.tv, conn)
	delete(c.mobile, conn)
	delete(c.participants, conn)
	if role == core.RoleTV {
		c.tv[conn] = struct{}{}
		log.Info().Str("module", "app.registry").Str("room", string(c.code)).Msg("tv registered")
		return
	}
	c.mobile[conn] = struct{}{}
	if p != nil {
		c.participants[conn] = *p
		delete(c.recent, p.ID)
	}
	log.Info().Str("module", "app.registry").Str("room", string(c.code)).Bool("participant", p != nil).Msg("mobile registered")
}

// unregister removes conn everywhere. A departing participant enters the grace window.
func (c *Connections) unregister(conn core.SignalConnection, now time.Time) (domain.Participant, bool) {
	delete(c.tv, conn)
	delete(c.mobile, conn)
	p, ok := c.participants[conn]
	if !ok {
		return domain.Participant{}, false
	}
	delete(c.participants, conn)
	c.recent[p.ID] = recentParticipant{Name: p.Name, LastSeen: now}
	log.Info().Str("module", "app.registry").Str("room", string(c.code)).Str("participant", p.ID).Msg("participant left")
	return p, true
}

// prune drops a socket from the fan-out sets but keeps its participant record
// until the transport reports the close.
func (c *Connections) prune(conn core.SignalConnection) {
	delete(c.tv, conn)
	delete(c.mobile, conn)
}

func (c *Connections) sockets() []core.SignalConnection {
	out := make([]core.SignalConnection, 0, len(c.tv)+len(c.mobile))
	for conn := range c.tv {
		out = append(out, conn)
	}
	for conn := range c.mobile {
		out = append(out, conn)
	}
	return out
}

func (c *Connections) tvSockets() []core.SignalConnection {
	out := make([]core.SignalConnection, 0, len(c.tv))
	for conn := range c.tv {
		out = append(out, conn)
	}
	return out
}

func (c *Connections) connected() int {
	return len(c.tv) + len(c.mobile)
}

// visible lists online participants plus recent ones inside the grace
// window. Expired grace entries are evicted.
func (c *Connections) visible(now time.Time, grace time.Duration) []domain.Participant {
	byID := make(map[string]string, len(c.participants)+len(c.recent))
	for _, p := range c.participants {
		if p.ID != "" {
			byID[p.ID] = p.Name
		}
	}
	for id, rp := range c.recent {
		if now.Sub(rp.LastSeen) >= grace {
			delete(c.recent, id)
			continue
		}
		if _, online := byID[id]; !online {
			byID[id] = rp.Name
		}
	}

	out := make([]domain.Participant, 0, len(byID))
	for id, name := range byID {
		out = append(out, domain.Participant{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Connections) rename(id, name string) {
	for conn, p := range c.participants {
		if p.ID == id {
			c.participants[conn] = domain.Participant{ID: id, Name: name}
		}
	}
	if rp, ok := c.recent[id]; ok {
		rp.Name = name
		c.recent[id] = rp
	}
}
