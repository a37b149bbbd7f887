package app

import (
	"fmt"
	"strings"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultTitle     = "(sem título)"
	DefaultRequester = "Convidado"
)

type EnqueueRequest struct {
	VideoID     string
	Title       string
	RequestedBy string
	Partner     string
	UserID      string
	PartnerID   string
}

// AnonymousID builds a fallback participant id.
func AnonymousID() string { return "anon_" + uuid.NewString()[:8] }

// Enqueue appends a song to the tail of the queue.
func (r *LiveRoom) Enqueue(req EnqueueRequest) (domain.QueueItem, error) {
	r.touch()
	videoID := strings.TrimSpace(req.VideoID)
	if videoID == "" {
		return domain.QueueItem{}, domain.ErrMissingVideoID
	}
	title := orDefault(req.Title, DefaultTitle)
	requestedBy := orDefault(req.RequestedBy, DefaultRequester)
	userID := orDefault(req.UserID, "")
	if userID == "" {
		userID = AnonymousID()
	}
	partner := strings.TrimSpace(req.Partner)
	partnerID := strings.TrimSpace(req.PartnerID)

	singers := []domain.Singer{{ID: userID, Name: requestedBy}}
	if partner != "" && partner != requestedBy && partnerID != "" {
		singers = append(singers, domain.Singer{ID: partnerID, Name: partner})
	}

	item := domain.QueueItem{
		ID:          uuid.NewString(),
		VideoID:     videoID,
		Title:       title,
		RequestedBy: requestedBy,
		Singers:     singers,
	}
	r.state.Queue = append(r.state.Queue, item)
	r.BroadcastState()
	return item.Clone(), nil
}

// Advance moves the head of the queue into now playing. It returns nil when
// the queue was empty; otherwise a delayed play command is scheduled for the tv.
func (r *LiveRoom) Advance() *domain.QueueItem {
	r.touch()
	if len(r.state.Queue) == 0 {
		r.state.NowPlaying = nil
		r.BroadcastState()
		return nil
	}
	head := r.state.Queue[0]
	r.state.Queue = r.state.Queue[1:]
	if len(head.Singers) == 0 {
		head.Singers = []domain.Singer{{ID: AnonymousID(), Name: head.RequestedBy}}
	}
	r.state.NowPlaying = &head
	r.BroadcastState()
	r.schedulePlay()

	out := head.Clone()
	return &out
}

func (r *LiveRoom) indexOf(itemID string) (int, error) {
	if itemID == "" {
		return -1, domain.ErrMissingItemID
	}
	for i, item := range r.state.Queue {
		if item.ID == itemID {
			return i, nil
		}
	}
	return -1, domain.ErrItemNotFound
}

// RemoveFromQueue drops the matching entry.
func (r *LiveRoom) RemoveFromQueue(itemID string) error {
	r.touch()
	idx, err := r.indexOf(strings.TrimSpace(itemID))
	if err != nil {
		return err
	}
	r.state.Queue = append(r.state.Queue[:idx], r.state.Queue[idx+1:]...)
	r.BroadcastState()
	return nil
}

// MoveQueue swaps an entry with its neighbour; direction is "up" or "down".
// Moving past either end is a no-op.
func (r *LiveRoom) MoveQueue(itemID, direction string) error {
	r.touch()
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.ErrMissingItemID
	}
	var step int
	switch direction {
	case "up":
		step = -1
	case "down":
		step = 1
	default:
		return domain.ErrInvalidDirection
	}
	idx, err := r.indexOf(itemID)
	if err != nil {
		return err
	}
	next := idx + step
	if next >= 0 && next < len(r.state.Queue) {
		q := r.state.Queue
		q[idx], q[next] = q[next], q[idx]
	}
	r.BroadcastState()
	return nil
}

// MoveToTop reinserts an entry at index 0.
func (r *LiveRoom) MoveToTop(itemID string) error {
	r.touch()
	idx, err := r.indexOf(strings.TrimSpace(itemID))
	if err != nil {
		return err
	}
	if idx > 0 {
		item := r.state.Queue[idx]
		copy(r.state.Queue[1:idx+1], r.state.Queue[:idx])
		r.state.Queue[0] = item
	}
	r.BroadcastState()
	return nil
}

type FinalizeResult struct {
	Score   int
	Item    domain.QueueItem
	Singers []domain.Singer
}

// Finalize scores the song that is playing. It fails with a CooldownError
// inside the cooldown window and ErrNothingPlaying when idle; neither failure
// mutates the room.
func (r *LiveRoom) Finalize(requester string) (FinalizeResult, error) {
	r.touch()
	now := r.opts.Now()
	if !r.state.LastFinalize.IsZero() && now.Sub(r.state.LastFinalize) < r.opts.FinalizeCooldown {
		return FinalizeResult{}, &domain.CooldownError{Window: r.opts.FinalizeCooldown}
	}
	np := r.state.NowPlaying
	if np == nil {
		return FinalizeResult{}, domain.ErrNothingPlaying
	}
	requester = orDefault(requester, DefaultRequester)

	singers := np.Singers
	if len(singers) == 0 {
		singers = []domain.Singer{{ID: AnonymousID(), Name: np.RequestedBy}}
	}
	score := r.opts.Scorer.Score()

	applyScore(r.state, singers, score)
	r.state.LastFinalize = now
	r.state.ShowingScore = true

	names := singerNames(singers)
	r.Broadcast(FinalizedMessage{
		Type:    MsgFinalized,
		By:      requester,
		Singer:  domain.SingerDisplay(names),
		Singers: names,
		Score:   score,
		VideoID: np.VideoID,
		Title:   np.Title,
	})

	res := FinalizeResult{Score: score, Item: np.Clone(), Singers: append([]domain.Singer(nil), singers...)}
	r.state.NowPlaying = nil
	r.BroadcastState()
	return res, nil
}

// ScoreDone clears the scoring overlay flag. Calling it twice is harmless.
func (r *LiveRoom) ScoreDone() {
	r.touch()
	r.state.ShowingScore = false
	r.BroadcastState()
}

// Rename changes a participant's display name everywhere it is denormalized.
func (r *LiveRoom) Rename(userID, newName string) error {
	r.touch()
	if userID == "" || newName == "" {
		return domain.ErrMissingRename
	}
	name, err := domain.CleanUsername(newName)
	if err != nil {
		return err
	}
	if nameTaken(name, userID, r.Participants()) {
		return domain.WithMessage(domain.ErrDuplicateName,
			fmt.Sprintf("O nome \"%s\" já está sendo usado nesta sala.", name))
	}

	if entry, ok := r.state.Ranking[userID]; ok {
		entry.Name = name
		r.state.Ranking[userID] = entry
	}
	for _, entry := range r.state.DuetRanking {
		for i, id := range entry.SingerIDs {
			if id == userID {
				entry.Names[i] = name
			}
		}
	}
	for i := range r.state.Queue {
		renameSingers(&r.state.Queue[i], userID, name)
	}
	if r.state.NowPlaying != nil {
		renameSingers(r.state.NowPlaying, userID, name)
	}
	r.conns.rename(userID, name)

	r.BroadcastParticipants()
	r.BroadcastState()
	return nil
}

func renameSingers(item *domain.QueueItem, userID, name string) {
	hit := false
	for i := range item.Singers {
		if item.Singers[i].ID == userID {
			item.Singers[i].Name = name
			hit = true
		}
	}
	if hit {
		item.RequestedBy = domain.JoinRequestedBy(item.Singers)
	}
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
