package orch

import (
	"context"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/dkeye/Karaoke/internal/tasks"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) State(ctx context.Context, code domain.RoomCode) (app.Snapshot, error) {
	var snap app.Snapshot
	err := o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		snap = r.Snapshot()
		return nil
	})
	return snap, err
}

func (o *Orchestrator) Participants(ctx context.Context, code domain.RoomCode) ([]domain.Participant, error) {
	var out []domain.Participant
	err := o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		out = r.Participants()
		return nil
	})
	return out, err
}

func (o *Orchestrator) Enqueue(ctx context.Context, code domain.RoomCode, req app.EnqueueRequest) (domain.QueueItem, error) {
	var item domain.QueueItem
	err := o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		var err error
		item, err = r.Enqueue(req)
		return err
	})
	if err != nil {
		return item, err
	}
	log.Info().Str("module", "orch").Str("room", string(code)).Str("video", item.VideoID).Int("singers", len(item.Singers)).Msg("enqueued")

	o.dispatch(ctx, tasks.TypeSongSave, tasks.SongSavePayload{
		VideoID: item.VideoID,
		Title:   item.Title,
		AddedBy: item.RequestedBy,
	})
	o.track(ctx, core.EventSongEnqueued, code, map[string]any{
		"videoId":     item.VideoID,
		"title":       item.Title,
		"requestedBy": item.RequestedBy,
	})
	return item, nil
}

// Next advances the queue; the returned item is nil when the queue was empty.
func (o *Orchestrator) Next(ctx context.Context, code domain.RoomCode) (*domain.QueueItem, error) {
	var item *domain.QueueItem
	err := o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		item = r.Advance()
		return nil
	})
	if err != nil || item == nil {
		return item, err
	}
	o.track(ctx, core.EventSongStarted, code, map[string]any{
		"videoId": item.VideoID,
		"title":   item.Title,
	})
	return item, nil
}

func (o *Orchestrator) RemoveItem(ctx context.Context, code domain.RoomCode, itemID string) error {
	return o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		return r.RemoveFromQueue(itemID)
	})
}

func (o *Orchestrator) MoveItem(ctx context.Context, code domain.RoomCode, itemID, direction string) error {
	return o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		return r.MoveQueue(itemID, direction)
	})
}

func (o *Orchestrator) MoveToTop(ctx context.Context, code domain.RoomCode, itemID string) error {
	return o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		return r.MoveToTop(itemID)
	})
}

func (o *Orchestrator) Finalize(ctx context.Context, code domain.RoomCode, requester string) (app.FinalizeResult, error) {
	var res app.FinalizeResult
	err := o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		var err error
		res, err = r.Finalize(requester)
		return err
	})
	if err != nil {
		return res, err
	}
	log.Info().Str("module", "orch").Str("room", string(code)).Int("score", res.Score).Msg("finalized")

	o.dispatch(ctx, tasks.TypeSongPlayed, tasks.SongPlayedPayload{VideoID: res.Item.VideoID})
	names := make([]string, len(res.Singers))
	for i, s := range res.Singers {
		names[i] = s.Name
	}
	o.track(ctx, core.EventSongFinalized, code, map[string]any{
		"videoId": res.Item.VideoID,
		"title":   res.Item.Title,
		"singers": names,
		"score":   res.Score,
	})
	return res, nil
}

func (o *Orchestrator) Rename(ctx context.Context, code domain.RoomCode, userID, newName string) error {
	return o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		return r.Rename(userID, newName)
	})
}

func (o *Orchestrator) ScoreDone(ctx context.Context, code domain.RoomCode) error {
	return o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		r.ScoreDone()
		return nil
	})
}

func (o *Orchestrator) Player(ctx context.Context, code domain.RoomCode, action string) error {
	return o.Rooms.Do(ctx, code, func(r *app.LiveRoom) error {
		return r.PlayerCommand(action)
	})
}

func (o *Orchestrator) ActiveRooms() []app.RoomInfo {
	return o.Rooms.List()
}
