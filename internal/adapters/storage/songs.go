package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/google/uuid"
)

// Songs implements core.SongLibrary. Video ids are unique.
type Songs struct {
	d   *DB
	now func() time.Time
}

func (d *DB) Songs() *Songs { return &Songs{d: d, now: time.Now} }

const songColumns = `id, video_id, title, added_by, play_count, created_at, last_played_at`

func scanSong(row interface{ Scan(...any) error }) (*core.Song, error) {
	var (
		s       core.Song
		created int64
		played  sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.VideoID, &s.Title, &s.AddedBy, &s.PlayCount, &created, &played); err != nil {
		return nil, err
	}
	s.CreatedAt = fromMillis(created)
	s.LastPlayedAt = nullTime(played)
	return &s, nil
}

// AddSong inserts a song or returns the existing row untouched.
func (s *Songs) AddSong(ctx context.Context, videoID, title, addedBy string) (*core.Song, error) {
	_, err := s.d.db.ExecContext(ctx,
		`INSERT INTO songs (id, video_id, title, added_by, play_count, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)
		 ON CONFLICT(video_id) DO NOTHING`,
		uuid.NewString(), videoID, title, addedBy, toMillis(s.now()))
	if err != nil {
		return nil, fmt.Errorf("upsert song: %w", err)
	}
	return s.find(ctx, videoID)
}

func (s *Songs) find(ctx context.Context, videoID string) (*core.Song, error) {
	song, err := scanSong(s.d.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE video_id = ?`, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find song: %w", err)
	}
	return song, nil
}

func (s *Songs) IncrementPlayCount(ctx context.Context, videoID string) error {
	res, err := s.d.db.ExecContext(ctx,
		`UPDATE songs SET play_count = play_count + 1, last_played_at = ? WHERE video_id = ?`,
		toMillis(s.now()), videoID)
	if err != nil {
		return fmt.Errorf("increment play count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Songs) ListSongs(ctx context.Context) ([]core.Song, error) {
	return s.query(ctx, `SELECT `+songColumns+` FROM songs ORDER BY created_at DESC`)
}

func (s *Songs) TopSongs(ctx context.Context, limit int) ([]core.Song, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx,
		`SELECT `+songColumns+` FROM songs WHERE play_count > 0 ORDER BY play_count DESC, created_at ASC LIMIT ?`, limit)
}

// RemoveSong deletes by row id or video id and reports whether anything went.
func (s *Songs) RemoveSong(ctx context.Context, idOrVideoID string) (bool, error) {
	res, err := s.d.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ? OR video_id = ?`, idOrVideoID, idOrVideoID)
	if err != nil {
		return false, fmt.Errorf("delete song: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Songs) query(ctx context.Context, q string, args ...any) ([]core.Song, error) {
	rows, err := s.d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	out := []core.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		out = append(out, *song)
	}
	return out, rows.Err()
}
