package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "analytics.jsonl"))
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func ev(name, room string, ts time.Time, data map[string]any) core.Event {
	return core.Event{Event: name, TS: ts.UnixMilli(), RoomCode: room, Data: data}
}

func TestTrackAndSkipMalformed(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	s := newTestStore(t, now)

	assert.Empty(t, s.Events("", 0))

	s.Track(ev(core.EventRoomCreated, "ABCDE", now, nil))
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	s.Track(ev(core.EventUserJoined, "ABCDE", now, map[string]any{"userName": "Ana"}))

	all := s.Events("", 0)
	require.Len(t, all, 2)
	assert.Equal(t, core.EventRoomCreated, all[0].Event)
	assert.Len(t, s.Events(core.EventUserJoined, 0), 1)
	assert.Empty(t, s.Events("", now.Add(time.Second).UnixMilli()))
}

func TestReadsAreCached(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	s := newTestStore(t, now)
	s.Track(ev(core.EventRoomCreated, "ABCDE", now, nil))
	require.Len(t, s.Events("", 0), 1)

	// An out-of-band append is invisible until the cache expires.
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"event":"room_created","ts":1,"roomCode":"FGHJK"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Len(t, s.Events("", 0), 1)

	s.now = func() time.Time { return now.Add(CacheTTL) }
	assert.Len(t, s.Events("", 0), 2)
}

func TestTopSongs(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	s := newTestStore(t, now)

	s.Track(ev(core.EventSongFinalized, "A", now.Add(-40*day), map[string]any{"videoId": "old", "title": "Old"}))
	s.Track(ev(core.EventSongFinalized, "A", now.Add(-time.Hour), map[string]any{"videoId": "v1", "title": "One"}))
	s.Track(ev(core.EventSongFinalized, "A", now.Add(-2*day), map[string]any{"videoId": "v2"}))
	s.Track(ev(core.EventSongFinalized, "B", now.Add(-3*day), map[string]any{"videoId": "v2"}))
	s.Track(ev(core.EventSongEnqueued, "B", now, map[string]any{"videoId": "v1"}))

	all := s.TopSongs(20, PeriodAll)
	require.Len(t, all, 3)
	assert.Equal(t, TopSong{VideoID: "v2", Title: "Sem título", PlayCount: 2}, all[0])

	week := s.TopSongs(20, Period7d)
	require.Len(t, week, 2)
	assert.Equal(t, "v2", week[0].VideoID)

	today := s.TopSongs(20, PeriodToday)
	require.Len(t, today, 1)
	assert.Equal(t, "One", today[0].Title)

	assert.Len(t, s.TopSongs(1, PeriodAll), 1)
}

func TestSummary(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	s := newTestStore(t, now)

	s.Track(ev(core.EventRoomCreated, "AAAAA", now.Add(-10*day), nil))
	s.Track(ev(core.EventRoomCreated, "BBBBB", now.Add(-time.Hour), nil))
	s.Track(ev(core.EventRoomCreated, "CCCCC", now.Add(-2*day), nil))
	s.Track(ev(core.EventUserJoined, "BBBBB", now, map[string]any{"userName": "Ana"}))
	s.Track(ev(core.EventUserJoined, "BBBBB", now, map[string]any{"userName": "Ana"}))
	s.Track(ev(core.EventUserJoined, "CCCCC", now, map[string]any{"userName": "Ana"}))
	s.Track(ev(core.EventSongFinalized, "AAAAA", now.Add(-9*day), map[string]any{"videoId": "v1"}))
	for i := 0; i < 5; i++ {
		s.Track(ev(core.EventSongFinalized, "BBBBB", now.Add(-time.Minute), map[string]any{"videoId": "v2"}))
	}

	sum := s.Summary()
	assert.Equal(t, 3, sum.TotalRooms)
	assert.Equal(t, 2, sum.TotalUsers)
	assert.Equal(t, 6, sum.TotalSongsPlayed)
	assert.Equal(t, 1, sum.RoomsToday)
	assert.Equal(t, 2, sum.RoomsThisWeek)
	assert.Equal(t, 3, sum.RoomsThisMonth)
	assert.Equal(t, 1, sum.RoomsLastWeek)
	assert.Equal(t, 100, sum.RoomsGrowth)
	assert.Equal(t, 5, sum.SongsThisWeek)
	assert.Equal(t, 1, sum.SongsLastWeek)
	assert.Equal(t, 400, sum.SongsGrowth)
	assert.Equal(t, 2, sum.AvgSongsPerRoom)
	require.NotEmpty(t, sum.TopSongs)
	assert.Equal(t, "v2", sum.TopSongs[0].VideoID)
}

func TestGrowth(t *testing.T) {
	assert.Equal(t, 0, growth(0, 0))
	assert.Equal(t, 100, growth(3, 0))
	assert.Equal(t, -50, growth(1, 2))
}

func TestDailyStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)
	s.Track(ev(core.EventRoomCreated, "AAAAA", now, nil))
	s.Track(ev(core.EventSongFinalized, "AAAAA", now.Add(-day), nil))

	stats := s.DailyStats(7)
	require.Len(t, stats, 7)
	last := stats[len(stats)-1]
	assert.Equal(t, "2026-03-10", last.Date)
	assert.Equal(t, 1, last.Rooms)
	assert.Equal(t, 1, stats[len(stats)-2].Songs)
}
