package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLibrary struct{ mock.Mock }

func (m *mockLibrary) AddSong(ctx context.Context, videoID, title, addedBy string) (*core.Song, error) {
	args := m.Called(ctx, videoID, title, addedBy)
	s, _ := args.Get(0).(*core.Song)
	return s, args.Error(1)
}

func (m *mockLibrary) IncrementPlayCount(ctx context.Context, videoID string) error {
	return m.Called(ctx, videoID).Error(0)
}

func (m *mockLibrary) ListSongs(ctx context.Context) ([]core.Song, error) {
	args := m.Called(ctx)
	return args.Get(0).([]core.Song), args.Error(1)
}

func (m *mockLibrary) TopSongs(ctx context.Context, limit int) ([]core.Song, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]core.Song), args.Error(1)
}

func (m *mockLibrary) RemoveSong(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) FindRoom(ctx context.Context, code domain.RoomCode) (*core.RoomRecord, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*core.RoomRecord)
	return r, args.Error(1)
}

func (m *mockDirectory) CreateRoom(ctx context.Context, rec *core.RoomRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockDirectory) RoomsByOwner(ctx context.Context, ownerID string) ([]core.RoomRecord, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]core.RoomRecord), args.Error(1)
}

func (m *mockDirectory) IncrementVisitors(ctx context.Context, code domain.RoomCode) error {
	return m.Called(ctx, code).Error(0)
}

type recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recorder) Track(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

func payload(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleSongTasks(t *testing.T) {
	ctx := context.Background()
	lib := &mockLibrary{}
	lib.On("AddSong", ctx, "vid1", "Song", "Ana").Return(&core.Song{VideoID: "vid1"}, nil).Once()
	lib.On("IncrementPlayCount", ctx, "vid1").Return(nil).Once()

	h := NewHandler(lib, nil, nil)
	require.NoError(t, h.Handle(ctx, TypeSongSave, payload(t, SongSavePayload{VideoID: "vid1", Title: "Song", AddedBy: "Ana"})))
	require.NoError(t, h.Handle(ctx, TypeSongPlayed, payload(t, SongPlayedPayload{VideoID: "vid1"})))
	lib.AssertExpectations(t)
}

func TestHandleWithoutCollaborators(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	ctx := context.Background()

	assert.NoError(t, h.Handle(ctx, TypeSongSave, payload(t, SongSavePayload{VideoID: "v"})))
	assert.NoError(t, h.Handle(ctx, TypeSongPlayed, payload(t, SongPlayedPayload{VideoID: "v"})))
	assert.NoError(t, h.Handle(ctx, TypeRoomVisit, payload(t, RoomVisitPayload{RoomCode: "ABCDE", UserID: "u"})))
	assert.NoError(t, h.Handle(ctx, TypeTrackEvent, payload(t, TrackEventPayload{})))
}

func TestHandleRejectsBadInput(t *testing.T) {
	h := NewHandler(nil, nil, nil)

	err := h.Handle(context.Background(), TypeSongSave, []byte("{"))
	assert.ErrorIs(t, err, ErrBadPayload)

	err = h.Handle(context.Background(), "song:sing", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestHandleTrackEvent(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(nil, nil, rec)
	ev := core.Event{Event: core.EventSongStarted, TS: 42, RoomCode: "ABCDE"}

	require.NoError(t, h.Handle(context.Background(), TypeTrackEvent, payload(t, TrackEventPayload{Event: ev})))
	assert.Equal(t, []core.Event{ev}, rec.all())
}

func TestRecordVisitCountsOncePerUser(t *testing.T) {
	ctx := context.Background()
	dir := &mockDirectory{}
	dir.On("FindRoom", ctx, domain.RoomCode("ABCDE")).Return(&core.RoomRecord{Code: "ABCDE"}, nil)
	dir.On("IncrementVisitors", ctx, domain.RoomCode("ABCDE")).Return(nil)

	h := NewHandler(nil, dir, nil)
	first, err := h.RecordVisit(ctx, "ABCDE", "u1")
	require.NoError(t, err)
	again, err := h.RecordVisit(ctx, "ABCDE", "u1")
	require.NoError(t, err)
	other, err := h.RecordVisit(ctx, "ABCDE", "u2")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, other)
	dir.AssertNumberOfCalls(t, "IncrementVisitors", 2)

	h.ClearVisits("ABCDE")
	counted, err := h.RecordVisit(ctx, "ABCDE", "u1")
	require.NoError(t, err)
	assert.True(t, counted)
	dir.AssertNumberOfCalls(t, "IncrementVisitors", 3)
}

func TestRecordVisitUnknownRoom(t *testing.T) {
	ctx := context.Background()
	dir := &mockDirectory{}
	dir.On("FindRoom", ctx, domain.RoomCode("ZZZZZ")).Return(nil, core.ErrNotFound)

	h := NewHandler(nil, dir, nil)
	counted, err := h.RecordVisit(ctx, "ZZZZZ", "u1")
	require.NoError(t, err)
	assert.False(t, counted)
	dir.AssertNotCalled(t, "IncrementVisitors", mock.Anything, mock.Anything)
}

func TestRecordVisitDirectoryFailure(t *testing.T) {
	ctx := context.Background()
	dir := &mockDirectory{}
	dir.On("FindRoom", ctx, domain.RoomCode("ABCDE")).Return(nil, errors.New("disk full"))

	h := NewHandler(nil, dir, nil)
	_, err := h.RecordVisit(ctx, "ABCDE", "u1")
	assert.Error(t, err)
}

func TestRecordVisitIgnoresAnonymous(t *testing.T) {
	dir := &mockDirectory{}
	h := NewHandler(nil, dir, nil)

	counted, err := h.RecordVisit(context.Background(), "ABCDE", "")
	require.NoError(t, err)
	assert.False(t, counted)
	dir.AssertExpectations(t)
}

func TestInlineDispatcherRunsTask(t *testing.T) {
	lib := &mockLibrary{}
	lib.On("IncrementPlayCount", mock.Anything, "vid1").Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	d := NewInlineDispatcher(NewHandler(lib, nil, nil))
	d.Dispatch(ctx, TypeSongPlayed, SongPlayedPayload{VideoID: "vid1"})
	cancel()
	d.Wait()

	lib.AssertExpectations(t)
}
