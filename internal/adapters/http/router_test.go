package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Karaoke/internal/adapters/storage"
	"github.com/dkeye/Karaoke/internal/analytics"
	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/app/account"
	"github.com/dkeye/Karaoke/internal/app/orch"
	"github.com/dkeye/Karaoke/internal/auth"
	"github.com/dkeye/Karaoke/internal/config"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]core.VideoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return []core.VideoResult{{VideoID: "v1", Title: "Dancing Queen"}}, nil
}

func (f *fakeSearcher) Info(_ context.Context, id string) (*core.VideoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &core.VideoResult{VideoID: id, Title: "Dancing Queen", ChannelTitle: "ABBA"}, nil
}

type testAPI struct {
	t        *testing.T
	r        *gin.Engine
	searcher *fakeSearcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := storage.Open(filepath.Join(dir, "karaoke.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	events, err := analytics.NewStore(filepath.Join(dir, "analytics.jsonl"))
	require.NoError(t, err)

	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)
	passwords := auth.Passwords{Cost: bcrypt.MinCost}

	rooms := app.NewRoomStore(db.Rooms(), app.Options{
		PlayDelay: time.Hour,
		Scorer:    app.ScorerFunc(func() int { return 90 }),
	})
	t.Cleanup(rooms.Close)
	o := orch.New(rooms, db.Rooms(), nil)
	o.Verifier = tokens
	o.Issuer = tokens
	o.Passwords = passwords

	searcher := &fakeSearcher{}
	cfg := &config.Config{Mode: "test", Secret: "session-secret", Auth: config.AuthConfig{AdminKey: "admin"}}
	r := SetupRouter(context.Background(), cfg, Deps{
		Orch:      o,
		Accounts:  account.NewService(db.Users(), tokens, passwords),
		Verifier:  tokens,
		Library:   db.Songs(),
		Analytics: events,
		Searcher:  searcher,
		Limiter:   NewLocalLimiter(3, time.Minute),
	})
	return &testAPI{t: t, r: r, searcher: searcher}
}

func (a *testAPI) call(method, path string, body any, token string) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (a *testAPI) list(path string) []any {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(a.t, http.StatusOK, w.Code)
	var out []any
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func hostInput(email string) gin.H {
	return gin.H{
		"name":      "Carla",
		"email":     email,
		"phone":     "11999990000",
		"password":  "segredo1",
		"city":      "Recife",
		"birthDate": "1990-04-12",
		"gender":    "feminino",
	}
}

func (a *testAPI) host(email string) string {
	a.t.Helper()
	status, body := a.call(http.MethodPost, "/api/auth/register-host", hostInput(email), "")
	require.Equal(a.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	status, body := a.call(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRoomLifecycle(t *testing.T) {
	a := newTestAPI(t)
	token := a.host("carla@example.com")

	status, body := a.call(http.MethodPost, "/api/rooms", gin.H{"tvPassword": "123456"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	status, body = a.call(http.MethodPost, "/api/rooms", gin.H{"tvPassword": "123"}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])

	status, body = a.call(http.MethodPost, "/api/rooms", gin.H{"tvPassword": "123456"}, token)
	require.Equal(t, http.StatusOK, status, body)
	code := body["roomCode"].(string)
	base := "/api/rooms/" + code

	status, body = a.call(http.MethodGet, "/api/rooms/"+string(bytes.ToLower([]byte(code)))+"/exists", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, code, body["roomCode"])
	status, _ = a.call(http.MethodGet, "/api/rooms/ZZZZZ/exists", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.call(http.MethodPost, base+"/enqueue", gin.H{"videoId": "v1", "title": "Song", "requestedBy": "Ana", "userId": "u1"}, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["itemId"])

	status, body = a.call(http.MethodPost, base+"/enqueue", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_videoId", body["error"])

	status, body = a.call(http.MethodGet, base+"/state", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["queue"], 1)

	status, body = a.call(http.MethodPost, base+"/queue/move", gin.H{"itemId": "x", "direction": "left"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_direction", body["error"])

	status, _ = a.call(http.MethodPost, base+"/next", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = a.call(http.MethodPost, base+"/player", gin.H{"action": "play"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "play", body["action"])

	status, body = a.call(http.MethodPost, base+"/finalize", gin.H{"requester": "Ana"}, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(90), body["score"])

	status, body = a.call(http.MethodPost, base+"/finalize", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "cooldown", body["error"])
	assert.Equal(t, float64(10000), body["cooldownMs"])

	status, _ = a.call(http.MethodPost, base+"/score-done", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = a.call(http.MethodGet, "/api/rooms/ZZZZZ/state", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "room_not_found", body["error"])

	status, body = a.call(http.MethodGet, "/api/rooms/my-rooms", nil, token)
	require.Equal(t, http.StatusOK, status)
	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, code, rooms[0].(map[string]any)["code"])
}

func TestTVLogin(t *testing.T) {
	a := newTestAPI(t)
	token := a.host("carla@example.com")
	_, body := a.call(http.MethodPost, "/api/rooms", gin.H{"tvPassword": "123456"}, token)
	code := body["roomCode"].(string)

	status, body := a.call(http.MethodPost, "/api/rooms/"+code+"/tv/login", gin.H{"tvPassword": "000000"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_password", body["error"])

	status, body = a.call(http.MethodPost, "/api/rooms/"+code+"/tv/login", gin.H{"tvPassword": "123456"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["tvToken"])
	assert.Equal(t, code, body["roomCode"])

	status, _ = a.call(http.MethodPost, "/api/rooms/ZZZZZ/tv/login", gin.H{"tvPassword": "123456"}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.call(http.MethodPost, "/api/rooms/"+code+"/tv/owner-access", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	other := a.host("outra@example.com")
	status, body = a.call(http.MethodPost, "/api/rooms/"+code+"/tv/owner-access", nil, other)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["error"])

	status, body = a.call(http.MethodPost, "/api/rooms/"+code+"/tv/owner-access", nil, token)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["tvToken"])
}

func TestAccounts(t *testing.T) {
	a := newTestAPI(t)
	guest := gin.H{"name": "Ana", "email": "Ana@Example.com", "phone": "11988887777"}

	status, body := a.call(http.MethodPost, "/api/auth/register-guest", guest, "")
	require.Equal(t, http.StatusOK, status, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ana@example.com", user["email"])
	assert.Equal(t, false, user["isComplete"])
	assert.Equal(t, false, user["canHost"])
	token := body["token"].(string)

	status, body = a.call(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ana", body["user"].(map[string]any)["name"])
	assert.Nil(t, body["user"].(map[string]any)["birthDate"])

	status, _ = a.call(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = a.call(http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "no_password", body["error"])

	status, body = a.call(http.MethodPost, "/api/auth/register-guest", gin.H{"name": "A", "email": "ana@example.com", "phone": "11988887777"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["message"])

	profile := hostInput("ana@example.com")
	delete(profile, "name")
	delete(profile, "email")
	status, body = a.call(http.MethodPost, "/api/auth/complete-registration", profile, token)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["user"].(map[string]any)["canHost"])

	status, body = a.call(http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "errada"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", body["error"])

	status, body = a.call(http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "segredo1"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["user"].(map[string]any)["isComplete"])

	status, body = a.call(http.MethodPost, "/api/auth/register-guest", guest, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email_registered", body["error"])
	assert.Equal(t, true, body["requiresLogin"])

	status, body = a.call(http.MethodPost, "/api/auth/register-host", hostInput("ana@example.com"), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "already_host", body["error"])

	status, body = a.call(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	me := body["user"].(map[string]any)
	assert.Equal(t, "1990-04-12", me["birthDate"])
	assert.Equal(t, "feminino", me["gender"])
}

func TestSongLibrary(t *testing.T) {
	a := newTestAPI(t)

	status, body := a.call(http.MethodPost, "/api/songs", gin.H{"title": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_videoId", body["error"])

	status, body = a.call(http.MethodPost, "/api/songs", gin.H{"videoId": "v1"}, "")
	require.Equal(t, http.StatusOK, status, body)
	song := body["song"].(map[string]any)
	assert.Equal(t, "(sem título)", song["title"])
	assert.Equal(t, "Anônimo", song["addedBy"])
	assert.Equal(t, float64(0), song["playCount"])

	songs := a.list("/api/songs")
	require.Len(t, songs, 1)
	assert.Equal(t, "v1", songs[0].(map[string]any)["videoId"])

	status, body = a.call(http.MethodGet, "/api/analytics/top-songs?limit=5", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["topSongs"])

	status, body = a.call(http.MethodDelete, "/api/songs/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, _ = a.call(http.MethodDelete, "/api/songs/v1", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, a.list("/api/songs"))
}

func TestSearch(t *testing.T) {
	a := newTestAPI(t)

	status, body := a.call(http.MethodGet, "/api/youtube/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_query", body["error"])

	results := a.list("/api/youtube/search?q=abba")
	require.Len(t, results, 1)
	assert.Equal(t, []string{"abba karaoke"}, a.searcher.queries)

	a.searcher.err = errors.New("yt-dlp exited 1")
	status, body = a.call(http.MethodGet, "/api/youtube/search?q=abba", nil, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "search_failed", body["error"])

	status, body = a.call(http.MethodGet, "/api/youtube/search?q=abba", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["error"])

	status, body = a.call(http.MethodGet, "/api/youtube/info?videoId=v9", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "v9", body["videoId"])
	assert.Equal(t, "", body["title"])
	assert.Contains(t, body["thumbnail"], "v9")

	a.searcher.err = nil
	status, body = a.call(http.MethodGet, "/api/youtube/info?videoId=v9", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ABBA", body["channelTitle"])

	status, _ = a.call(http.MethodGet, "/api/youtube/info", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminAnalytics(t *testing.T) {
	a := newTestAPI(t)

	status, body := a.call(http.MethodGet, "/api/analytics/active-rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"])
	status, _ = a.call(http.MethodGet, "/api/analytics/summary?key=wrong", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := a.host("carla@example.com")
	_, body = a.call(http.MethodPost, "/api/rooms", gin.H{"tvPassword": "123456"}, token)
	code := body["roomCode"].(string)

	status, body = a.call(http.MethodGet, "/api/analytics/active-rooms?key=admin", nil, "")
	require.Equal(t, http.StatusOK, status)
	active := body["activeRooms"].([]any)
	require.Len(t, active, 1)
	assert.Equal(t, code, active[0].(map[string]any)["code"])

	status, body = a.call(http.MethodGet, "/api/analytics/summary?key=admin", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "totalRooms")

	status, body = a.call(http.MethodGet, "/api/analytics/daily?key=admin&days=3", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["days"], 3)

	status, body = a.call(http.MethodGet, "/api/analytics/played-songs?key=admin&period=bogus", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "all", body["period"])
}
