package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	defaultSongTitle   = "(sem título)"
	defaultSongAddedBy = "Anônimo"
	defaultTopLimit    = 20
)

var errNoLibrary = errors.New("song library not configured")

type songView struct {
	ID        string `json:"id"`
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	AddedBy   string `json:"addedBy"`
	SavedAt   int64  `json:"savedAt"`
	PlayCount int    `json:"playCount"`
}

func songViewOf(s core.Song) songView {
	return songView{
		ID:        s.ID,
		VideoID:   s.VideoID,
		Title:     s.Title,
		AddedBy:   s.AddedBy,
		SavedAt:   s.CreatedAt.UnixMilli(),
		PlayCount: s.PlayCount,
	}
}

func (h *handlers) requireLibrary(c *gin.Context) bool {
	if h.Library == nil {
		writeError(c, errNoLibrary)
		return false
	}
	return true
}

func (h *handlers) listSongs(c *gin.Context) {
	if !h.requireLibrary(c) {
		return
	}
	songs, err := h.Library.ListSongs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]songView, 0, len(songs))
	for _, s := range songs {
		out = append(out, songViewOf(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) saveSong(c *gin.Context) {
	var req struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
		AddedBy string `json:"addedBy"`
	}
	if !bindBody(c, &req) {
		return
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" {
		writeError(c, domain.ErrMissingVideoID)
		return
	}
	if req.Title == "" {
		req.Title = defaultSongTitle
	}
	if req.AddedBy == "" {
		req.AddedBy = defaultSongAddedBy
	}
	if !h.requireLibrary(c) {
		return
	}
	song, err := h.Library.AddSong(c.Request.Context(), req.VideoID, req.Title, req.AddedBy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "song": songViewOf(*song)})
}

func (h *handlers) deleteSong(c *gin.Context) {
	if !h.requireLibrary(c) {
		return
	}
	removed, err := h.Library.RemoveSong(c.Request.Context(), c.Param("songId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !removed {
		writeError(c, domain.ErrItemNotFound)
		return
	}
	ok(c)
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (h *handlers) topSongs(c *gin.Context) {
	if !h.requireLibrary(c) {
		return
	}
	songs, err := h.Library.TopSongs(c.Request.Context(), queryInt(c, "limit", defaultTopLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	top := make([]gin.H, 0, len(songs))
	for _, s := range songs {
		top = append(top, gin.H{"videoId": s.VideoID, "title": s.Title, "playCount": s.PlayCount})
	}
	c.JSON(http.StatusOK, gin.H{"topSongs": top})
}
