package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/Karaoke/internal/adapters/search"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const searchSuffix = " karaoke"

func (h *handlers) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, domain.ErrMissingQuery)
		return
	}
	if h.Searcher == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "search_failed"})
		return
	}
	results, err := h.Searcher.Search(c.Request.Context(), q+searchSuffix)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("q", q).Msg("search failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "search_failed"})
		return
	}
	if results == nil {
		results = []core.VideoResult{}
	}
	c.JSON(http.StatusOK, results)
}

func (h *handlers) videoInfo(c *gin.Context) {
	id := strings.TrimSpace(c.Query("videoId"))
	if id == "" {
		writeError(c, domain.ErrMissingVideoID)
		return
	}
	if h.Searcher != nil {
		info, err := h.Searcher.Info(c.Request.Context(), id)
		if err == nil && info != nil {
			c.JSON(http.StatusOK, info)
			return
		}
		log.Debug().Err(err).Str("module", "adapters.http").Str("videoId", id).Msg("video info fallback")
	}
	c.JSON(http.StatusOK, core.VideoResult{VideoID: id, Thumbnail: search.ThumbnailURL(id)})
}
