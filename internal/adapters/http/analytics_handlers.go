package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/dkeye/Karaoke/internal/analytics"
	"github.com/gin-gonic/gin"
)

func (h *handlers) requireAdmin(c *gin.Context) {
	key := c.Query("key")
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

func (h *handlers) activeRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activeRooms": h.Orch.ActiveRooms()})
}

func (h *handlers) summary(c *gin.Context) {
	if h.Analytics == nil {
		c.JSON(http.StatusOK, analytics.Summary{TopSongs: []analytics.TopSong{}})
		return
	}
	c.JSON(http.StatusOK, h.Analytics.Summary())
}

func (h *handlers) daily(c *gin.Context) {
	if h.Analytics == nil {
		c.JSON(http.StatusOK, gin.H{"days": []analytics.DailyStats{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": h.Analytics.DailyStats(queryInt(c, "days", 7))})
}

func (h *handlers) playedSongs(c *gin.Context) {
	period := analytics.Period(c.DefaultQuery("period", string(analytics.PeriodAll)))
	switch period {
	case analytics.PeriodToday, analytics.Period7d, analytics.Period30d, analytics.PeriodAll:
	default:
		period = analytics.PeriodAll
	}
	top := []analytics.TopSong{}
	if h.Analytics != nil {
		top = h.Analytics.TopSongs(queryInt(c, "limit", 10), period)
	}
	c.JSON(http.StatusOK, gin.H{"topSongs": top, "period": period})
}
