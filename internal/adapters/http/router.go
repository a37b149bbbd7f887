package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Karaoke/internal/adapters/signal"
	"github.com/dkeye/Karaoke/internal/analytics"
	"github.com/dkeye/Karaoke/internal/app/account"
	"github.com/dkeye/Karaoke/internal/app/orch"
	"github.com/dkeye/Karaoke/internal/config"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the router hands to its handlers. Library,
// Analytics, Searcher and Limiter may be nil; their routes then degrade.
type Deps struct {
	Orch      *orch.Orchestrator
	Accounts  *account.Service
	Verifier  core.TokenVerifier
	Library   core.SongLibrary
	Analytics *analytics.Store
	Searcher  core.VideoSearcher
	Limiter   Limiter
	Signal    *signal.SignalWSController
}

type handlers struct {
	Deps
	adminKey string
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("KaraokeSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	h := &handlers{Deps: deps, adminKey: cfg.Auth.AdminKey}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Signal != nil {
		r.GET("/ws/:roomCode", func(c *gin.Context) {
			deps.Signal.HandleSignal(ctx, c)
		})
	}

	api := r.Group("/api")
	api.Use(BearerAuth(deps.Verifier))

	rooms := api.Group("/rooms")
	rooms.POST("", h.createRoom)
	rooms.GET("/my-rooms", h.myRooms)
	rooms.GET("/:roomCode/exists", h.roomExists)
	rooms.POST("/:roomCode/tv/login", h.tvLogin)
	rooms.POST("/:roomCode/tv/owner-access", h.ownerAccess)

	rooms.GET("/:roomCode/state", h.state)
	rooms.GET("/:roomCode/participants", h.participants)
	rooms.POST("/:roomCode/enqueue", h.enqueue)
	rooms.POST("/:roomCode/next", h.next)
	rooms.POST("/:roomCode/queue/remove", h.removeItem)
	rooms.POST("/:roomCode/queue/move", h.moveItem)
	rooms.POST("/:roomCode/queue/to-top", h.moveToTop)
	rooms.POST("/:roomCode/finalize", h.finalize)
	rooms.POST("/:roomCode/update-name", h.updateName)
	rooms.POST("/:roomCode/score-done", h.scoreDone)
	rooms.POST("/:roomCode/player", h.player)

	yt := api.Group("/youtube")
	yt.GET("/search", RateLimit(deps.Limiter, "search"), h.search)
	yt.GET("/info", h.videoInfo)

	api.GET("/songs", h.listSongs)
	api.POST("/songs", h.saveSong)
	api.DELETE("/songs/:songId", h.deleteSong)

	stats := api.Group("/analytics")
	stats.GET("/top-songs", h.topSongs)
	stats.GET("/active-rooms", h.requireAdmin, h.activeRooms)
	stats.GET("/summary", h.requireAdmin, h.summary)
	stats.GET("/daily", h.requireAdmin, h.daily)
	stats.GET("/played-songs", h.requireAdmin, h.playedSongs)

	accounts := api.Group("/auth")
	accounts.POST("/register-guest", h.registerGuest)
	accounts.POST("/register-host", h.registerHost)
	accounts.POST("/complete-registration", h.completeRegistration)
	accounts.POST("/login", h.login)
	accounts.GET("/me", h.me)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
