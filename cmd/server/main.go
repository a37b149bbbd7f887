package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Karaoke/internal/adapters/http"
	"github.com/dkeye/Karaoke/internal/adapters/search"
	wsignal "github.com/dkeye/Karaoke/internal/adapters/signal"
	"github.com/dkeye/Karaoke/internal/adapters/storage"
	"github.com/dkeye/Karaoke/internal/analytics"
	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/app/account"
	"github.com/dkeye/Karaoke/internal/app/orch"
	"github.com/dkeye/Karaoke/internal/auth"
	"github.com/dkeye/Karaoke/internal/config"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/dkeye/Karaoke/internal/tasks"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("failed to open database")
	}
	defer db.Close()

	events, err := analytics.NewStore(cfg.Analytics.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Analytics.Path).Msg("failed to open analytics log")
	}

	library := db.Songs()
	directory := db.Rooms()
	handler := tasks.NewHandler(library, directory, events)
	inline := tasks.NewInlineDispatcher(handler)

	var (
		dispatcher core.TaskDispatcher = inline
		limiter    router.Limiter      = router.NewLocalLimiter(cfg.RateLimit.SearchRequests, cfg.RateLimit.SearchWindow)
		worker     *tasks.WorkerServer
		queue      *tasks.AsynqDispatcher
		rdb        *redis.Client
	)
	if cfg.Redis.Addr != "" {
		opt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		queue = tasks.NewAsynqDispatcher(opt, inline)
		dispatcher = queue
		worker = tasks.NewWorkerServer(opt, handler, cfg.Redis.Concurrency)
		if err := worker.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start task worker")
		}

		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		limiter = router.NewRedisLimiter(rdb, cfg.RateLimit.SearchRequests, cfg.RateLimit.SearchWindow)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis enabled for tasks and rate limiting")
	}

	opts := app.Options{
		FinalizeCooldown:  cfg.Room.FinalizeCooldown,
		PlayDelay:         cfg.Room.PlayDelay,
		GraceWindow:       cfg.Room.GraceWindow,
		CleanupInterval:   cfg.Room.CleanupInterval,
		InactiveThreshold: cfg.Room.InactiveThreshold,
		Scorer:            app.NewBiasedScorer(cfg.Room.MaxScore, cfg.Room.ScoreBias, cfg.Room.PerfectChance),
	}
	if cfg.Room.TolerantSends {
		opts.Policy = app.TolerantPolicy{}
	}
	rooms := app.NewRoomStore(directory, opts)

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tokens")
	}
	passwords := auth.NewPasswords()

	o := orch.New(rooms, directory, dispatcher)
	o.Verifier = tokens
	o.Issuer = tokens
	o.Passwords = passwords
	if cfg.Room.CodeAttempts > 0 {
		o.CodeAttempts = cfg.Room.CodeAttempts
	}
	onEvict := rooms.OnEvict
	rooms.OnEvict = func(code domain.RoomCode) {
		onEvict(code)
		handler.ClearVisits(code)
	}

	var searcher core.VideoSearcher = search.NewYtDlp(cfg.Search.YtDlpPath, cfg.Search.Results, cfg.Search.Timeout)
	if cfg.Search.YouTubeAPIKey != "" {
		api, err := search.NewYouTubeAPI(ctx, cfg.Search.YouTubeAPIKey, int64(cfg.Search.Results))
		if err != nil {
			log.Warn().Err(err).Msg("youtube api unavailable, using yt-dlp")
		} else {
			searcher = api
		}
	}

	ws := wsignal.NewSignalWSController(o, wsignal.Settings{
		ReadLimit:         cfg.ReadLimit,
		PingPeriod:        cfg.PingPeriod,
		SendBuffer:        cfg.WS.SendBuffer,
		MessagesPerSecond: cfg.WS.MessagesPerSecond,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:      o,
		Accounts:  account.NewService(db.Users(), tokens, passwords),
		Verifier:  tokens,
		Library:   library,
		Analytics: events,
		Searcher:  searcher,
		Limiter:   limiter,
		Signal:    ws,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Karaoke server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	rooms.Close()
	if worker != nil {
		worker.Shutdown()
	}
	if queue != nil {
		if err := queue.Close(); err != nil {
			log.Warn().Err(err).Msg("close task queue")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	inline.Wait()
	log.Info().Msg("Server exited gracefully")
}
