package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// WorkerServer consumes the asynq queues with a Handler.
type WorkerServer struct {
	server  *asynq.Server
	handler *Handler
}

func NewWorkerServer(opt asynq.RedisClientOpt, h *Handler, concurrency int) *WorkerServer {
	if concurrency <= 0 {
		concurrency = 4
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Logger:      zerologAdapter{},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Warn().Err(err).Str("module", "tasks.worker").Str("task", task.Type()).
				Int("retry", retried).Int("max_retry", maxRetry).Msg("task failed")
		}),
	})
	return &WorkerServer{server: server, handler: h}
}

func (w *WorkerServer) Start() error {
	mux := asynq.NewServeMux()
	for _, t := range Types {
		mux.HandleFunc(t, w.process)
	}
	log.Info().Str("module", "tasks.worker").Msg("worker starting")
	return w.server.Start(mux)
}

func (w *WorkerServer) process(ctx context.Context, t *asynq.Task) error {
	err := w.handler.Handle(ctx, t.Type(), t.Payload())
	if errors.Is(err, ErrBadPayload) || errors.Is(err, ErrUnknownTask) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func (w *WorkerServer) Shutdown() {
	w.server.Shutdown()
	log.Info().Str("module", "tasks.worker").Msg("worker stopped")
}

type zerologAdapter struct{}

func (zerologAdapter) Debug(args ...interface{}) {
	log.Debug().Str("module", "asynq").Msg(fmt.Sprint(args...))
}
func (zerologAdapter) Info(args ...interface{}) {
	log.Info().Str("module", "asynq").Msg(fmt.Sprint(args...))
}
func (zerologAdapter) Warn(args ...interface{}) {
	log.Warn().Str("module", "asynq").Msg(fmt.Sprint(args...))
}
func (zerologAdapter) Error(args ...interface{}) {
	log.Error().Str("module", "asynq").Msg(fmt.Sprint(args...))
}
func (zerologAdapter) Fatal(args ...interface{}) {
	log.Fatal().Str("module", "asynq").Msg(fmt.Sprint(args...))
}
