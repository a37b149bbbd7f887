package tasks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// InlineDispatcher runs each task on its own goroutine in this process.
type InlineDispatcher struct {
	handler *Handler
	wg      sync.WaitGroup
}

func NewInlineDispatcher(h *Handler) *InlineDispatcher {
	return &InlineDispatcher{handler: h}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, taskType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("module", "tasks").Str("task", taskType).Msg("marshal payload")
		return
	}
	d.run(context.WithoutCancel(ctx), taskType, b)
}

func (d *InlineDispatcher) run(ctx context.Context, taskType string, b []byte) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.handler.Handle(ctx, taskType, b); err != nil {
			log.Warn().Err(err).Str("module", "tasks").Str("task", taskType).Msg("task failed")
		}
	}()
}

// Wait blocks until every dispatched task has finished.
func (d *InlineDispatcher) Wait() { d.wg.Wait() }

// AsynqDispatcher enqueues tasks to Redis for the asynq worker. When Redis
// rejects a task it runs inline instead.
type AsynqDispatcher struct {
	client   *asynq.Client
	fallback *InlineDispatcher
	timeout  time.Duration
}

func NewAsynqDispatcher(opt asynq.RedisClientOpt, fallback *InlineDispatcher) *AsynqDispatcher {
	return &AsynqDispatcher{
		client:   asynq.NewClient(opt),
		fallback: fallback,
		timeout:  3 * time.Second,
	}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, taskType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("module", "tasks").Str("task", taskType).Msg("marshal payload")
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		enqCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		task := asynq.NewTask(taskType, b, asynq.MaxRetry(3), asynq.Timeout(10*time.Second))
		if _, err := d.client.EnqueueContext(enqCtx, task); err != nil {
			log.Warn().Err(err).Str("module", "tasks").Str("task", taskType).Msg("enqueue failed, running inline")
			d.fallback.run(ctx, taskType, b)
		}
	}()
}

func (d *AsynqDispatcher) Close() error { return d.client.Close() }
