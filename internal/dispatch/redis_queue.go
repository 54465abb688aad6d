package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"support-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey = "dispatch:tasks"

	popTimeout = 5 * time.Second

	aiCapKeyPrefix = "dispatch:ai_cap:"
	aiCapTTL       = 2 * time.Minute
)

// RedisQueue is the cross-process dispatcher: LPUSH on enqueue, a BRPOP
// loop on the consumer side. At-least-once: a failed handler pushes the
// task back (bounded by MaxAttempts).
//
// AI-processing tasks additionally respect a per-workspace concurrency cap
// so one noisy tenant cannot monopolize the AI backend.
type RedisQueue struct {
	rdb      *redis.Client
	handlers map[TaskType]Handler
	log      *slog.Logger

	// AIConcurrency caps in-flight ai_process tasks per workspace.
	// <= 0 disables the cap.
	AIConcurrency int

	MaxAttempts int
}

func NewRedisQueue(rdb *redis.Client, log *slog.Logger) *RedisQueue {
	if log == nil {
		log = slog.Default()
	}
	return &RedisQueue{
		rdb:         rdb,
		handlers:    map[TaskType]Handler{},
		log:         log,
		MaxAttempts: defaultMaxAttempts,
	}
}

func (q *RedisQueue) Handle(t TaskType, h Handler) { q.handlers[t] = h }

func (q *RedisQueue) Enqueue(ctx context.Context, t Task) error {
	if q.rdb == nil {
		return errors.New("dispatch: redis client is nil")
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueKey, raw).Err()
}

// Run consumes tasks until ctx is cancelled. Call from a dedicated
// goroutine; one consumer per process is enough for this volume.
func (q *RedisQueue) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := q.rdb.BRPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			q.log.Error("queue pop failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		var t Task
		if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
			q.log.Error("task decode failed", "err", err)
			continue
		}
		q.process(ctx, t)
	}
}

func (q *RedisQueue) process(ctx context.Context, t Task) {
	h, ok := q.handlers[t.Type]
	if !ok {
		q.log.Warn("no handler for task", "type", t.Type)
		return
	}

	if t.Type == TaskTypeAIProcess && q.AIConcurrency > 0 {
		key := aiCapKeyPrefix + t.WorkspaceID
		acquired, err := utils.AcquireConcurrencyCap(ctx, q.rdb, key, q.AIConcurrency, aiCapTTL)
		if err != nil {
			q.log.Error("ai cap acquire failed", "workspace_id", t.WorkspaceID, "err", err)
		} else if !acquired {
			// Push back and let another pop retry once a slot frees up.
			q.requeue(ctx, t, nil)
			return
		} else {
			defer func() {
				if err := utils.ReleaseConcurrencyCap(ctx, q.rdb, key); err != nil {
					q.log.Error("ai cap release failed", "workspace_id", t.WorkspaceID, "err", err)
				}
			}()
		}
	}

	if err := h(ctx, t); err != nil {
		t.Attempts++
		if t.Attempts >= q.MaxAttempts {
			q.log.Error("task dropped after retries", "type", t.Type, "conversation_id", t.ConversationID, "err", err)
			return
		}
		q.requeue(ctx, t, err)
	}
}

func (q *RedisQueue) requeue(ctx context.Context, t Task, cause error) {
	raw, err := json.Marshal(t)
	if err != nil {
		q.log.Error("task re-encode failed", "err", err)
		return
	}
	if err := q.rdb.LPush(ctx, queueKey, raw).Err(); err != nil {
		q.log.Error("task requeue failed", "type", t.Type, "cause", cause, "err", err)
	}
}
