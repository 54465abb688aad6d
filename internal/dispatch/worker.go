package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultMaxAttempts = 3

// Worker is the in-process dispatcher: a buffered channel drained by a
// small pool of goroutines. At-least-once within the process lifetime;
// tasks in flight at shutdown are lost, which is acceptable for the two
// fire-and-forget jobs this system dispatches.
type Worker struct {
	handlers map[TaskType]Handler
	tasks    chan Task
	log      *slog.Logger

	maxAttempts int

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

type WorkerConfig struct {
	QueueSize   int
	Workers     int
	MaxAttempts int
}

func NewWorker(cfg WorkerConfig, log *slog.Logger) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		handlers:    map[TaskType]Handler{},
		tasks:       make(chan Task, cfg.QueueSize),
		log:         log,
		maxAttempts: cfg.MaxAttempts,
		stopped:     make(chan struct{}),
	}
}

// Handle registers the handler for a task type. Register everything before
// Start; there is no locking around the map.
func (w *Worker) Handle(t TaskType, h Handler) { w.handlers[t] = h }

func (w *Worker) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopped:
			return
		case t, ok := <-w.tasks:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

func (w *Worker) process(ctx context.Context, t Task) {
	h, ok := w.handlers[t.Type]
	if !ok {
		w.log.Warn("no handler for task", "type", t.Type)
		return
	}
	if err := h(ctx, t); err != nil {
		t.Attempts++
		if t.Attempts >= w.maxAttempts {
			w.log.Error("task dropped after retries", "type", t.Type, "conversation_id", t.ConversationID, "err", err)
			return
		}
		w.log.Warn("task failed, requeueing", "type", t.Type, "attempt", t.Attempts, "err", err)
		select {
		case w.tasks <- t:
		default:
			w.log.Error("requeue failed, queue full", "type", t.Type)
		}
	}
}

// Enqueue never blocks the caller: a full queue drops the task with a log
// line rather than stalling a save.
func (w *Worker) Enqueue(ctx context.Context, t Task) error {
	select {
	case <-w.stopped:
		return ErrQueueClosed
	default:
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now().UTC()
	}
	select {
	case w.tasks <- t:
		return nil
	default:
		w.log.Error("dispatch queue full, task dropped", "type", t.Type)
		return nil
	}
}

// Stop signals workers and waits for in-flight tasks.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopped) })
	w.wg.Wait()
}
