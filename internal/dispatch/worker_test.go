package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWorker_DeliversTasks(t *testing.T) {
	w := NewWorker(WorkerConfig{QueueSize: 8, Workers: 1}, nil)

	var mu sync.Mutex
	got := make([]Task, 0)
	done := make(chan struct{})
	w.Handle(TaskTypeAIProcess, func(ctx context.Context, task Task) error {
		mu.Lock()
		got = append(got, task)
		mu.Unlock()
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx, 1)

	if err := w.Enqueue(ctx, Task{Type: TaskTypeAIProcess, WorkspaceID: "w", ConversationID: "c1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task not delivered")
	}
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].ConversationID != "c1" {
		t.Fatalf("unexpected tasks: %+v", got)
	}
}

func TestWorker_RetriesFailedTasks(t *testing.T) {
	w := NewWorker(WorkerConfig{QueueSize: 8, Workers: 1, MaxAttempts: 3}, nil)

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{})
	w.Handle(TaskTypeNotifyAgent, func(ctx context.Context, task Task) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx, 1)

	if err := w.Enqueue(ctx, Task{Type: TaskTypeNotifyAgent, WorkspaceID: "w"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task never retried")
	}
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestWorker_EnqueueAfterStopFails(t *testing.T) {
	w := NewWorker(WorkerConfig{QueueSize: 1, Workers: 1}, nil)
	ctx := context.Background()
	w.Start(ctx, 1)
	w.Stop()
	if err := w.Enqueue(ctx, Task{Type: TaskTypeAIProcess}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}
