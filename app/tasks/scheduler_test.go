package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/engineed/engineed/app/scrape"
)

type noopTask struct {
	Task
}

func (t *noopTask) Execute(_ context.Context) error { return nil }

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	configCache := scrape.NewConfigCache(t.TempDir())
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load source configs: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		configCache: configCache,
		interval:    time.Hour,
		workerCount: 1,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 4),
		lastRun:     make(map[string]time.Time),
	}
}

func TestEnqueueTaskRefusedAfterStop(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()
	s.Stop()

	// A retry goroutine outliving Stop must get an error, not a panic
	task := &noopTask{Task: NewTask(TaskTypeCrawlSource, "qiita")}
	if err := s.EnqueueTask(task); err == nil {
		t.Fatal("Expected enqueue after Stop to be refused")
	}
}

func TestEnqueueTaskQueueFull(t *testing.T) {
	s := newTestScheduler(t)
	defer s.cancel()

	for i := 0; i < cap(s.taskQueue); i++ {
		task := &noopTask{Task: NewTask(TaskTypeCrawlSource, "qiita")}
		if err := s.EnqueueTask(task); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}

	task := &noopTask{Task: NewTask(TaskTypeCrawlSource, "qiita")}
	if err := s.EnqueueTask(task); err == nil {
		t.Fatal("Expected enqueue on a full queue to be refused")
	}
}
