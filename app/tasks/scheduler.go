package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/engineed/engineed/app/cfg"
	"github.com/engineed/engineed/app/database"
	"github.com/engineed/engineed/app/pipeline"
	"github.com/engineed/engineed/app/scrape"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs a bounded worker pool over a task queue and enqueues crawl
// tasks for enabled sources on their refresh intervals. Each crawl gets a
// fresh pipeline coordinator so the duplicate window is scoped to the run.
type Scheduler struct {
	configCache    *scrape.ConfigCache
	jobRepo        database.JobRepository
	fetcher        PageFetcher
	newCoordinator func() *pipeline.Coordinator
	daysBack       int
	maxPages       int
	maxItems       int
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewScheduler(configCache *scrape.ConfigCache, jobRepo database.JobRepository,
	fetcher PageFetcher, newCoordinator func() *pipeline.Coordinator) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:    configCache,
		jobRepo:        jobRepo,
		fetcher:        fetcher,
		newCoordinator: newCoordinator,
		daysBack:       cfg.DaysBack,
		maxPages:       cfg.MaxPages,
		maxItems:       cfg.MaxItemsPerRun,
		interval:       time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
		lastRun:        make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

// Stop cancels the scheduler context and waits for the workers to drain. The
// task queue is left open so that a straggling retry enqueue cannot panic; it
// is refused through the context check instead.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerSource enqueues an immediate crawl for a configured source,
// regardless of its refresh interval.
func (s *Scheduler) TriggerSource(name string) (TaskInterface, error) {
	config, err := s.configCache.GetConfig(name)
	if err != nil {
		return nil, err
	}

	task, err := s.buildCrawlTask(config)
	if err != nil {
		return nil, err
	}

	if err := s.EnqueueTask(task); err != nil {
		return nil, err
	}

	s.markEnqueued(name)
	return task, nil
}

func (s *Scheduler) buildCrawlTask(config *scrape.SourceConfig) (TaskInterface, error) {
	adapter, err := scrape.BuildAdapter(config, s.daysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to build adapter for %s: %w", config.Name, err)
	}

	return NewCrawlSourceTask(config, adapter, s.fetcher, s.newCoordinator(), s.jobRepo, s.maxPages, s.maxItems), nil
}

func (s *Scheduler) markEnqueued(name string) {
	s.mu.Lock()
	s.lastRun[name] = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	slog.Debug("Scheduling startup crawls", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		task, err := s.buildCrawlTask(sourceConfig)
		if err != nil {
			slog.Warn("Failed to build CrawlSourceTask", "source", sourceConfig.Name, "error", err)
			continue
		}

		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue CrawlSourceTask", "source", sourceConfig.Name, "error", err)
			continue
		}
		s.markEnqueued(sourceConfig.Name)
	}
}

func (s *Scheduler) enqueueDueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	for _, sourceConfig := range sourceConfigs {
		refresh := time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second

		s.mu.Lock()
		last, known := s.lastRun[sourceConfig.Name]
		s.mu.Unlock()

		if known && time.Since(last) < refresh {
			slog.Debug("Source not due for crawl yet", "source", sourceConfig.Name, "last_run", last)
			continue
		}

		task, err := s.buildCrawlTask(sourceConfig)
		if err != nil {
			slog.Warn("Failed to build CrawlSourceTask", "source", sourceConfig.Name, "error", err)
			continue
		}

		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue CrawlSourceTask", "source", sourceConfig.Name, "error", err)
			continue
		}
		s.markEnqueued(sourceConfig.Name)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
