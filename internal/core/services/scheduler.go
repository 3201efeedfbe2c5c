package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// defaultTick is how often the scheduler looks for due tasks.
const defaultTick = 1 * time.Minute

// historyRetention is the number of results kept per task.
const historyRetention = 100

// Scheduler manages background task execution.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	entries driving.EntryService
	tick    time.Duration

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	entries driving.EntryService,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		entries:  entries,
		tick:     defaultTick,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("scheduler: disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	// Run the main scheduler loop
	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// RunNow executes a task synchronously and records its result.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) (domain.TaskResult, error) {
	if !isKnownTask(taskID) {
		return domain.TaskResult{}, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return domain.TaskResult{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	if task == nil {
		cfg := s.config.GetTaskConfig(taskID)
		task = &domain.ScheduledTask{ID: taskID, Name: taskName(taskID), Interval: cfg.Interval, Enabled: cfg.Enabled}
	}
	return s.execute(ctx, task), nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDIndexSweep); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDIndexSweep, taskName(domain.TaskIDIndexSweep), taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// Create new task
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		// Update interval if changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task in the background. A task still running from
// an earlier tick is skipped.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	if !isKnownTask(task.ID) {
		logger.Warn("scheduler: unknown task ID: %s", task.ID)
		return
	}

	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
			s.wg.Done()
		}()
		s.execute(ctx, task)
	}()
}

// execute runs a task, updates its state and records the result.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) domain.TaskResult {
	result := domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: time.Now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDIndexSweep:
		result.ItemsProcessed, err = s.runIndexSweep(ctx)
	}

	result.EndedAt = time.Now()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	// Update task state
	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}

	// Record result for history
	if recordErr := s.store.RecordResult(ctx, &result); recordErr != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}

	if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
		logger.Warn("scheduler: failed to prune history: %v", pruneErr)
	}

	return result
}

// runIndexSweep repairs entry indices and returns how many memberships changed.
func (s *Scheduler) runIndexSweep(ctx context.Context) (int, error) {
	if s.entries == nil {
		return 0, nil
	}
	report, err := s.entries.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("scheduler: index sweep scanned %d entries, restored %d, pruned %d",
		report.Scanned, report.Restored, report.Pruned)
	return report.Restored + report.Pruned, nil
}

func isKnownTask(id string) bool {
	return id == domain.TaskIDIndexSweep
}

func taskName(id string) string {
	switch id {
	case domain.TaskIDIndexSweep:
		return "Index Sweep"
	default:
		return id
	}
}
