package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

var _ driven.SchedulerStore = (*SchedulerStore)(nil)

// Scheduler keys live outside the memory: prefix so entry scans never see them.
const (
	taskKeyPrefix   = "scheduler:task:"
	resultKeyPrefix = "scheduler:results:"
	taskIndexKey    = "scheduler:tasks"
	resultIndexKey  = "scheduler:result_tasks"
)

// SchedulerStore keeps scheduler state in Redis. Tasks are hashes; run
// results are JSON documents in a per-task list, newest at the head.
type SchedulerStore struct {
	client *goredis.Client
}

// SchedulerStore returns a scheduler store sharing this store's connection.
func (s *Store) SchedulerStore() *SchedulerStore {
	return &SchedulerStore{client: s.client}
}

func (s *SchedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	fields, err := s.client.HGetAll(ctx, taskKeyPrefix+taskID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get task %s: %w", taskID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeTask(taskID, fields), nil
}

func (s *SchedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	ids, err := s.client.SMembers(ctx, taskIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list tasks: %w", err)
	}
	sort.Strings(ids)

	tasks := make([]domain.ScheduledTask, 0, len(ids))
	for _, id := range ids {
		task, err := s.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if task != nil {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (s *SchedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, taskKeyPrefix+task.ID, encodeTask(task))
		pipe.SAdd(ctx, taskIndexKey, task.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save task %s: %w", task.ID, err)
	}
	return nil
}

func (s *SchedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, taskKeyPrefix+taskID)
		pipe.SRem(ctx, taskIndexKey, taskID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete task %s: %w", taskID, err)
	}
	return nil
}

// taskResult is the stored form of domain.TaskResult.
type taskResult struct {
	StartedAt int64  `json:"started_at"`
	EndedAt   int64  `json:"ended_at"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Items     int    `json:"items"`
}

func (s *SchedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(taskResult{
		StartedAt: result.StartedAt.UnixNano(),
		EndedAt:   result.EndedAt.UnixNano(),
		Success:   result.Success,
		Error:     result.Error,
		Items:     result.ItemsProcessed,
	})
	if err != nil {
		return fmt.Errorf("encode task result: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, resultKeyPrefix+result.TaskID, data)
		pipe.SAdd(ctx, resultIndexKey, result.TaskID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record result for %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns results in reverse recording order.
func (s *SchedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, resultKeyPrefix+taskID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis task history %s: %w", taskID, err)
	}

	results := make([]domain.TaskResult, 0, len(raw))
	for _, item := range raw {
		var r taskResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode task result: %w", err)
		}
		results = append(results, domain.TaskResult{
			TaskID:         taskID,
			StartedAt:      time.Unix(0, r.StartedAt),
			EndedAt:        time.Unix(0, r.EndedAt),
			Success:        r.Success,
			Error:          r.Error,
			ItemsProcessed: r.Items,
		})
	}
	return results, nil
}

// PruneHistory trims each task's list to its newest keep results.
func (s *SchedulerStore) PruneHistory(ctx context.Context, keep int) error {
	ids, err := s.client.SMembers(ctx, resultIndexKey).Result()
	if err != nil {
		return fmt.Errorf("redis prune history: %w", err)
	}
	_, err = s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range ids {
			if keep <= 0 {
				pipe.Del(ctx, resultKeyPrefix+id)
				continue
			}
			pipe.LTrim(ctx, resultKeyPrefix+id, 0, int64(keep-1))
		}
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis prune history: %w", err)
	}
	return nil
}

func encodeTask(task *domain.ScheduledTask) map[string]any {
	enabled := "0"
	if task.Enabled {
		enabled = "1"
	}
	return map[string]any{
		"name":         task.Name,
		"interval_ns":  strconv.FormatInt(int64(task.Interval), 10),
		"enabled":      enabled,
		"last_run":     formatNanos(task.LastRun),
		"next_run":     formatNanos(task.NextRun),
		"last_success": formatNanos(task.LastSuccess),
		"last_error":   task.LastError,
	}
}

func decodeTask(id string, fields map[string]string) *domain.ScheduledTask {
	interval, _ := strconv.ParseInt(fields["interval_ns"], 10, 64)
	return &domain.ScheduledTask{
		ID:          id,
		Name:        fields["name"],
		Interval:    time.Duration(interval),
		Enabled:     fields["enabled"] == "1",
		LastRun:     parseNanos(fields["last_run"]),
		NextRun:     parseNanos(fields["next_run"]),
		LastSuccess: parseNanos(fields["last_success"]),
		LastError:   fields["last_error"],
	}
}

// formatNanos renders the zero time as "".
func formatNanos(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseNanos(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n)
}
