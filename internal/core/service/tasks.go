package service

import (
	"context"
	"errors"
	"fmt"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"
	"task-wallet/internal/core/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TaskService struct {
	source        ports.TaskSource
	cache         ports.TaskCache
	completed     ports.CompletedSet
	ledger        ports.LedgerUseCases
	rewards       map[entities.TaskCategory]decimal.Decimal
	alwaysRefresh map[entities.TaskCategory]bool
	log           *zap.Logger
}

func NewTaskService(
	source ports.TaskSource,
	cache ports.TaskCache,
	completed ports.CompletedSet,
	ledger ports.LedgerUseCases,
	rewards map[entities.TaskCategory]decimal.Decimal,
	alwaysRefresh []entities.TaskCategory,
	log *zap.Logger,
) (*TaskService, error) {
	if source == nil {
		return nil, errors.New("task source is nil")
	}
	if cache == nil {
		return nil, errors.New("task cache is nil")
	}
	if completed == nil {
		return nil, errors.New("completed set is nil")
	}
	if ledger == nil {
		return nil, errors.New("ledger is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}

	refresh := make(map[entities.TaskCategory]bool, len(alwaysRefresh))
	for _, category := range alwaysRefresh {
		refresh[category] = true
	}
	return &TaskService{
		source:        source,
		cache:         cache,
		completed:     completed,
		ledger:        ledger,
		rewards:       rewards,
		alwaysRefresh: refresh,
		log:           log,
	}, nil
}

// FetchTasks serves the category from cache when allowed and fresh,
// otherwise clears the entry and goes to the remote source. A fetch failure
// is surfaced so callers can tell "no tasks" from "couldn't determine".
func (s *TaskService) FetchTasks(ctx context.Context, category entities.TaskCategory, forceRefresh bool) ([]entities.Task, error) {
	if !forceRefresh && !s.alwaysRefresh[category] {
		if entry, ok := s.cache.Get(category); ok {
			s.log.Debug("usecase: fetch tasks served from cache",
				zap.String("category", string(category)),
				zap.Int("tasks", len(entry.Tasks)),
			)
			return entry.Tasks, nil
		}
	}

	s.cache.Clear(category)

	tasks, err := s.source.FetchTasks(ctx, category)
	if err != nil {
		s.log.Warn("usecase: fetch tasks failed", zap.String("category", string(category)), zap.Error(err))
		return nil, err
	}

	// An empty result is returned uncached so a transient "no tasks" race
	// does not stick for the whole expiry window.
	if len(tasks) > 0 {
		s.cache.Put(category, tasks)
	}

	s.log.Debug("usecase: fetch tasks done", zap.String("category", string(category)), zap.Int("tasks", len(tasks)))
	return tasks, nil
}

// LoadAvailableTasks reconciles remote task state against the local
// completion record. Both exclusions are independent: a locally completed
// task stays hidden even if the remote still reports it unlabeled.
func (s *TaskService) LoadAvailableTasks(ctx context.Context, category entities.TaskCategory) ([]entities.Task, error) {
	done := s.completed.Load(category)

	tasks, err := s.FetchTasks(ctx, category, false)
	if err != nil {
		return nil, err
	}

	available := make([]entities.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.IsLabeled {
			continue
		}
		if _, ok := done[task.ID]; ok {
			continue
		}
		available = append(available, task)
	}

	s.log.Debug("usecase: load available tasks done",
		zap.String("category", string(category)),
		zap.Int("fetched", len(tasks)),
		zap.Int("available", len(available)),
	)
	return available, nil
}

// CompleteTask submits the annotation, records the completion locally and
// credits the category reward. A failed credit does not fail the completion;
// the result marks the reward as pending instead.
func (s *TaskService) CompleteTask(ctx context.Context, userID string, category entities.TaskCategory, taskID int64, annotation *entities.Annotation) (*entities.CompletionResult, error) {
	if userID == "" {
		return nil, exceptions.ErrUserIDRequired
	}
	if err := annotation.Validate(); err != nil {
		return nil, err
	}

	s.log.Info("usecase: complete task",
		zap.String("user_id", userID),
		zap.String("category", string(category)),
		zap.Int64("task_id", taskID),
	)

	ack, err := s.source.SubmitAnnotation(ctx, taskID, annotation)
	if err != nil {
		s.log.Warn("usecase: complete task submission failed", zap.Int64("task_id", taskID), zap.Error(err))
		return nil, err
	}

	s.completed.Add(category, taskID)

	result := &entities.CompletionResult{Ack: ack}
	amount, ok := s.rewards[category]
	if !ok || amount.Sign() <= 0 {
		s.log.Warn("usecase: no reward configured for category", zap.String("category", string(category)))
		return result, nil
	}
	result.RewardAmount = amount.String()

	description := fmt.Sprintf("Task reward: %s #%d", category, taskID)
	if err := s.ledger.CreditReward(ctx, userID, amount, description); err != nil {
		s.log.Warn("usecase: reward credit failed, left pending",
			zap.String("user_id", userID),
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return result, nil
	}
	result.RewardCredited = true

	s.log.Info("usecase: complete task done", zap.Int64("task_id", taskID), zap.String("reward", amount.String()))
	return result, nil
}
