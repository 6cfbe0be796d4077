package ports

import (
	"context"

	"task-wallet/internal/core/domain/entities"
)

type TaskSource interface {
	FetchTasks(ctx context.Context, category entities.TaskCategory) ([]entities.Task, error)
	SubmitAnnotation(ctx context.Context, taskID int64, annotation *entities.Annotation) (*entities.SubmissionAck, error)
}

// TaskCache is the per-device task store. Implementations degrade I/O
// failures to cache misses and never return errors.
type TaskCache interface {
	Get(category entities.TaskCategory) (*entities.CacheEntry, bool)
	Put(category entities.TaskCategory, tasks []entities.Task)
	Clear(category entities.TaskCategory)
}

// CompletedSet is the per-device record of submitted task IDs. A read
// failure degrades to an empty set.
type CompletedSet interface {
	Load(category entities.TaskCategory) map[int64]struct{}
	Add(category entities.TaskCategory, taskID int64)
}

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*entities.Session, error)
	SignUp(ctx context.Context, email, password string) (*entities.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
}
