package ports

import (
	"context"

	"task-wallet/internal/core/domain/entities"

	"github.com/shopspring/decimal"
)

type TaskUseCases interface {
	FetchTasks(ctx context.Context, category entities.TaskCategory, forceRefresh bool) ([]entities.Task, error)
	LoadAvailableTasks(ctx context.Context, category entities.TaskCategory) ([]entities.Task, error)
	CompleteTask(ctx context.Context, userID string, category entities.TaskCategory, taskID int64, annotation *entities.Annotation) (*entities.CompletionResult, error)
}

type LedgerUseCases interface {
	CreditReward(ctx context.Context, userID string, amount decimal.Decimal, description string) error
	RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method string) error
	GetBalance(ctx context.Context, userID string) (*entities.WalletBalance, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error)
}
