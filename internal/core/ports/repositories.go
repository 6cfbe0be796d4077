package ports

import (
	"context"

	"task-wallet/internal/core/domain/entities"

	"github.com/shopspring/decimal"
)

type BalanceRepository interface {
	// Get returns exceptions.ErrBalanceNotFound when no row exists.
	Get(ctx context.Context, userID string) (*entities.WalletBalance, error)
	// AddReward applies a single atomic increment to available and
	// total_earned, creating the row if absent.
	AddReward(ctx context.Context, userID string, amount decimal.Decimal) error
	// MoveToPending atomically shifts amount from available to pending,
	// returning exceptions.ErrInsufficientBalance when available < amount.
	MoveToPending(ctx context.Context, userID string, amount decimal.Decimal) error
}

type TransactionRepository interface {
	Append(ctx context.Context, tx *entities.Transaction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error)
}

// LedgerProcedures is the stored-procedure primary path. Each call is a
// server-side atomic operation in its own transaction.
type LedgerProcedures interface {
	AddTaskReward(ctx context.Context, userID string, amount decimal.Decimal) error
	RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method string) error
}
