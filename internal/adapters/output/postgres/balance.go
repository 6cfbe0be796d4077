package postgres

import (
	"context"
	"errors"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"
	"task-wallet/internal/infrastructure/db"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BalanceRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewBalanceRepository(db db.Querier, log *zap.Logger) *BalanceRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &BalanceRepository{
		db:  db,
		log: log,
	}
}

func (r *BalanceRepository) Get(ctx context.Context, userID string) (*entities.WalletBalance, error) {
	query := `SELECT user_id, available, pending, total_earned, updated_at
		FROM user_balances WHERE user_id = $1`

	balance := entities.WalletBalance{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.Available,
		&balance.Pending,
		&balance.TotalEarned,
		&balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exceptions.ErrBalanceNotFound
		}
		r.log.Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// AddReward is a single-statement increment so concurrent credits never race
// each other the way a read-then-write would.
func (r *BalanceRepository) AddReward(ctx context.Context, userID string, amount decimal.Decimal) error {
	query := `INSERT INTO user_balances (user_id, available, pending, total_earned, updated_at)
		VALUES ($1, $2, 0, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET available = user_balances.available + EXCLUDED.available,
			total_earned = user_balances.total_earned + EXCLUDED.total_earned,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, userID, amount); err != nil {
		r.log.Error("failed to add reward to balance", zap.Error(err))
		return err
	}
	return nil
}

func (r *BalanceRepository) MoveToPending(ctx context.Context, userID string, amount decimal.Decimal) error {
	query := `UPDATE user_balances
		SET available = available - $2, pending = pending + $2, updated_at = NOW()
		WHERE user_id = $1 AND available >= $2`

	tag, err := r.db.Exec(ctx, query, userID, amount)
	if err != nil {
		r.log.Error("failed to move balance to pending", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return exceptions.ErrInsufficientBalance
	}
	return nil
}
