package postgres

import (
	"context"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/infrastructure/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewTransactionRepository(db db.Querier, log *zap.Logger) *TransactionRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &TransactionRepository{
		db:  db,
		log: log,
	}
}

func (r *TransactionRepository) Append(ctx context.Context, tx *entities.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	query := `INSERT INTO transactions (id, user_id, type, amount, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`

	createdAt := any(tx.CreatedAt)
	if tx.CreatedAt.IsZero() {
		createdAt = nil
	}

	if _, err := r.db.Exec(
		ctx,
		query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.Status,
		tx.Description,
		createdAt,
	); err != nil {
		r.log.Error("failed to append transaction", zap.Error(err))
		return err
	}
	return nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	query := `SELECT id, user_id, type, amount, status, description, created_at
		FROM transactions WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.log.Error("failed to list transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*entities.Transaction, 0)
	for rows.Next() {
		tx := entities.Transaction{}
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&tx.Amount,
			&tx.Status,
			&tx.Description,
			&tx.CreatedAt,
		); err != nil {
			r.log.Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate transaction rows", zap.Error(err))
		return nil, err
	}

	return transactions, nil
}
