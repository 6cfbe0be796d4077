package postgres

import (
	"context"

	"task-wallet/internal/infrastructure/db"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Procedures is the stored-procedure primary path for ledger mutations. The
// procedures apply the balance change server-side, so concurrent callers
// across devices are serialized by the database.
type Procedures struct {
	db  db.Querier
	log *zap.Logger
}

func NewProcedures(db db.Querier, log *zap.Logger) *Procedures {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &Procedures{
		db:  db,
		log: log,
	}
}

func (p *Procedures) AddTaskReward(ctx context.Context, userID string, amount decimal.Decimal) error {
	if _, err := p.db.Exec(ctx, `SELECT add_task_reward($1, $2)`, userID, amount); err != nil {
		p.log.Warn("add_task_reward procedure failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (p *Procedures) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method string) error {
	if _, err := p.db.Exec(ctx, `SELECT request_withdrawal($1, $2, $3)`, userID, amount, method); err != nil {
		p.log.Warn("request_withdrawal procedure failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}
