package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTaskReward TransactionType = "task_reward"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionInvestment TransactionType = "investment"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is an append-only audit record. Rows are created once per
// reward or withdrawal event and never mutated.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}
