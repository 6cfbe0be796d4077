package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletBalance is the per-user earnings record. Available must never go
// negative; withdrawals are checked against it before any write.
type WalletBalance struct {
	UserID      string          `json:"user_id"`
	Available   decimal.Decimal `json:"available"`
	Pending     decimal.Decimal `json:"pending"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewZeroBalance synthesizes the initial record for a user without one.
func NewZeroBalance(userID string) *WalletBalance {
	return &WalletBalance{
		UserID:      userID,
		Available:   decimal.Zero,
		Pending:     decimal.Zero,
		TotalEarned: decimal.Zero,
	}
}
