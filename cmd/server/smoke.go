package main

import (
	"context"
	"fmt"
	"time"

	"task-wallet/internal/infrastructure/app"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// runLedgerSmokeTest exercises the live ledger end to end: credit a reward,
// read the balance back, request a withdrawal, list the audit trail.
func runLedgerSmokeTest(ctx context.Context, application *app.App) {
	log := application.Log
	ledger := application.Ledger

	userID := fmt.Sprintf("smoke-user-%d", time.Now().UnixNano())
	amount := decimal.NewFromFloat(1.25)

	log.Info("smoke test: crediting reward", zap.String("user_id", userID))
	if err := ledger.CreditReward(ctx, userID, amount, "Smoke test reward"); err != nil {
		log.Error("smoke test: credit failed", zap.Error(err))
		return
	}

	balance, err := ledger.GetBalance(ctx, userID)
	if err != nil {
		log.Error("smoke test: balance read failed", zap.Error(err))
		return
	}
	if !balance.Available.Equal(amount) {
		log.Error("smoke test: unexpected available balance",
			zap.String("want", amount.String()),
			zap.String("got", balance.Available.String()),
		)
		return
	}
	log.Info("smoke test: balance credited", zap.String("available", balance.Available.String()))

	withdraw := decimal.NewFromFloat(1.00)
	log.Info("smoke test: requesting withdrawal", zap.String("amount", withdraw.String()))
	if err := ledger.RequestWithdrawal(ctx, userID, withdraw, "bank_transfer"); err != nil {
		log.Error("smoke test: withdrawal failed", zap.Error(err))
		return
	}

	balance, err = ledger.GetBalance(ctx, userID)
	if err != nil {
		log.Error("smoke test: balance recheck failed", zap.Error(err))
		return
	}
	if !balance.Pending.Equal(withdraw) {
		log.Error("smoke test: pending balance mismatch",
			zap.String("want", withdraw.String()),
			zap.String("got", balance.Pending.String()),
		)
		return
	}

	transactions, err := ledger.ListTransactions(ctx, userID, 10)
	if err != nil {
		log.Error("smoke test: transaction list failed", zap.Error(err))
		return
	}
	log.Info("smoke test: done",
		zap.String("available", balance.Available.String()),
		zap.String("pending", balance.Pending.String()),
		zap.Int("transactions", len(transactions)),
	)
}
