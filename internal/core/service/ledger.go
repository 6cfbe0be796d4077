package service

import (
	"context"
	"errors"
	"time"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"
	"task-wallet/internal/core/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultTransactionLimit = 50

type LedgerService struct {
	procedures   ports.LedgerProcedures
	balances     ports.BalanceRepository
	transactions ports.TransactionRepository
	uow          ports.UnitOfWorkManager
	now          func() time.Time
	log          *zap.Logger
}

func NewLedgerService(
	procedures ports.LedgerProcedures,
	balances ports.BalanceRepository,
	transactions ports.TransactionRepository,
	uow ports.UnitOfWorkManager,
	log *zap.Logger,
) (*LedgerService, error) {
	if procedures == nil {
		return nil, errors.New("ledger procedures is nil")
	}
	if balances == nil {
		return nil, errors.New("balance repository is nil")
	}
	if transactions == nil {
		return nil, errors.New("transaction repository is nil")
	}
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	return &LedgerService{
		procedures:   procedures,
		balances:     balances,
		transactions: transactions,
		uow:          uow,
		now:          time.Now,
		log:          log,
	}, nil
}

// CreditReward adds amount to available and total_earned. Primary path is
// the add_task_reward procedure; when it errors the credit falls back to a
// single transaction applying an atomic increment plus the audit row, so no
// path ever does an unserialized read-modify-write.
func (s *LedgerService) CreditReward(ctx context.Context, userID string, amount decimal.Decimal, description string) error {
	if userID == "" {
		return exceptions.ErrUserIDRequired
	}
	if amount.Sign() <= 0 {
		return exceptions.ErrInvalidAmount
	}

	s.log.Info("usecase: credit reward", zap.String("user_id", userID), zap.String("amount", amount.String()))

	if err := s.procedures.AddTaskReward(ctx, userID, amount); err == nil {
		s.log.Info("usecase: credit reward done", zap.String("user_id", userID))
		return nil
	} else {
		s.log.Warn("usecase: credit procedure failed, using fallback", zap.String("user_id", userID), zap.Error(err))
	}

	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()

		if err := repos.Balances.AddReward(ctx, userID, amount); err != nil {
			return err
		}
		return repos.Transactions.Append(ctx, &entities.Transaction{
			UserID:      userID,
			Type:        entities.TransactionTaskReward,
			Amount:      amount,
			Status:      entities.TransactionCompleted,
			Description: description,
			CreatedAt:   s.now(),
		})
	})
	if err != nil {
		s.log.Error("usecase: credit reward failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.log.Info("usecase: credit reward done via fallback", zap.String("user_id", userID))
	return nil
}

// RequestWithdrawal moves amount from available to pending. The sufficiency
// precheck against the last-known balance is best effort; the conditional
// update inside the store is authoritative.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method string) error {
	if userID == "" {
		return exceptions.ErrUserIDRequired
	}
	if amount.Sign() <= 0 {
		return exceptions.ErrInvalidAmount
	}
	if method == "" {
		return exceptions.ErrWithdrawalMethodMissing
	}

	s.log.Info("usecase: request withdrawal",
		zap.String("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("method", method),
	)

	balance, err := s.balances.Get(ctx, userID)
	switch {
	case err == nil:
		if amount.GreaterThan(balance.Available) {
			return exceptions.ErrInsufficientBalance
		}
	case errors.Is(err, exceptions.ErrBalanceNotFound):
		return exceptions.ErrInsufficientBalance
	default:
		s.log.Warn("usecase: balance precheck unavailable, continuing", zap.String("user_id", userID), zap.Error(err))
	}

	if err := s.procedures.RequestWithdrawal(ctx, userID, amount, method); err == nil {
		s.log.Info("usecase: request withdrawal done", zap.String("user_id", userID))
		return nil
	} else {
		s.log.Warn("usecase: withdrawal procedure failed, using fallback", zap.String("user_id", userID), zap.Error(err))
	}

	err = s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()

		if err := repos.Balances.MoveToPending(ctx, userID, amount); err != nil {
			return err
		}
		return repos.Transactions.Append(ctx, &entities.Transaction{
			UserID:      userID,
			Type:        entities.TransactionWithdrawal,
			Amount:      amount,
			Status:      entities.TransactionPending,
			Description: "Withdrawal via " + method,
			CreatedAt:   s.now(),
		})
	})
	if err != nil {
		if errors.Is(err, exceptions.ErrInsufficientBalance) {
			return exceptions.ErrInsufficientBalance
		}
		s.log.Error("usecase: request withdrawal failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.log.Info("usecase: request withdrawal done via fallback", zap.String("user_id", userID))
	return nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID string) (*entities.WalletBalance, error) {
	if userID == "" {
		return nil, exceptions.ErrUserIDRequired
	}

	balance, err := s.balances.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, exceptions.ErrBalanceNotFound) {
			return entities.NewZeroBalance(userID), nil
		}
		s.log.Warn("usecase: get balance failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return balance, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	if userID == "" {
		return nil, exceptions.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	transactions, err := s.transactions.ListByUser(ctx, userID, limit)
	if err != nil {
		s.log.Warn("usecase: list transactions failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return transactions, nil
}
