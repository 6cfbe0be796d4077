package mapper

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"
)

type TaskResponse struct {
	ID        int64           `json:"id"`
	Category  string          `json:"category"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

func Task(task entities.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID,
		Category:  string(task.Category),
		Data:      task.Data,
		CreatedAt: task.CreatedAt,
	}
}

func Tasks(tasks []entities.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, Task(task))
	}
	return out
}

type BalanceResponse struct {
	UserID      string `json:"user_id"`
	Available   string `json:"available"`
	Pending     string `json:"pending"`
	TotalEarned string `json:"total_earned"`
}

func Balance(balance *entities.WalletBalance) BalanceResponse {
	return BalanceResponse{
		UserID:      balance.UserID,
		Available:   balance.Available.StringFixed(2),
		Pending:     balance.Pending.StringFixed(2),
		TotalEarned: balance.TotalEarned.StringFixed(2),
	}
}

type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func Transactions(transactions []*entities.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, TransactionResponse{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Amount:      tx.Amount.StringFixed(2),
			Status:      string(tx.Status),
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return out
}

// Status maps the error taxonomy to an HTTP status so callers can branch on
// cause: validation and business-rule rejections are client errors, remote
// rejections and transport failures are upstream errors.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, exceptions.ErrInvalidAmount),
		errors.Is(err, exceptions.ErrUserIDRequired),
		errors.Is(err, exceptions.ErrAnnotationEmpty),
		errors.Is(err, exceptions.ErrWithdrawalMethodMissing),
		errors.Is(err, exceptions.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, exceptions.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, exceptions.ErrBalanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, exceptions.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, exceptions.ErrSubmissionRejected):
		return http.StatusBadGateway
	case errors.Is(err, exceptions.ErrTaskSourceUnavailable),
		errors.Is(err, exceptions.ErrNetworkUnreachable),
		errors.Is(err, exceptions.ErrAuthUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
