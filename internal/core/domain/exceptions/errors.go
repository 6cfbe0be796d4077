package exceptions

import "errors"

var (
	// validation failures, rejected before any network or storage call
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrUserIDRequired          = errors.New("user id is required")
	ErrAnnotationEmpty         = errors.New("annotation result is empty")
	ErrWithdrawalMethodMissing = errors.New("withdrawal method is required")
	ErrUnknownCategory         = errors.New("unknown task category")

	// business-rule rejections, distinct from infrastructure failures
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrBalanceNotFound     = errors.New("balance record not found")

	// remote task source failures
	ErrTaskSourceUnavailable = errors.New("task source unavailable")
	ErrSubmissionRejected    = errors.New("annotation submission rejected")
	ErrNetworkUnreachable    = errors.New("network unreachable")

	// auth failures
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthUnavailable    = errors.New("auth provider unavailable")
)
