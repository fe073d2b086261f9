package apperror

import (
	"errors"
	"fmt"
)

// AppError is a structured error carrying a stable code callers can branch on.
type AppError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // Wrapped internal error (not exposed to callers)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the AppError code from err, or "" if err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Validation (VAL) ----

func ErrInvalidAmount(detail string) *AppError {
	return New("VAL_001", fmt.Sprintf("Invalid amount: %s", detail))
}

func ErrInvalidAddress(address string) *AppError {
	return New("VAL_002", fmt.Sprintf("Invalid settlement address: %s", address))
}

// ---- Ledger (LED) ----

func ErrAccountNotFound(id int64) *AppError {
	return New("LED_001", fmt.Sprintf("Account %d not found", id))
}

func ErrAccountBlocked(id int64) *AppError {
	return New("LED_002", fmt.Sprintf("Account %d is blocked", id))
}

func ErrAccountExists(id int64) *AppError {
	return New("LED_003", fmt.Sprintf("Account %d already exists", id))
}

func ErrInsufficientBalance(id int64) *AppError {
	return New("LED_004", fmt.Sprintf("Account %d has insufficient balance", id))
}

// ---- Wallet pool (POOL) ----

func ErrNoFundingWallet() *AppError {
	return New("POOL_001", "No wallet in the pool can fund this payment")
}

func ErrWalletExists(address string) *AppError {
	return New("POOL_002", fmt.Sprintf("Wallet %s already in the pool", address))
}

func ErrWalletNotFound(address string) *AppError {
	return New("POOL_003", fmt.Sprintf("Wallet %s not in the pool", address))
}

// ---- Settlement network (NET) ----

func ErrSettlement(err error) *AppError {
	return Wrap("NET_001", "Settlement network failure", err)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "Storage failure", err)
}
