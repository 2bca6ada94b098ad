package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents different kinds of failures the bot can hit during
// an evaluation pass.
type ErrorCategory string

const (
	// Critical errors that should stop the bot
	ErrorCategoryFatal         ErrorCategory = "FATAL"
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Per-symbol errors: the pass skips the symbol and continues
	ErrorCategoryDataUnavailable ErrorCategory = "DATA_UNAVAILABLE"
	ErrorCategoryOrderRejected   ErrorCategory = "ORDER_REJECTED"
	ErrorCategoryInvariant       ErrorCategory = "INVARIANT"

	// Transient errors
	ErrorCategoryNetwork ErrorCategory = "NETWORK"
	ErrorCategoryTimeout ErrorCategory = "TIMEOUT"
)

// BotError is a categorized error with component and operation context
type BotError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Symbol     string
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *BotError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether the next pass may retry the failed operation.
// Invariant violations are never retried; retrying would duplicate state.
func (e *BotError) IsRetryable() bool {
	switch e.Category {
	case ErrorCategoryDataUnavailable, ErrorCategoryNetwork, ErrorCategoryTimeout:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the bot should stop entirely
func (e *BotError) IsFatal() bool {
	switch e.Category {
	case ErrorCategoryFatal, ErrorCategoryCredentials, ErrorCategoryConfiguration:
		return true
	default:
		return false
	}
}

// WithSymbol attaches the symbol the error was isolated to
func (e *BotError) WithSymbol(symbol string) *BotError {
	e.Symbol = symbol
	return e
}

// NewDataUnavailable marks a failed market data fetch; the symbol is skipped
// this pass and retried on the next one.
func NewDataUnavailable(component, operation string, err error) *BotError {
	return &BotError{
		Category:   ErrorCategoryDataUnavailable,
		Component:  component,
		Operation:  operation,
		Message:    "market data unavailable",
		Underlying: err,
	}
}

// NewOrderRejected marks an exchange decline or order timeout. No ledger or
// pair state may be mutated for a rejected order.
func NewOrderRejected(component, operation string, err error) *BotError {
	return &BotError{
		Category:   ErrorCategoryOrderRejected,
		Component:  component,
		Operation:  operation,
		Message:    "order not placed",
		Underlying: err,
	}
}

// NewInvariantViolation marks a broken state-machine invariant, fatal to this
// symbol's pass.
func NewInvariantViolation(component, operation, message string) *BotError {
	return &BotError{
		Category:  ErrorCategoryInvariant,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// NewConfigurationError marks an invalid configuration value
func NewConfigurationError(component, operation, message string) *BotError {
	return &BotError{
		Category:  ErrorCategoryConfiguration,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// CategoryOf extracts the category from any error, or empty for plain errors
func CategoryOf(err error) ErrorCategory {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Category
	}
	return ""
}
