package bybit

import "fmt"

// BybitError carries the API's retCode alongside its message
type BybitError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *BybitError) Error() string {
	return fmt.Sprintf("Bybit API error %d: %s", e.Code, e.Message)
}

// Common Bybit error codes
const (
	ErrCodeInvalidAPIKey       = 10003
	ErrCodeInvalidSignature    = 10004
	ErrCodeInvalidTimestamp    = 10005
	ErrCodeRateLimitExceeded   = 10006
	ErrCodeOrderNotFound       = 110001
	ErrCodeInsufficientBalance = 110007
	ErrCodeInvalidQuantity     = 110020
	ErrCodeLeverageNotModified = 110043

	ErrCodePositionModeNotModified = 110025
)

// ParseAPIError converts a non-zero retCode into a BybitError
func ParseAPIError(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	return &BybitError{Code: retCode, Message: retMsg}
}

// IsRetryableError reports whether the call may succeed on a retry
func IsRetryableError(err error) bool {
	if bybitErr, ok := err.(*BybitError); ok {
		switch bybitErr.Code {
		case ErrCodeRateLimitExceeded, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

// IsAuthenticationError reports whether the error is a credentials problem
func IsAuthenticationError(err error) bool {
	if bybitErr, ok := err.(*BybitError); ok {
		switch bybitErr.Code {
		case ErrCodeInvalidAPIKey, ErrCodeInvalidSignature, ErrCodeInvalidTimestamp:
			return true
		}
	}
	return false
}

// IsInsufficientBalanceError reports whether the order exceeded free margin
func IsInsufficientBalanceError(err error) bool {
	if bybitErr, ok := err.(*BybitError); ok {
		return bybitErr.Code == ErrCodeInsufficientBalance
	}
	return false
}
