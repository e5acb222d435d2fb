package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

// ErrContent marks a fatal catalog defect found at load time. A catalog
// that fails validation is never partially loaded.
func ErrContent(msg string, cause error) *AppError {
	return &AppError{Code: "CONTENT_ERROR", Message: msg, Status: 500, Cause: cause}
}

// ErrInvalidOperation marks a recoverable caller mistake: skill upgrades
// out of tier order, progress on an unknown quest, prestige below the
// floor. State is left untouched.
func ErrInvalidOperation(msg string) *AppError {
	return &AppError{Code: "INVALID_OPERATION", Message: msg, Status: 409}
}

// ErrOracle marks a randomness oracle failure during dispense. The quest
// stays completed-pending-dispense; retrying is safe.
func ErrOracle(cause error) *AppError {
	return &AppError{Code: "ORACLE_FAILURE", Message: "randomness oracle unavailable, reward pending", Status: 503, Cause: cause}
}

// ErrConcurrency marks a stale-version write. The caller must re-read
// player state and retry, never merge.
func ErrConcurrency(playerID string) *AppError {
	return &AppError{Code: "CONCURRENCY_VIOLATION", Message: fmt.Sprintf("player %s state changed concurrently", playerID), Status: 409}
}

func ErrAccountLocked(msg string) *AppError {
	return &AppError{Code: "ACCOUNT_LOCKED", Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// GuardResult is the verdict returned by guards (idempotency, rate limit,
// circuit breaker).
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
