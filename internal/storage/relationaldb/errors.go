package relationaldb

import (
	"errors"
	"fmt"
	"strings"
)

// Error variables for the different categories of store errors
var (
	// Configuration errors
	ErrMissingHost           = errors.New("database host is required")
	ErrMissingDatabase       = errors.New("database name is required")
	ErrMissingUsername       = errors.New("database username is required")
	ErrInvalidPort           = errors.New("invalid database port")
	ErrInvalidDriver         = errors.New("invalid database driver")
	ErrInvalidMaxOpenConns   = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns   = errors.New("max idle connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
	ErrInvalidMaxRetries     = errors.New("max retries must be >= 0")
	ErrInvalidRetryDelay     = errors.New("retry delay must be >= 0")
	ErrInvalidRetryMaxDelay  = errors.New("retry max delay must be >= retry delay")

	// Connection errors
	ErrDatabaseClosed    = errors.New("database connection is closed")
	ErrConnectionFailed  = errors.New("failed to connect to database")
	ErrConnectionTimeout = errors.New("database connection timeout")

	// Transaction errors
	ErrTransactionClosed       = errors.New("transaction is closed")
	ErrTransactionRollback     = errors.New("transaction was rolled back")
	ErrTransactionCommitFailed = errors.New("transaction commit failed")

	// Data errors
	ErrUserNotFound    = errors.New("user not found")
	ErrTripNotFound    = errors.New("trip not found")
	ErrMemberNotFound  = errors.New("trip member not found")
	ErrInviteNotFound  = errors.New("invite not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrFriendNotFound  = errors.New("friendship not found")
	ErrInvalidID       = errors.New("invalid identifier")
	ErrInvalidStatus   = errors.New("invalid status value")

	// Constraint errors
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrConstraintViolation = errors.New("database constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	ErrUniqueViolation     = errors.New("unique constraint violation")

	// State errors: a conditional update found zero matching rows because
	// the row already left the expected state.
	ErrPaymentNotPending = errors.New("payment is not pending")
	ErrInviteNotPending  = errors.New("invite is not pending")

	// Query errors
	ErrInvalidQuery   = errors.New("invalid SQL query")
	ErrQueryTimeout   = errors.New("query execution timeout")
	ErrQueryCancelled = errors.New("query was cancelled")
)

// ErrorType represents different categories of store errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeData
	ErrorTypeConstraint
	ErrorTypeState
	ErrorTypeQuery
	ErrorTypeSchema
)

// StoreError provides detailed information about store errors
type StoreError struct {
	Type      ErrorType              `json:"type"`
	Operation string                 `json:"operation"`
	Message   string                 `json:"message"`
	Cause     error                  `json:"cause,omitempty"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause error
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target
func (e *StoreError) Is(target error) bool {
	if target == nil {
		return false
	}

	if storeErr, ok := target.(*StoreError); ok {
		return e.Message == storeErr.Message && e.Type == storeErr.Type
	}

	switch target {
	case ErrUserNotFound, ErrTripNotFound, ErrMemberNotFound, ErrInviteNotFound,
		ErrExpenseNotFound, ErrPaymentNotFound, ErrFriendNotFound:
		return e.Type == ErrorTypeData && errors.Is(e.Cause, target)
	case ErrPaymentNotPending, ErrInviteNotPending:
		return e.Type == ErrorTypeState && errors.Is(e.Cause, target)
	case ErrDuplicateEntry, ErrUniqueViolation, ErrForeignKeyViolation:
		return e.Type == ErrorTypeConstraint && errors.Is(e.Cause, target)
	case ErrConnectionFailed:
		return e.Type == ErrorTypeConnection
	case ErrTransactionClosed:
		return e.Type == ErrorTypeTransaction && e.Code == "TRANSACTION_CLOSED"
	}

	return false
}

// WithDetail adds a detail to the error
func (e *StoreError) WithDetail(key string, value interface{}) *StoreError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCode sets the error code
func (e *StoreError) WithCode(code string) *StoreError {
	e.Code = code
	return e
}

// IsRetryable returns whether the error is retryable
func (e *StoreError) IsRetryable() bool {
	return e.Retryable
}

// NewStoreError creates a new StoreError
func NewStoreError(errorType ErrorType, operation, message string, cause error) *StoreError {
	return &StoreError{
		Type:      errorType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryableError(errorType, cause),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeConfiguration, operation, message, cause)
}

// NewConnectionError creates a connection error
func NewConnectionError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeConnection, operation, message, cause)
}

// NewTransactionError creates a transaction error
func NewTransactionError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeTransaction, operation, message, cause)
}

// NewDataError creates a data error
func NewDataError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeData, operation, message, cause)
}

// NewConstraintError creates a constraint error
func NewConstraintError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeConstraint, operation, message, cause)
}

// NewStateError creates a state-precondition error
func NewStateError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeState, operation, message, cause)
}

// NewQueryError creates a query error
func NewQueryError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeQuery, operation, message, cause)
}

// NewSchemaError creates a schema error
func NewSchemaError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeSchema, operation, message, cause)
}

// isRetryableError determines if an error is retryable based on its type and cause
func isRetryableError(errorType ErrorType, cause error) bool {
	switch errorType {
	case ErrorTypeConnection:
		return true
	case ErrorTypeTransaction:
		if cause != nil {
			errStr := strings.ToLower(cause.Error())
			if strings.Contains(errStr, "deadlock") || strings.Contains(errStr, "timeout") ||
				strings.Contains(errStr, "connection") || strings.Contains(errStr, "temporary") {
				return true
			}
		}
		return false
	case ErrorTypeQuery:
		if cause != nil {
			errStr := strings.ToLower(cause.Error())
			if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "cancelled") {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// IsNotFound checks if an error means the target row does not exist
func IsNotFound(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Type == ErrorTypeData
}

// IsConstraint checks if an error is a constraint violation
func IsConstraint(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Type == ErrorTypeConstraint
}

// IsStateConflict checks if an error is a failed state precondition
func IsStateConflict(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Type == ErrorTypeState
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Type == ErrorTypeConnection
}

// IsTransactionError checks if an error is a transaction error
func IsTransactionError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Type == ErrorTypeTransaction
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Retryable
	}

	if err != nil {
		errStr := strings.ToLower(err.Error())
		retryablePatterns := []string{
			"connection refused",
			"connection reset",
			"connection timeout",
			"database is locked",
			"temporary failure",
			"deadlock",
			"timeout",
			"busy",
		}

		for _, pattern := range retryablePatterns {
			if strings.Contains(errStr, pattern) {
				return true
			}
		}
	}

	return false
}

// WrapError wraps an existing error with store error context
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		newErr := *storeErr
		newErr.Operation = operation
		return &newErr
	}

	errStr := strings.ToLower(err.Error())
	var errorType ErrorType
	var retryable bool

	switch {
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "connect"):
		errorType = ErrorTypeConnection
		retryable = true
	case strings.Contains(errStr, "transaction") || strings.Contains(errStr, "deadlock"):
		errorType = ErrorTypeTransaction
		retryable = strings.Contains(errStr, "deadlock") || strings.Contains(errStr, "timeout")
	case strings.Contains(errStr, "constraint") || strings.Contains(errStr, "duplicate") || strings.Contains(errStr, "unique"):
		errorType = ErrorTypeConstraint
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "no rows"):
		errorType = ErrorTypeData
	case strings.Contains(errStr, "syntax") || strings.Contains(errStr, "invalid"):
		errorType = ErrorTypeQuery
	case strings.Contains(errStr, "table") || strings.Contains(errStr, "column") || strings.Contains(errStr, "schema"):
		errorType = ErrorTypeSchema
	default:
		errorType = ErrorTypeUnknown
	}

	return &StoreError{
		Type:      errorType,
		Operation: operation,
		Message:   errStr,
		Cause:     err,
		Retryable: retryable,
	}
}
