// Package errors provides the structured error taxonomy used across the
// banking core: every failure a caller can observe is a *ServiceError with
// a stable code, so callers can switch on kind instead of string-matching
// messages.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code.
type ErrorCode string

const (
	// Validation errors (3xxx) — caller-supplied data violates a precondition.
	ErrCodeInvalidInput     ErrorCode = "VAL_3001"
	ErrCodeMissingParameter ErrorCode = "VAL_3002"
	ErrCodeCurrencyMismatch ErrorCode = "VAL_3003"
	ErrCodeOutOfRange       ErrorCode = "VAL_3004"

	// Resource errors (4xxx) — addressed entity absent or already present.
	ErrCodeNotFound      ErrorCode = "RES_4001"
	ErrCodeAlreadyExists ErrorCode = "RES_4002"
	ErrCodeConflict      ErrorCode = "RES_4003"

	// State errors (5xxx) — operation incompatible with entity state.
	ErrCodeInvalidState      ErrorCode = "STATE_5001"
	ErrCodeDuplicateIdemKey  ErrorCode = "STATE_5002"
	ErrCodeAlreadyReversed   ErrorCode = "STATE_5003"
	ErrCodeUnsupportedReplay ErrorCode = "STATE_5004"

	// Policy errors (6xxx) — password policy, role deletion, amount limits, permissions.
	ErrCodePasswordPolicy   ErrorCode = "POLICY_6001"
	ErrCodeRoleHasUsers     ErrorCode = "POLICY_6002"
	ErrCodeAmountLimit      ErrorCode = "POLICY_6003"
	ErrCodePermissionDenied ErrorCode = "POLICY_6004"

	// Auth errors (7xxx) — credentials, account availability, sessions.
	ErrCodeInvalidCredentials ErrorCode = "AUTH_7001"
	ErrCodeAccountUnavailable ErrorCode = "AUTH_7002"
	ErrCodeSessionExpired     ErrorCode = "AUTH_7003"

	// Gate errors (8xxx) — compliance/fraud verdicts recorded on a transaction.
	ErrCodeComplianceBlock ErrorCode = "GATE_8001"
	ErrCodeFraudBlock      ErrorCode = "GATE_8002"

	// Ledger errors (9xxx).
	ErrCodeUnbalancedEntry ErrorCode = "LEDGER_9001"
	ErrCodeAlreadyPosted   ErrorCode = "LEDGER_9002"
	ErrCodeUnknownAccount  ErrorCode = "LEDGER_9003"

	// Infrastructure errors (5xx-class, not surfaced as caller faults).
	ErrCodeStorageUnavailable    ErrorCode = "INFRA_1001"
	ErrCodeExternalUnavailable   ErrorCode = "INFRA_1002"
	ErrCodeInternal              ErrorCode = "INFRA_1003"
)

// ServiceError represents a structured error with code, message, and an
// HTTP status kept for documentation purposes — this core has no HTTP
// surface of its own, but callers embedding it in one can reuse the status.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Validation

func InvalidInput(field, reason string) *ServiceError {
	return New(ErrCodeInvalidInput, "invalid input", http.StatusBadRequest).
		WithDetails("field", field).WithDetails("reason", reason)
}

func MissingParameter(param string) *ServiceError {
	return New(ErrCodeMissingParameter, "missing required parameter", http.StatusBadRequest).
		WithDetails("parameter", param)
}

func CurrencyMismatch(expected, actual string) *ServiceError {
	return New(ErrCodeCurrencyMismatch, "currency mismatch", http.StatusBadRequest).
		WithDetails("expected", expected).WithDetails("actual", actual)
}

func OutOfRange(field string, min, max interface{}) *ServiceError {
	return New(ErrCodeOutOfRange, "value out of range", http.StatusBadRequest).
		WithDetails("field", field).WithDetails("min", min).WithDetails("max", max)
}

// Resource

func NotFound(resource, id string) *ServiceError {
	return New(ErrCodeNotFound, "resource not found", http.StatusNotFound).
		WithDetails("resource", resource).WithDetails("id", id)
}

func AlreadyExists(resource, id string) *ServiceError {
	return New(ErrCodeAlreadyExists, "resource already exists", http.StatusConflict).
		WithDetails("resource", resource).WithDetails("id", id)
}

func Conflict(message string) *ServiceError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// State

func InvalidState(entity, state, wanted string) *ServiceError {
	return New(ErrCodeInvalidState, fmt.Sprintf("%s is %s, expected %s", entity, state, wanted), http.StatusConflict).
		WithDetails("entity", entity).WithDetails("state", state)
}

func DuplicateIdempotencyKey(key string) *ServiceError {
	return New(ErrCodeDuplicateIdemKey, "idempotency key already used with a conflicting payload", http.StatusConflict).
		WithDetails("key", key)
}

func AlreadyReversed(transactionID string) *ServiceError {
	return New(ErrCodeAlreadyReversed, "transaction already reversed", http.StatusConflict).
		WithDetails("transaction_id", transactionID)
}

func UnsupportedReversal(transactionType string) *ServiceError {
	return New(ErrCodeUnsupportedReplay, fmt.Sprintf("reversal not supported for transaction type %s", transactionType), http.StatusBadRequest).
		WithDetails("transaction_type", transactionType)
}

// Policy

func PasswordPolicy(reason string) *ServiceError {
	return New(ErrCodePasswordPolicy, reason, http.StatusBadRequest)
}

func RoleHasUsers(roleID string) *ServiceError {
	return New(ErrCodeRoleHasUsers, "role is still assigned to one or more users", http.StatusConflict).
		WithDetails("role_id", roleID)
}

func AmountLimitExceeded(limitKind, limit, amount string) *ServiceError {
	return New(ErrCodeAmountLimit, fmt.Sprintf("%s limit exceeded", limitKind), http.StatusForbidden).
		WithDetails("limit", limit).WithDetails("amount", amount)
}

func PermissionDenied(permission string) *ServiceError {
	return New(ErrCodePermissionDenied, "permission denied", http.StatusForbidden).
		WithDetails("permission", permission)
}

// Auth

func InvalidCredentials() *ServiceError {
	return New(ErrCodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized)
}

func AccountUnavailable() *ServiceError {
	return New(ErrCodeAccountUnavailable, "account is not available", http.StatusForbidden)
}

func SessionExpired() *ServiceError {
	return New(ErrCodeSessionExpired, "session has expired", http.StatusUnauthorized)
}

// Gates

func ComplianceBlock(violations []string) *ServiceError {
	return New(ErrCodeComplianceBlock, "blocked by compliance rules", http.StatusForbidden).
		WithDetails("violations", violations)
}

func FraudBlock(reasons []string) *ServiceError {
	return New(ErrCodeFraudBlock, "blocked by fraud detection", http.StatusForbidden).
		WithDetails("reasons", reasons)
}

// Ledger

func UnbalancedEntry(currency string) *ServiceError {
	return New(ErrCodeUnbalancedEntry, "journal entry debits and credits do not balance", http.StatusBadRequest).
		WithDetails("currency", currency)
}

func AlreadyPosted(entryID string) *ServiceError {
	return New(ErrCodeAlreadyPosted, "journal entry already posted", http.StatusConflict).
		WithDetails("entry_id", entryID)
}

func UnknownAccount(accountID string) *ServiceError {
	return New(ErrCodeUnknownAccount, "unknown ledger account", http.StatusBadRequest).
		WithDetails("account_id", accountID)
}

// Infrastructure

func StorageUnavailable(err error) *ServiceError {
	return Wrap(ErrCodeStorageUnavailable, "storage backend unavailable", http.StatusServiceUnavailable, err)
}

func ExternalUnavailable(service string, err error) *ServiceError {
	return Wrap(ErrCodeExternalUnavailable, fmt.Sprintf("%s unavailable", service), http.StatusBadGateway, err).
		WithDetails("service", service)
}

func Internal(message string, err error) *ServiceError {
	return Wrap(ErrCodeInternal, message, http.StatusInternalServerError, err)
}

// Helpers

func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

func HasCode(err error, code ErrorCode) bool {
	if se := GetServiceError(err); se != nil {
		return se.Code == code
	}
	return false
}

func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
