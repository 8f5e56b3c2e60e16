package errors

import "net/http"

// ErrorCode is the string identifier attached to every AppError.  Codes are
// stable across releases: clients and dashboards key on them.
type ErrorCode string

// String returns the raw code value.
func (c ErrorCode) String() string {
	return string(c)
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	// CodeOK is returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
	// CodeUnknown is returned by GetCode when the chain carries no AppError.
	// Passing it to Wrap keeps the wrapped error's code.
	CodeUnknown ErrorCode = "UNKNOWN"

	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeUnauthorized    ErrorCode = "COMMON_003"
	ErrCodeForbidden       ErrorCode = "COMMON_004"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeConflict        ErrorCode = "COMMON_006"
	ErrCodeTimeout         ErrorCode = "COMMON_007"
	ErrCodeRateLimit       ErrorCode = "COMMON_008"
	ErrCodeServiceUnavail  ErrorCode = "COMMON_009"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeInvalidState    ErrorCode = "COMMON_011"
	ErrCodeDatabaseError   ErrorCode = "COMMON_012"
	ErrCodeCacheError      ErrorCode = "COMMON_013"
	ErrCodeMessagingError  ErrorCode = "COMMON_014"
	ErrCodeStorageError    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented  ErrorCode = "COMMON_016"
	ErrCodeInvalidConfig   ErrorCode = "COMMON_017"
	ErrCodeSerialization   ErrorCode = "COMMON_018"
	ErrCodeLockNotAcquired ErrorCode = "COMMON_019"
)

// ─────────────────────────────────────────────────────────────────────────────
// Membership reconciliation codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ErrCodeMembershipNotFound covers a missing membership, installment or
	// submission referenced by the current operation.
	ErrCodeMembershipNotFound ErrorCode = "MEM_001"
	// ErrCodeInvalidPayCode means the supplied pay-link code does not match.
	ErrCodeInvalidPayCode ErrorCode = "MEM_002"
	// ErrCodeProofUpload means object storage refused or failed the proof upload.
	ErrCodeProofUpload ErrorCode = "MEM_003"
	// ErrCodePermissionDenied means the store rejected a write.
	ErrCodePermissionDenied ErrorCode = "MEM_004"
	// ErrCodePayLinkDisabled means new submissions are currently blocked.
	ErrCodePayLinkDisabled ErrorCode = "MEM_005"
	// ErrCodeSubmissionDecided means the submission is no longer pending.
	ErrCodeSubmissionDecided ErrorCode = "MEM_006"
	// ErrCodeInstallmentApplied means an installment is already settled by
	// another submission.
	ErrCodeInstallmentApplied ErrorCode = "MEM_007"
)

// Short aliases used at call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeNotFound     = ErrCodeNotFound
	CodeValidation   = ErrCodeValidation
	CodeConflict     = ErrCodeConflict
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeInvalidState = ErrCodeInvalidState
)

// ─────────────────────────────────────────────────────────────────────────────
// Error kinds
// ─────────────────────────────────────────────────────────────────────────────

// Kind is the coarse failure category reported to callers next to the code.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindInvalidCode      Kind = "invalid_code"
	KindValidation       Kind = "validation_error"
	KindUpload           Kind = "upload_error"
	KindPermissionDenied Kind = "permission_denied"
	KindPayLinkDisabled  Kind = "pay_link_disabled"
	KindInvalidState     Kind = "invalid_state"
	KindConflict         Kind = "conflict"
	KindUnauthorized     Kind = "unauthorized"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal"
)

var errorCodeKind = map[ErrorCode]Kind{
	ErrCodeNotFound:           KindNotFound,
	ErrCodeMembershipNotFound: KindNotFound,
	ErrCodeInvalidPayCode:     KindInvalidCode,
	ErrCodeValidation:         KindValidation,
	ErrCodeBadRequest:         KindValidation,
	ErrCodeProofUpload:        KindUpload,
	ErrCodePermissionDenied:   KindPermissionDenied,
	ErrCodeForbidden:          KindPermissionDenied,
	ErrCodePayLinkDisabled:    KindPayLinkDisabled,
	ErrCodeSubmissionDecided:  KindInvalidState,
	ErrCodeInvalidState:       KindInvalidState,
	ErrCodeInstallmentApplied: KindConflict,
	ErrCodeConflict:           KindConflict,
	ErrCodeLockNotAcquired:    KindConflict,
	ErrCodeUnauthorized:       KindUnauthorized,
	ErrCodeRateLimit:          KindRateLimited,
}

// Kind maps a code to its kind.  Unmapped codes are internal.
func (c ErrorCode) Kind() Kind {
	if k, ok := errorCodeKind[c]; ok {
		return k
	}
	return KindInternal
}

// ErrorCodeHTTPStatus maps codes to HTTP status codes for the interface layer.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeRateLimit:       http.StatusTooManyRequests,
	ErrCodeServiceUnavail:  http.StatusServiceUnavailable,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidState:    http.StatusConflict,
	ErrCodeDatabaseError:   http.StatusInternalServerError,
	ErrCodeCacheError:      http.StatusInternalServerError,
	ErrCodeMessagingError:  http.StatusInternalServerError,
	ErrCodeStorageError:    http.StatusBadGateway,
	ErrCodeNotImplemented:  http.StatusNotImplemented,
	ErrCodeInvalidConfig:   http.StatusInternalServerError,
	ErrCodeSerialization:   http.StatusInternalServerError,
	ErrCodeLockNotAcquired: http.StatusConflict,

	ErrCodeMembershipNotFound: http.StatusNotFound,
	ErrCodeInvalidPayCode:     http.StatusForbidden,
	ErrCodeProofUpload:        http.StatusBadGateway,
	ErrCodePermissionDenied:   http.StatusForbidden,
	ErrCodePayLinkDisabled:    http.StatusConflict,
	ErrCodeSubmissionDecided:  http.StatusConflict,
	ErrCodeInstallmentApplied: http.StatusConflict,
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}

// ErrorCodeMessage holds default user-facing messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeNotFound:           "resource not found",
	ErrCodeValidation:         "validation failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeMembershipNotFound: "membership record not found",
	ErrCodeInvalidPayCode:     "invalid payment code",
	ErrCodeProofUpload:        "proof of payment upload failed",
	ErrCodePermissionDenied:   "write rejected by store",
	ErrCodePayLinkDisabled:    "payment link is disabled",
	ErrCodeSubmissionDecided:  "submission already decided",
	ErrCodeInstallmentApplied: "installment already applied",
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if m, ok := ErrorCodeMessage[code]; ok {
		return m
	}
	return "unknown error"
}

//Personal.AI order the ending
