package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"
	ErrorTypeStateConflict ErrorType = "STATE_CONFLICT"
	ErrorTypeReferential   ErrorType = "REFERENTIAL_CONFLICT"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal      ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity        ErrorCode = "INVALID_QUANTITY"
	ErrCodeReturnDateRequired     ErrorCode = "RETURN_DATE_REQUIRED"
	ErrCodeGatesMustDiffer        ErrorCode = "GATES_MUST_DIFFER"
	ErrCodeVehicleFieldsRequired  ErrorCode = "VEHICLE_FIELDS_REQUIRED"
	ErrCodeRejectionReasonMissing ErrorCode = "REJECTION_REASON_MISSING"
	ErrCodeInvalidDecision        ErrorCode = "INVALID_DECISION"

	ErrCodeInvalidCredentials   ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled      ErrorCode = "ACCOUNT_DISABLED"
	ErrCodeProfileNotFound      ErrorCode = "DIRECTORY_PROFILE_NOT_FOUND"
	ErrCodeDirectoryUnavailable ErrorCode = "DIRECTORY_UNAVAILABLE"
	ErrCodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"

	ErrCodeMissingCapability   ErrorCode = "MISSING_CAPABILITY"
	ErrCodeNotProcessActor     ErrorCode = "NOT_PROCESS_ACTOR"
	ErrCodeSegregationOfDuties ErrorCode = "SEGREGATION_OF_DUTIES"
	ErrCodeWrongGate           ErrorCode = "WRONG_GATE"

	ErrCodeInvalidStatus ErrorCode = "INVALID_STATUS"
	ErrCodeStaleState    ErrorCode = "STALE_STATE"

	ErrCodeProcessNotFound      ErrorCode = "PROCESS_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeGroupNotFound        ErrorCode = "GROUP_NOT_FOUND"
	ErrCodeSubstitutionNotFound ErrorCode = "SUBSTITUTION_NOT_FOUND"

	ErrCodeUserHasSubordinates ErrorCode = "USER_HAS_SUBORDINATES"
	ErrCodeUserHasGroups       ErrorCode = "USER_HAS_GROUP_LINKS"
	ErrCodeGroupInUse          ErrorCode = "GROUP_IN_USE"
	ErrCodeProtectedGroup      ErrorCode = "PROTECTED_GROUP"
	ErrCodeLastAdmin           ErrorCode = "LAST_ADMIN"
	ErrCodeSelfAction          ErrorCode = "SELF_ACTION"
	ErrCodeDuplicateUsername   ErrorCode = "DUPLICATE_USERNAME"

	ErrCodeAttachmentTooLarge ErrorCode = "ATTACHMENT_TOO_LARGE"
	ErrCodeAttachmentNotPDF   ErrorCode = "ATTACHMENT_NOT_PDF"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewStateConflictError reports a transition attempted against a process
// that is not in the expected prior status. The message names the current
// status so the caller can correct the request.
func NewStateConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeStateConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewReferentialConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeReferential,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	// The credential failure message keeps the username/password ambiguity:
	// it never says which of the two was wrong.
	ErrInvalidCredentials = NewUnauthorizedError("usuário ou senha inválidos", ErrCodeInvalidCredentials)
	ErrAccountDisabled    = NewForbiddenError("conta desativada", ErrCodeAccountDisabled)
	ErrInvalidToken       = NewUnauthorizedError("token inválido", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("sessão expirada, autentique-se novamente", ErrCodeTokenExpired)

	ErrStaleState = NewStateConflictError("o processo foi alterado por outra operação", ErrCodeStaleState)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
