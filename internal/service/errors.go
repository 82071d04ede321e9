package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type ErrorCode string

const (
	ErrorCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrorCodeValidation         ErrorCode = "VALIDATION_FAILED"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeTeamExists         ErrorCode = "TEAM_EXISTS"
	ErrorCodeEmailNotRegistered ErrorCode = "EMAIL_NOT_REGISTERED"
	ErrorCodeDuplicateEmail     ErrorCode = "DUPLICATE_EMAIL"
	ErrorCodeTeamFull           ErrorCode = "TEAM_FULL"
	ErrorCodeTeamLocked         ErrorCode = "TEAM_LOCKED"
	ErrorCodeNotTeamLead        ErrorCode = "NOT_TEAM_LEAD"
	ErrorCodeLeadRemoval        ErrorCode = "LEAD_REMOVAL"
	ErrorCodeConflict           ErrorCode = "CONFLICT"
	ErrorCodeAlreadySubmitted   ErrorCode = "ALREADY_SUBMITTED"
	ErrorCodeFeedbackRequired   ErrorCode = "FEEDBACK_REQUIRED"
	ErrorCodeUploadFailed       ErrorCode = "UPLOAD_FAILED"
	ErrorCodeStorageDenied      ErrorCode = "STORAGE_PERMISSION_DENIED"
	ErrorCodeSaveFailed         ErrorCode = "SAVE_FAILED"
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeUnspecified        ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Link points the user at a remediation page, e.g. the registration form.
	Link string `json:"link,omitempty"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	return e.Message
}

// asServiceError unwraps the *Error returned from inside a transaction.
// Anything else becomes UNSPECIFIED with the fallback message.
func asServiceError(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var res *Error
	if errors.As(err, &res) {
		return res
	}
	return NewError(ErrorCodeUnspecified, fallback)
}

// validationError turns validator output into a VALIDATION_FAILED error naming the first bad field.
func validationError(err error) *Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewErrorf(ErrorCodeValidation, "field %s failed on %s", fe.Field(), fe.Tag())
	}
	return NewError(ErrorCodeValidation, err.Error())
}
