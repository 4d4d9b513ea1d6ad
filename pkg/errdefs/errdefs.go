package errdefs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified engine error. The kind doubles as the wire name
// the API renders in the "error" field, and the status is the HTTP code
// the class maps to.
type Error struct {
	kind    string
	status  int
	Message string
	Code    string // optional machine-readable detail code
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the wire name, e.g. "ValidationError"
func (e *Error) Kind() string { return e.kind }

// Status returns the HTTP status code for this error class
func (e *Error) Status() int { return e.status }

const (
	kindValidation         = "ValidationError"
	kindNotFound           = "NotFoundError"
	kindConflict           = "ConflictError"
	kindDeployment         = "DeploymentError"
	kindNoActive           = "NoActiveDeploymentError"
	kindNoPrevious         = "NoPreviousDeploymentError"
	kindRollbackValidation = "RollbackValidationFailedError"
)

// Validation reports invalid user input
func Validation(format string, args ...any) *Error {
	return &Error{
		kind:    kindValidation,
		status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound reports a missing resource
func NotFound(resource, key string) *Error {
	return &Error{
		kind:    kindNotFound,
		status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, key),
	}
}

// Conflict reports a state collision, e.g. a deploy already in flight
func Conflict(message string) *Error {
	return &Error{
		kind:    kindConflict,
		status:  http.StatusConflict,
		Message: message,
	}
}

// Deployment reports a pipeline failure. The cause is wrapped and
// reachable through errors.Unwrap.
func Deployment(message string, cause error) *Error {
	return &Error{
		kind:    kindDeployment,
		status:  http.StatusInternalServerError,
		Message: message,
		cause:   cause,
	}
}

// Deploymentf reports a pipeline failure with a formatted message
func Deploymentf(format string, args ...any) *Error {
	return &Error{
		kind:    kindDeployment,
		status:  http.StatusInternalServerError,
		Message: fmt.Sprintf(format, args...),
	}
}

// NoActiveDeployment reports a rollback attempt on a project with
// nothing live
func NoActiveDeployment(projectID string) *Error {
	return &Error{
		kind:    kindNoActive,
		status:  http.StatusBadRequest,
		Message: fmt.Sprintf("project %s has no active deployment", projectID),
		Code:    "NO_ACTIVE_DEPLOYMENT",
	}
}

// NoPreviousDeployment reports a rollback attempt with no earlier
// version to restore
func NoPreviousDeployment(projectID string) *Error {
	return &Error{
		kind:    kindNoPrevious,
		status:  http.StatusBadRequest,
		Message: fmt.Sprintf("project %s has no previous deployment to roll back to", projectID),
		Code:    "NO_PREVIOUS_DEPLOYMENT",
	}
}

// RollbackValidationFailed reports that the restored version never
// became healthy; the current deployment stays live
func RollbackValidationFailed(message string) *Error {
	return &Error{
		kind:    kindRollbackValidation,
		status:  http.StatusInternalServerError,
		Message: message,
		Code:    "ROLLBACK_VALIDATION_FAILED",
	}
}

func isKind(err error, kind string) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == kind
}

func IsValidation(err error) bool { return isKind(err, kindValidation) }
func IsNotFound(err error) bool   { return isKind(err, kindNotFound) }
func IsConflict(err error) bool   { return isKind(err, kindConflict) }
func IsDeployment(err error) bool { return isKind(err, kindDeployment) }

func IsNoActiveDeployment(err error) bool   { return isKind(err, kindNoActive) }
func IsNoPreviousDeployment(err error) bool { return isKind(err, kindNoPrevious) }

func IsRollbackValidationFailed(err error) bool {
	return isKind(err, kindRollbackValidation)
}

// HTTPStatus returns the status code the API renders err with.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.status
	}
	return http.StatusInternalServerError
}

// WireName returns the "error" field value for the API payload
func WireName(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return "InternalError"
}

// DetailCode returns the optional "code" field value, empty when unset
func DetailCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
