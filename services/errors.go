package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a ServiceError for the HTTP layer
type ErrorKind int

const (
	KindValidation   ErrorKind = iota + 1 // missing or malformed input
	KindInvalidState                      // target is in a state that forbids the operation
	KindForbidden                         // caller lacks the profile or ownership
	KindNotFound                          // entity absent
	KindConflict                          // competing or repeated state transition
	KindIntegrity                         // referenced parent missing
	KindUpstream                          // collaborator failure that must fail the request
)

// ServiceError is a handled failure carrying a stable code for clients
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error kind to a response status
func (e *ServiceError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInvalidState:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsServiceError unwraps err into a *ServiceError when it is one
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func newError(kind ErrorKind, code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Code: code, Message: message, Details: details}
}

func validationError(code, message string, details map[string]interface{}) *ServiceError {
	return newError(KindValidation, code, message, details)
}

func notFoundError(code, message string) *ServiceError {
	return newError(KindNotFound, code, message, nil)
}

func forbiddenError(code, message string) *ServiceError {
	return newError(KindForbidden, code, message, nil)
}

func conflictError(code, message string, details map[string]interface{}) *ServiceError {
	return newError(KindConflict, code, message, details)
}
