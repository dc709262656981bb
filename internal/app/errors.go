package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func errNotAuthenticated() *DomainError {
	return domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
}

func errInvalidArgument(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}

func errPermissionDenied() *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this user's plans", nil)
}

func errNotFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func errUpstream(message string) *DomainError {
	return domainError(http.StatusBadGateway, "UPSTREAM_ERROR", message, nil)
}

func errAIUnavailable() *DomainError {
	return domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI features are not configured", nil)
}
