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

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func notFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

// conflict is reported as a 400, like every other rejected write.
func conflict(message string) *DomainError {
	return domainError(http.StatusBadRequest, "CONFLICT", message, nil)
}

func forbidden() *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", "Accès refusé.", nil)
}

func unauthorized(message string) *DomainError {
	return domainError(http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func exportUnavailable() *DomainError {
	return domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export PDF indisponible.", nil)
}

const (
	msgGuideNotFound      = "Guide introuvable."
	msgDayNotFound        = "Jour introuvable pour ce guide."
	msgTargetDayNotFound  = "Jour cible introuvable pour ce guide."
	msgActivityNotFound   = "Activité introuvable."
	msgUserNotFound       = "Utilisateur introuvable."
	msgInvitationNotFound = "Invitation introuvable."
)
