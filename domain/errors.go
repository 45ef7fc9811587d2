package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionExists          = errors.New("an active discovery session already exists for this project")
	ErrSessionNotFound        = errors.New("discovery session not found")
	ErrSessionExpired         = errors.New("discovery session has expired")
	ErrSessionTerminal        = errors.New("discovery session is completed or cancelled")
	ErrInvalidStage           = errors.New("unknown discovery stage")
	ErrRequirementsIncomplete = errors.New("requirements synthesis must be completed")
	ErrVersionConflict        = errors.New("project state was modified concurrently")
)

// ValidationError reports a payload that failed schema or field-presence
// rules, naming the offending fields.
type ValidationError struct {
	Fields []string
	Msg    string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (fields: %s)", e.Msg, strings.Join(e.Fields, ", "))
}

// Stable error identifiers surfaced to callers. These are part of the public
// contract and must not change.
const (
	CodeSessionNotFound        = "session-not-found"
	CodeSessionExists          = "session-exists"
	CodeSessionExpired         = "session-expired"
	CodeSessionTerminal        = "session-terminal"
	CodeInvalidStage           = "invalid-stage"
	CodeRequirementsIncomplete = "requirements-incomplete"
	CodeValidationError        = "validation-error"
	CodeVersionConflict        = "version-conflict"
)

// ErrorCode maps an error to its stable identifier, or "" when the error is
// not part of the public taxonomy.
func ErrorCode(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return CodeSessionNotFound
	case errors.Is(err, ErrSessionExists):
		return CodeSessionExists
	case errors.Is(err, ErrSessionExpired):
		return CodeSessionExpired
	case errors.Is(err, ErrSessionTerminal):
		return CodeSessionTerminal
	case errors.Is(err, ErrInvalidStage):
		return CodeInvalidStage
	case errors.Is(err, ErrRequirementsIncomplete):
		return CodeRequirementsIncomplete
	case errors.Is(err, ErrVersionConflict):
		return CodeVersionConflict
	case errors.As(err, &verr):
		return CodeValidationError
	default:
		return ""
	}
}
