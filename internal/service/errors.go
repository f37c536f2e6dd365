package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

type ErrorType int

const (
	ErrFileNotFound ErrorType = iota
	ErrFileRead
	ErrFileWrite
	ErrTranslation
	ErrUnknown
)

// BatchError is a failure of a whole batch, as opposed to a single line.
type BatchError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *BatchError {
	return &BatchError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *BatchError {
	return &BatchError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *BatchError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}

func (e *BatchError) WithContext(key string, value any) *BatchError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	case ErrTranslation:
		return "Translation"
	default:
		return "Unknown"
	}
}

// Advice returns a hint for the operator.
func Advice(err error) string {
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		return "Please review detailed error information"
	}
	switch batchErr.Type {
	case ErrFileNotFound:
		return "Please check that the inbox directory exists"
	case ErrFileRead:
		return "Please check that the batch is valid JSONL with code, name and text fields"
	case ErrFileWrite:
		return "Please ensure the output directory exists and has write permissions"
	case ErrTranslation:
		return "Every line of the batch failed; check the translator backend and its API key"
	default:
		return "Please review detailed error information"
	}
}

// HandleError logs err with advice and reports whether it was a BatchError.
func HandleError(err error) bool {
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}
	log.Error("Error Detail: %v\n advice: %s", err, Advice(err))
	return true
}

func IsErrorType(err error, errorType ErrorType) bool {
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return batchErr.Type == errorType
	}
	return false
}
