package models

import (
	"errors"
	"fmt"
)

// ImportErrorCode classifies why a single input file could not be imported.
type ImportErrorCode string

const (
	ErrInvalidDocument ImportErrorCode = "INVALID_DOCUMENT"
	ErrNoText          ImportErrorCode = "NO_TEXT"
	ErrUnsupportedType ImportErrorCode = "UNSUPPORTED_TYPE"
	ErrReadFailed      ImportErrorCode = "READ_FAILED"
)

// ImportError is a per-file failure. A batch keeps going after one.
type ImportError struct {
	Code    ImportErrorCode
	Source  string // file name, when known
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Source != "" {
		prefix += " " + e.Source + ":"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

// NewImportError builds an ImportError without a source name.
func NewImportError(code ImportErrorCode, msg string, cause error) *ImportError {
	return &ImportError{Code: code, Message: msg, Cause: cause}
}

// ImportErrorCodeOf returns the code of the first ImportError in err's chain,
// or "" when there is none.
func ImportErrorCodeOf(err error) ImportErrorCode {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
