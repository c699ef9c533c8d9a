package source

import (
	"fmt"
)

type ErrorType int

const (
	ErrorTypeEmpty ErrorType = iota
	ErrorTypeInvalidLocator
)

// ErrInvalidLocator matches any *LocatorError of type ErrorTypeInvalidLocator via errors.Is.
var ErrInvalidLocator = &LocatorError{Type: ErrorTypeInvalidLocator}

type LocatorError struct {
	Type    ErrorType
	Locator string
	Message string
}

func (e *LocatorError) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("%s: %q", e.Message, e.Locator)
	}
	return e.Message
}

func (e *LocatorError) Is(target error) bool {
	t, ok := target.(*LocatorError)
	if !ok {
		return false
	}
	// an empty locator is still an invalid one
	if t.Type == ErrorTypeInvalidLocator {
		return true
	}
	return e.Type == t.Type
}
