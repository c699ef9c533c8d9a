package link

import (
	"fmt"
)

type ErrorType int

const (
	ErrorTypeCollision ErrorType = iota
	ErrorTypeLinkFailure
	ErrorTypeFilesystem
	ErrorTypeCancelled
)

type LinkError struct {
	Type    ErrorType
	Path    string
	Message string
	Err     error
}

func (e *LinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

func (e *LinkError) Is(target error) bool {
	if t, ok := target.(*LinkError); ok {
		return e.Type == t.Type
	}
	return false
}

var (
	// ErrCollision matches plans rejected because two skills share a link path.
	ErrCollision = &LinkError{Type: ErrorTypeCollision}
	// ErrLinkFailure matches a symlink that could not be created.
	ErrLinkFailure = &LinkError{Type: ErrorTypeLinkFailure}
)
