package remove

import "fmt"

type ErrorType int

const (
	ErrorTypeCancelled ErrorType = iota
	ErrorTypeOutsideLibrary
	ErrorTypeFilesystem
)

var ErrCancelled = &RemoveError{Type: ErrorTypeCancelled, Message: "operation cancelled"}

type RemoveError struct {
	Type    ErrorType
	Path    string
	Message string
	Err     error
}

func (e *RemoveError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s '%s'", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RemoveError) Unwrap() error {
	return e.Err
}

func (e *RemoveError) Is(target error) bool {
	if t, ok := target.(*RemoveError); ok {
		return e.Type == t.Type
	}
	return false
}
