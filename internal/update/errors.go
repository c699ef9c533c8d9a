package update

import "fmt"

type UpdateErrorType int

const (
	UpdateErrorTypeRefresh UpdateErrorType = iota
	UpdateErrorTypeNotFound
	UpdateErrorTypePartial
)

var (
	ErrNotFound = &UpdateError{Type: UpdateErrorTypeNotFound}
	ErrPartial  = &UpdateError{Type: UpdateErrorTypePartial}
)

type UpdateError struct {
	Type       UpdateErrorType
	Message    string
	Err        error
	Repository string
}

func (e *UpdateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s '%s': %v", e.Message, e.Repository, e.Err)
	}
	if e.Repository != "" {
		return fmt.Sprintf("%s '%s'", e.Message, e.Repository)
	}
	return e.Message
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

func (e *UpdateError) Is(target error) bool {
	if t, ok := target.(*UpdateError); ok {
		return e.Type == t.Type
	}
	return false
}
