package install

import (
	"fmt"
)

type ErrorType int

const (
	ErrorTypeMissingDirectory ErrorType = iota
	ErrorTypeNoAgents
	ErrorTypeNoSource
	ErrorTypeNoSkills
	ErrorTypeInvalidOption
)

type InstallError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *InstallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

func (e *InstallError) Is(target error) bool {
	if t, ok := target.(*InstallError); ok {
		return e.Type == t.Type
	}
	return false
}

var (
	// ErrMissingDirectory matches a skill path that is not a directory.
	ErrMissingDirectory = &InstallError{Type: ErrorTypeMissingDirectory}
	// ErrNoAgents matches an install with no agent to link into.
	ErrNoAgents = &InstallError{Type: ErrorTypeNoAgents}
)
