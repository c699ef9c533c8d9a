package agents

import "fmt"

type ErrorType int

const (
	ErrorTypeInvalidCatalog ErrorType = iota
	ErrorTypeInvalidAgent
)

// CatalogError reports a catalog file that cannot be used.
type CatalogError struct {
	Type    ErrorType
	Path    string
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func (e *CatalogError) Is(target error) bool {
	if t, ok := target.(*CatalogError); ok {
		return e.Type == t.Type
	}
	return false
}

// ErrInvalidCatalog matches any CatalogError of type ErrorTypeInvalidCatalog.
var ErrInvalidCatalog = &CatalogError{Type: ErrorTypeInvalidCatalog}
