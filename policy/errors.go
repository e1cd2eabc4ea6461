package policy

import "fmt"

// InvalidError reports a policy field outside its permitted range.
type InvalidError struct {
	Field   string
	Message string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("policy: invalid %s: %s", e.Field, e.Message)
}

func errInvalid(field, msg string) error {
	return &InvalidError{Field: field, Message: msg}
}
