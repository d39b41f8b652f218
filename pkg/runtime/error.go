package runtime

import "fmt"

// Error is a host-side failure tagged with the guest exception class it
// should surface as. Untagged errors default to RuntimeError.
type Error struct {
	ClassName string
	Message   string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a tagged guest error.
func Errorf(class, format string, args ...any) *Error {
	return &Error{ClassName: class, Message: fmt.Sprintf(format, args...)}
}
