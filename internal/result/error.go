package result

import (
	"errors"
	"fmt"
)

// Error attaches a Code to the underlying cause, typically an engine error.
type Error struct {
	Code Code
	Op   string
	Err  error
}

// Wrap returns an *Error for code. A nil err records only the code.
func Wrap(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare Code so errors.Is(err, result.NotFound) works for
// wrapped engine errors as well.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf extracts the Code carried by err. A nil error is OK and an
// error that carries no Code is UnknownError.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return UnknownError
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
