package result

// Expected holds either a value or the error that prevented producing it.
// Callers must check Err (or OK) before trusting Value.
type Expected[T any] struct {
	Value T
	Err   error
}

// Of builds an Expected from a conventional (value, error) pair.
func Of[T any](v T, err error) Expected[T] {
	if err != nil {
		var zero T
		return Expected[T]{Value: zero, Err: err}
	}
	return Expected[T]{Value: v}
}

// Value wraps a successful value.
func Value[T any](v T) Expected[T] { return Expected[T]{Value: v} }

// Fail wraps a failure. A nil err is recorded as UnknownError.
func Fail[T any](err error) Expected[T] {
	if err == nil {
		err = UnknownError
	}
	return Expected[T]{Err: err}
}

// OK reports whether e holds a value.
func (e Expected[T]) OK() bool { return e.Err == nil }

// Code returns the Code carried by the failure, or OK.
func (e Expected[T]) Code() Code { return CodeOf(e.Err) }

// Get unpacks e into the conventional (value, error) pair.
func (e Expected[T]) Get() (T, error) { return e.Value, e.Err }

// Then calls fn with the value when e holds one. A failure short-circuits
// and fn is not called.
func (e Expected[T]) Then(fn func(T) (T, error)) Expected[T] {
	if e.Err != nil {
		return e
	}
	return Of(fn(e.Value))
}

// Bind is Then for functions changing the value type. Go methods cannot
// introduce type parameters, hence the free function.
func Bind[T, U any](e Expected[T], fn func(T) (U, error)) Expected[U] {
	if e.Err != nil {
		return Expected[U]{Err: e.Err}
	}
	return Of(fn(e.Value))
}
