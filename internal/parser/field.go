package parser

// FieldState tells apart a field the email never mentioned from one that was
// present but could not be parsed.
type FieldState int

const (
	FieldAbsent FieldState = iota
	FieldMalformed
	FieldOK
)

func (s FieldState) String() string {
	switch s {
	case FieldOK:
		return "ok"
	case FieldMalformed:
		return "malformed"
	default:
		return "absent"
	}
}

// Field is a best-effort extraction result. Raw holds the matched text when
// the field was found.
type Field[T any] struct {
	Value T
	State FieldState
	Raw   string
}

func Absent[T any]() Field[T] {
	return Field[T]{State: FieldAbsent}
}

func Malformed[T any](raw string) Field[T] {
	return Field[T]{State: FieldMalformed, Raw: raw}
}

func Found[T any](value T, raw string) Field[T] {
	return Field[T]{Value: value, State: FieldOK, Raw: raw}
}

func (f Field[T]) OK() bool {
	return f.State == FieldOK
}

// Ptr returns nil unless the field parsed
func (f Field[T]) Ptr() *T {
	if f.State != FieldOK {
		return nil
	}
	v := f.Value
	return &v
}
