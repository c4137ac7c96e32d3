package models

// Opt is an optional patch field. The zero value means "not part of the update".
type Opt[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// Ptr returns a pointer to v, for building patches of nullable fields.
func Ptr[T any](v T) *T {
	return &v
}
