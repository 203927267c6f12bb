package utils

func PtrTo[T any](v T) *T {
	return &v
}

// Deref returns the value pointed to by v, or the zero value when v is nil.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}

	return *v
}

func IsNotNilOrEmptyString(v *string) bool {
	return v != nil && *v != ""
}

func IsNilOrEmptyString(v *string) bool {
	return v == nil || *v == ""
}
