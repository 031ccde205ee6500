package config

import "errors"

// ErrNotStructPointer is returned when Load receives anything other
// than a non-nil pointer to a struct.
var ErrNotStructPointer = errors.New("config target must be a non-nil struct pointer")
