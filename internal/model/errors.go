package model

import "errors"

// ErrValidation marks a local input check that failed before any request was made.
var ErrValidation = errors.New("validation failed")
