package errors

import (
	stderrors "errors"
)

// Is and As re-export the standard helpers so callers that already import
// this package do not need a second aliased errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
