package friends

import "errors"

var (
	// ErrPrecondition indicates a guard rejected the request against persisted state.
	ErrPrecondition = errors.New("friendship precondition failed")
	// ErrInvalidInput indicates the request payload is malformed.
	ErrInvalidInput = errors.New("invalid friendship input")
)
