package genval

import "errors"

// Inside the value algebra errors are values: the Invalid sentinel
// propagates through every operation and callers test results with
// IsInvalid. The sentinels below exist for the API rim — parse, emit
// and builder construction — where Go errors are returned alongside,
// and they mirror the failure categories the engine distinguishes for
// diagnostics.
var (
	// ErrInvalid reports an operand that does not satisfy an
	// operation's precondition.
	ErrInvalid = errors.New("genval: invalid value")

	// ErrRange reports an index or slice out of range.
	ErrRange = errors.New("genval: index out of range")

	// ErrAllocation reports an exhausted arena; the builder's failure
	// counter has been incremented.
	ErrAllocation = errors.New("genval: allocation failure")

	// ErrDuplicateKey reports a duplicate mapping key under the
	// no-duplicate policy.
	ErrDuplicateKey = errors.New("genval: duplicate mapping key")

	// ErrMalformedInput reports a parse failure from the parser
	// back-end.
	ErrMalformedInput = errors.New("genval: malformed input")

	// ErrEmit reports an IO or formatting failure from the emitter
	// back-end.
	ErrEmit = errors.New("genval: emit error")
)

// errInvalidResult aborts a parallel operation when a callback
// produced Invalid; the operation as a whole then returns Invalid.
var errInvalidResult = errors.New("genval: operation produced invalid value")
