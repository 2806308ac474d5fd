package malloc

import "errors"

var (
	// ErrInitialization is returned when an arena cannot back a buddy allocator:
	// its size is not a power of two or it cannot hold a single minimal block.
	ErrInitialization = errors.New("buddy: initialization failed")

	// ErrOutOfMemory is returned when no free block of the required or a larger order exists.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrRequestTooLarge is returned when a request exceeds the largest block the arena can hold.
	ErrRequestTooLarge = errors.New("buddy: request too large")

	// ErrInvalidSize is returned for requests of zero or negative size.
	ErrInvalidSize = errors.New("buddy: size must be greater than zero")

	// ErrInvalidPointer is returned when Release is given an offset that
	// does not denote a live allocation of this allocator.
	ErrInvalidPointer = errors.New("buddy: invalid pointer")

	// ErrInvalidSplit reports an attempt to split a block of the minimal order.
	// It is raised as a panic since it can only come from broken order bookkeeping.
	ErrInvalidSplit = errors.New("buddy: invalid split")

	// ErrCorrupt is returned by Check when the block layout breaks an allocator invariant.
	ErrCorrupt = errors.New("buddy: corrupt arena")
)
