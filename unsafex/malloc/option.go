package malloc

import (
	"context"
	"io"
	"log/slog"
)

// Option configures a BuddyAllocator or an Arena.
// A nil *Option is the same as DefaultOption().
type Option struct {
	// Logger receives debug records for allocate, release, split and coalesce.
	// Nothing is logged when it is nil.
	Logger *slog.Logger

	// Trace additionally logs the free lists before and after every
	// Allocate and Release. It is only useful on small arenas.
	Trace bool

	// Heap makes NewArena take its memory from the Go heap instead of
	// reserving pages from the OS. It has no effect on NewBuddyAllocator.
	Heap bool
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (o *Option) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (a *BuddyAllocator) debug() bool {
	return a.logger.Enabled(context.Background(), slog.LevelDebug)
}
