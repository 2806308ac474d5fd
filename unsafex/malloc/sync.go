package malloc

import "sync"

// SyncAllocator makes a BuddyAllocator safe for concurrent use.
//
// One mutex guards the whole allocator for the duration of every call:
// splitting and coalescing touch several orders at once, so locking per
// order would not keep the blocks consistent.
type SyncAllocator struct {
	mu sync.Mutex
	a  *BuddyAllocator
}

// NewSyncAllocator wraps a. a must not be used directly afterwards.
func NewSyncAllocator(a *BuddyAllocator) *SyncAllocator {
	return &SyncAllocator{a: a}
}

// Allocate is the concurrency-safe version of BuddyAllocator.Allocate.
func (s *SyncAllocator) Allocate(size int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(size)
}

// Release is the concurrency-safe version of BuddyAllocator.Release.
func (s *SyncAllocator) Release(p int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Release(p)
}

// Alloc is the concurrency-safe version of BuddyAllocator.Alloc.
func (s *SyncAllocator) Alloc(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size)
}

// Free is the concurrency-safe version of BuddyAllocator.Free.
func (s *SyncAllocator) Free(block []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Free(block)
}

// Payload is the concurrency-safe version of BuddyAllocator.Payload.
// The lock only covers the lookup; the returned bytes belong to the caller
// until it releases p.
func (s *SyncAllocator) Payload(p int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Payload(p)
}

// Available is the concurrency-safe version of BuddyAllocator.Available.
func (s *SyncAllocator) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Available()
}

// Stats is the concurrency-safe version of BuddyAllocator.Stats.
func (s *SyncAllocator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

// Check runs BuddyAllocator.Check under the lock.
func (s *SyncAllocator) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Check()
}
