package malloc

import "fmt"

// split divides the free block at off into two free buddies one order below
// and returns the offset of the lower one, which is left at the list head.
func (a *BuddyAllocator) split(off int) int {
	k := a.orderForBlock(off)
	if k <= a.lowerK {
		panic(fmt.Errorf("%w: block at %d already has the minimal order %d", ErrInvalidSplit, off, a.lowerK))
	}
	a.eject(off)

	half := blockSize(k - 1)
	right := off + half
	a.writeHeader(off, k-1, false)
	a.writeHeader(right, k-1, false)
	a.insert(right)
	a.insert(off)

	if a.debug() {
		a.logger.Debug("split", "offset", off, "order", k, "right", right)
	}
	return off
}

// cascadeSplit takes the lowest free block of order from and splits its
// lower half down to order to. The returned block is still linked in the
// free list of order to. It returns -1 if from has no free block or the
// orders are out of range.
func (a *BuddyAllocator) cascadeSplit(from, to int) int {
	if from > a.upperK || to < a.lowerK || !a.hasFree(from) {
		return -1
	}
	off := a.pickLowestAddress(from)
	for k := from; k > to; k-- {
		off = a.split(off)
	}
	return off
}
