package malloc

// insert pushes the free block at off onto the head of its order's list.
func (a *BuddyAllocator) insert(off int) {
	k := a.orderForBlock(off)
	head := a.freeLists[k]
	a.setNext(off, head)
	a.setPrev(off, nilOffset)
	if head != nilOffset {
		a.setPrev(head, off)
	}
	a.freeLists[k] = off
}

// eject unlinks the block at off from its order's list and clears its links.
// The block's size must not change while it is linked.
func (a *BuddyAllocator) eject(off int) {
	k := a.orderForBlock(off)
	prev, next := a.prev(off), a.next(off)
	if next != nilOffset {
		a.setPrev(next, prev)
	}
	if prev == nilOffset {
		if a.freeLists[k] == off {
			a.freeLists[k] = next
		}
	} else {
		a.setNext(prev, next)
	}
	a.setNext(off, nilOffset)
	a.setPrev(off, nilOffset)
}

func (a *BuddyAllocator) hasFree(order int) bool {
	return a.freeLists[order] != nilOffset
}

// firstNonEmptyAtOrAbove returns the lowest order >= order with a free block, or -1.
func (a *BuddyAllocator) firstNonEmptyAtOrAbove(order int) int {
	for k := order; k <= a.upperK; k++ {
		if a.hasFree(k) {
			return k
		}
	}
	return -1
}

// pickLowestAddress returns the free block of the given order with the
// lowest offset, or -1 if the list is empty. Lists are not kept sorted,
// so this walks the whole list.
func (a *BuddyAllocator) pickLowestAddress(order int) int {
	lowest := a.freeLists[order]
	if lowest == nilOffset {
		return -1
	}
	for off := a.next(lowest); off != nilOffset; off = a.next(off) {
		if off < lowest {
			lowest = off
		}
	}
	return lowest
}
