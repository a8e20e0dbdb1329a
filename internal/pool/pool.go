// Package pool implements the page-allocated instance pool from spec §4.E:
// pages of fixed size never freed mid-run, doubly-linked active and free
// lists for O(1) insertion/removal from any position.
//
// Grounded on the teacher's internal/streaming/render_pool.go (pool
// construction and growth bookkeeping) and internal/streaming/frame_buffer.go
// (pre-allocate once, never shrink), reshaped per spec §9 from a worker pool
// / ring buffer into an intrusive doubly-linked free/active list over
// page-indexed slots.
package pool

import "soundengine/internal/instance"

// DefaultPageSize is the number of slots appended each time the pool grows
// when New is given a non-positive page size.
const DefaultPageSize = 1024

// link holds the intrusive doubly-linked list pointers for one slot. A
// slot is always in exactly one list: the active list or the free list
// (spec §3 invariant), addressed by slot index; -1 means "no neighbor".
type link struct {
	prev, next int32
}

const nilIdx int32 = -1

// Pool owns every sound instance slot for the engine's lifetime. Slots are
// reused but never returned to the system allocator (spec §5 resource
// ownership).
type Pool struct {
	pageSize int
	slots    []*instance.Instance
	links    []link

	freeHead   int32
	activeHead int32
	activeLen  int
}

// New creates an empty pool with the given page size (DefaultPageSize if
// non-positive).
func New(pageSize int) *Pool {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	p := &Pool{
		pageSize:   pageSize,
		freeHead:   nilIdx,
		activeHead: nilIdx,
	}
	p.growPage()
	return p
}

// growPage appends one page of pageSize fresh slots to the free list. Pool
// growth never fails (spec §4.H: "growth never returns failure").
func (p *Pool) growPage() {
	start := int32(len(p.slots))
	for i := 0; i < p.pageSize; i++ {
		idx := start + int32(i)
		p.slots = append(p.slots, &instance.Instance{})
		p.links = append(p.links, link{prev: nilIdx, next: nilIdx})
		p.pushFree(idx)
	}
}

func (p *Pool) pushFree(idx int32) {
	p.links[idx] = link{prev: nilIdx, next: p.freeHead}
	if p.freeHead != nilIdx {
		p.links[p.freeHead].prev = idx
	}
	p.freeHead = idx
}

// Acquire removes one slot from the free list (growing the pool first if
// it is empty) and links it into the active list. Returns the slot index
// and the instance pointer to fill in.
func (p *Pool) Acquire() (int32, *instance.Instance) {
	if p.freeHead == nilIdx {
		p.growPage()
	}
	idx := p.freeHead
	p.freeHead = p.links[idx].next
	if p.freeHead != nilIdx {
		p.links[p.freeHead].prev = nilIdx
	}

	p.links[idx] = link{prev: nilIdx, next: p.activeHead}
	if p.activeHead != nilIdx {
		p.links[p.activeHead].prev = idx
	}
	p.activeHead = idx
	p.activeLen++

	return idx, p.slots[idx]
}

// Release unlinks idx from the active list (from any position, O(1)) and
// returns it to the free list.
func (p *Pool) Release(idx int32) {
	l := p.links[idx]
	if l.prev != nilIdx {
		p.links[l.prev].next = l.next
	} else {
		p.activeHead = l.next
	}
	if l.next != nilIdx {
		p.links[l.next].prev = l.prev
	}
	p.activeLen--

	p.slots[idx].Reset()
	p.pushFree(idx)
}

// ActiveLen returns the number of instances currently in the active list.
func (p *Pool) ActiveLen() int { return p.activeLen }

// PageCount returns the number of pages grown so far.
func (p *Pool) PageCount() int { return len(p.slots) / p.pageSize }

// Slot returns the instance at idx without regard to list membership.
func (p *Pool) Slot(idx int32) *instance.Instance { return p.slots[idx] }

// Walk calls fn once per active slot index, in current active-list order.
// fn may call Release on the slot it was passed (removal during a walk is
// the expected mixer-stop pattern, spec §4.H); Walk captures the next
// pointer before calling fn so that is safe.
func (p *Pool) Walk(fn func(idx int32, inst *instance.Instance)) {
	idx := p.activeHead
	for idx != nilIdx {
		next := p.links[idx].next
		fn(idx, p.slots[idx])
		idx = next
	}
}

// InActiveList reports whether idx currently sits in the active list; used
// by invariant checks and tests.
func (p *Pool) InActiveList(idx int32) bool {
	for i := p.activeHead; i != nilIdx; i = p.links[i].next {
		if i == idx {
			return true
		}
	}
	return false
}
