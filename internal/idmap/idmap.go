// Package idmap implements the fixed-capacity, open-addressed id -> slot
// map described in spec §4.B: power-of-two capacity, a Fibonacci-style
// multiplicative hash whose top log2(capacity) bits select the bucket,
// linear probing, and backshift removal. Key 0 is
// reserved as the empty sentinel (spec §3: id 0 is never issued).
//
// Callers are responsible for serializing access under the engine lock;
// this type has no internal synchronization, matching spec §4.B's
// "safe to call concurrently with the mixer only under the engine lock".
package idmap

// fibMultiplier is the 64-bit Fibonacci hashing constant (2^64 / golden
// ratio, odd).
const fibMultiplier = 0x9E3779B97F4A7C15

// Map is an open-addressed hash map from a non-zero uint64 id to a slot
// index. It grows (doubles capacity, rehashes) once the load factor would
// exceed 0.5 after an insert.
type Map struct {
	keys     []uint64
	slots    []int32
	count    int
	capacity int // always a power of two
}

// New creates a map with the given initial power-of-two capacity. Capacity
// is rounded up to the next power of two, minimum 16.
func New(initialCapacity int) *Map {
	cap := nextPow2(initialCapacity)
	if cap < 16 {
		cap = 16
	}
	return &Map{
		keys:     make([]uint64, cap),
		slots:    make([]int32, cap),
		capacity: cap,
	}
}

// Len returns the number of live entries.
func (m *Map) Len() int { return m.count }

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// hash mixes a 64-bit key down to a bucket index in [0, capacity) using
// Fibonacci (multiplicative) hashing on the top bits.
func (m *Map) hash(key uint64) int {
	h := key * fibMultiplier
	// Take the high bits, which mix best under multiplicative hashing, then
	// mask down to the power-of-two table size.
	shift := 64 - bitsLen(uint64(m.capacity)-1)
	return int((h >> uint(shift)) & uint64(m.capacity-1))
}

func bitsLen(n uint64) int {
	b := 0
	for n > 0 {
		b++
		n >>= 1
	}
	return b
}

// Insert adds key -> slot, growing the table first if the resulting load
// factor would exceed 0.5. Re-inserting an existing key overwrites its
// slot value.
func (m *Map) Insert(key uint64, slot int32) {
	if key == 0 {
		panic("idmap: key 0 is reserved")
	}
	if (m.count+1)*2 > m.capacity {
		m.grow()
	}
	m.insertNoGrow(key, slot)
}

func (m *Map) insertNoGrow(key uint64, slot int32) {
	idx := m.hash(key)
	for {
		if m.keys[idx] == 0 {
			m.keys[idx] = key
			m.slots[idx] = slot
			m.count++
			return
		}
		if m.keys[idx] == key {
			m.slots[idx] = slot
			return
		}
		idx = (idx + 1) & (m.capacity - 1)
	}
}

func (m *Map) grow() {
	oldKeys, oldSlots := m.keys, m.slots
	m.capacity *= 2
	m.keys = make([]uint64, m.capacity)
	m.slots = make([]int32, m.capacity)
	m.count = 0
	for i, k := range oldKeys {
		if k != 0 {
			m.insertNoGrow(k, oldSlots[i])
		}
	}
}

// Lookup returns the slot for key and true, or (0, false) if absent.
func (m *Map) Lookup(key uint64) (int32, bool) {
	if key == 0 {
		return 0, false
	}
	idx := m.hash(key)
	for {
		k := m.keys[idx]
		if k == 0 {
			return 0, false
		}
		if k == key {
			return m.slots[idx], true
		}
		idx = (idx + 1) & (m.capacity - 1)
	}
}

// Remove deletes key if present, backshifting the probe chain tail so
// subsequent lookups along the chain are not broken by the hole.
func (m *Map) Remove(key uint64) {
	if key == 0 {
		return
	}
	idx := m.hash(key)
	for {
		k := m.keys[idx]
		if k == 0 {
			return // not present
		}
		if k == key {
			break
		}
		idx = (idx + 1) & (m.capacity - 1)
	}

	// Standard backshift deletion for linear-probed open addressing.
	hole := idx
	next := (idx + 1) & (m.capacity - 1)
	for m.keys[next] != 0 {
		homeIdx := m.hash(m.keys[next])
		// Move the entry at `next` back into `hole` if its home bucket lies
		// at or before the hole in probe order (i.e. it can legally occupy
		// the hole without breaking its own lookup chain).
		if probeDistance(homeIdx, hole, m.capacity) <= probeDistance(homeIdx, next, m.capacity) {
			m.keys[hole] = m.keys[next]
			m.slots[hole] = m.slots[next]
			hole = next
		}
		next = (next + 1) & (m.capacity - 1)
	}
	m.keys[hole] = 0
	m.slots[hole] = 0
	m.count--
}

// probeDistance returns how many linear-probe steps from home to idx,
// wrapping around capacity.
func probeDistance(home, idx, capacity int) int {
	if idx >= home {
		return idx - home
	}
	return capacity - home + idx
}
