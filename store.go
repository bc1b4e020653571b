package biff

import (
	"fmt"
	"slices"
)

// StoreOptions bounds the memory a Store may hand out.
// The zero value places no limits.
type StoreOptions struct {
	// MaxSlots caps the number of slots ever created (in use or free).
	MaxSlots int
	// MaxBytes caps the sum of the capacities of all in-use slots.
	MaxBytes int
}

// StoreStats is a point-in-time summary of a Store.
type StoreStats struct {
	Slots  int // slots created so far
	InUse  int // slots currently owned by a buffer
	Sticky int // in-use slots exempt from Reset
	Free   int // released slots awaiting reuse
	Bytes  int // sum of in-use slot capacities
}

// Store is an arena of growable byte regions ("slots") identified by integer
// indices. Many buffers share one Store; a slot belongs to at most one buffer
// at a time. A released slot keeps its backing array so the next request can
// reuse it without allocating.
//
// A Store is not safe for concurrent use. Callers that build records from
// several goroutines must serialize access to a Store and its buffers.
type Store struct {
	slots []*Slot
	free  []int
	bytes int
	opts  StoreOptions
}

// NewStore creates an empty Store. A nil options value means no limits.
func NewStore(options *StoreOptions) *Store {
	if options == nil {
		options = &StoreOptions{}
	}
	return &Store{opts: *options}
}

// WithMaxBytes sets the byte budget and returns the store for chaining.
func (s *Store) WithMaxBytes(n int) *Store {
	s.opts.MaxBytes = n
	return s
}

// WithMaxSlots sets the slot limit and returns the store for chaining.
func (s *Store) WithMaxSlots(n int) *Store {
	s.opts.MaxSlots = n
	return s
}

// RequestIndex hands out a slot with a capacity of exactly minCap bytes and no
// data. Released slots are reused before new ones are created.
func (s *Store) RequestIndex(minCap int) (int, error) {
	if minCap < 0 {
		return -1, fmt.Errorf("%w: negative capacity %d", ErrInvalidArgument, minCap)
	}
	if err := s.charge(minCap); err != nil {
		return -1, err
	}

	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		if s.opts.MaxSlots > 0 && len(s.slots) >= s.opts.MaxSlots {
			return -1, fmt.Errorf("%w: all %d slots in use", ErrStoreExhausted, s.opts.MaxSlots)
		}
		idx = len(s.slots)
		s.slots = append(s.slots, &Slot{store: s})
	}

	slot := s.slots[idx]
	slot.inUse = true
	slot.setCapacity(minCap)
	s.bytes += minCap
	return idx, nil
}

// Slot returns the in-use slot at idx.
func (s *Store) Slot(idx int) (*Slot, error) {
	if idx < 0 || idx >= len(s.slots) || !s.slots[idx].inUse {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, idx)
	}
	return s.slots[idx], nil
}

// MakeSticky exempts the slot at idx from Reset.
func (s *Store) MakeSticky(idx int) error {
	slot, err := s.Slot(idx)
	if err != nil {
		return err
	}
	slot.sticky = true
	return nil
}

// Release returns the slot at idx to the free list. Its sticky mark, if any,
// is cleared: the owner is giving the index up.
func (s *Store) Release(idx int) error {
	slot, err := s.Slot(idx)
	if err != nil {
		return err
	}
	slot.Reset()
	slot.sticky = false
	slot.inUse = false
	slot.gen++
	s.free = append(s.free, idx)
	return nil
}

// Reset reclaims every in-use slot that is not sticky. Buffers still holding a
// reclaimed index will fail with ErrInvalidSlot on their next access.
func (s *Store) Reset() {
	for idx, slot := range s.slots {
		if slot.inUse && !slot.sticky {
			_ = s.Release(idx)
		}
	}
}

// Stats reports the current usage of the store.
func (s *Store) Stats() StoreStats {
	st := StoreStats{Slots: len(s.slots), Free: len(s.free), Bytes: s.bytes}
	for _, slot := range s.slots {
		if slot.inUse {
			st.InUse++
			if slot.sticky {
				st.Sticky++
			}
		}
	}
	return st
}

// charge checks that n more bytes fit the budget without recording them.
func (s *Store) charge(n int) error {
	if s.opts.MaxBytes > 0 && s.bytes+n > s.opts.MaxBytes {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrStoreExhausted, n, s.bytes, s.opts.MaxBytes)
	}
	return nil
}

// Slot is one growable byte region of a Store. Its capacity (Size) and its
// logical length (DataSize) are tracked separately; DataSize never exceeds Size.
type Slot struct {
	store  *Store
	buf    []byte // len(buf) is the capacity reported by Size
	size   int
	sticky bool
	inUse  bool
	gen    uint64 // bumped on every release
}

// Size returns the capacity of the slot.
func (s *Slot) Size() int { return len(s.buf) }

// DataSize returns the logical length of the slot.
func (s *Slot) DataSize() int { return s.size }

// IsSticky reports whether the slot survives Store.Reset.
func (s *Slot) IsSticky() bool { return s.sticky }

// Buffer returns the whole capacity of the slot. Bytes past DataSize are
// scratch space for the owner.
func (s *Slot) Buffer() []byte { return s.buf }

// SetDataSize sets the logical length.
func (s *Slot) SetDataSize(n int) error {
	if n < 0 || n > len(s.buf) {
		return fmt.Errorf("%w: data size %d, capacity %d", ErrOutOfBounds, n, len(s.buf))
	}
	s.size = n
	return nil
}

// Resize grows the capacity to exactly n bytes. Requests at or below the
// current capacity leave the slot unchanged; capacity never shrinks.
func (s *Slot) Resize(n int) error {
	if n <= len(s.buf) {
		return nil
	}
	delta := n - len(s.buf)
	if err := s.store.charge(delta); err != nil {
		return err
	}
	s.setCapacity(n)
	s.store.bytes += delta
	return nil
}

// Reset discards the content and capacity of the slot. The backing array is
// kept for reuse.
func (s *Slot) Reset() {
	s.store.bytes -= len(s.buf)
	s.buf = s.buf[:0]
	s.size = 0
}

// Init replaces the slot content with a region of size bytes, copies data
// into it (which may be nil, or a view of the slot itself) and sets the
// logical length to dataSize.
func (s *Slot) Init(data []byte, size, dataSize int) error {
	if size < 0 || dataSize < 0 || dataSize > size || len(data) > size {
		return fmt.Errorf("%w: init with %d bytes, size %d, data size %d", ErrInvalidArgument, len(data), size, dataSize)
	}
	if len(data) > 0 && cap(s.buf) > 0 {
		// Reset and setCapacity clear the backing array data may point into.
		data = slices.Clone(data)
	}
	s.Reset()
	if err := s.Resize(size); err != nil {
		return err
	}
	copy(s.buf, data)
	s.size = dataSize
	return nil
}

// InitWithValue replaces the slot content with size copies of v.
func (s *Slot) InitWithValue(v byte, size int) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
	}
	s.Reset()
	if err := s.Resize(size); err != nil {
		return err
	}
	for i := range s.buf {
		s.buf[i] = v
	}
	s.size = size
	return nil
}

// setCapacity extends buf to n bytes, zeroing the new region. The backing
// array grows the way append does, so repeated small resizes stay amortized
// even though the reported capacity is exact.
func (s *Slot) setCapacity(n int) {
	old := len(s.buf)
	if n <= old {
		return
	}
	s.buf = slices.Grow(s.buf, n-old)[:n]
	clear(s.buf[old:])
}
