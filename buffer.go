package biff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/constraints"
)

// Buffer is a growable byte buffer backed by one slot of a Store. It is the
// unit every record body is assembled in: typed little-endian appends,
// in-place patches of bytes already written, and the string layouts in
// unicode.go.
//
// A Buffer acquires its slot lazily on the first write and gives it back on
// Close. Growth is exact-fit: capacity is raised to precisely what the pending
// write needs.
//
// Composite writes (multi-byte integers, strings) are not rolled back when
// they fail halfway. A Buffer that returned an error from a write should be
// discarded rather than retried.
type Buffer struct {
	store  *Store
	slot   *Slot
	index  int
	gen    uint64
	closed bool
}

var (
	_ io.Writer     = (*Buffer)(nil)
	_ io.ByteWriter = (*Buffer)(nil)
	_ io.WriterTo   = (*Buffer)(nil)
)

// NewBuffer returns an empty buffer drawing from store. With a nil store the
// buffer gets a private one.
func NewBuffer(store *Store) *Buffer {
	if store == nil {
		store = NewStore(nil)
	}
	return &Buffer{store: store, index: -1}
}

// NewBufferSize returns a buffer already bound to a slot of the given capacity.
func NewBufferSize(store *Store, capacity int) (*Buffer, error) {
	b := NewBuffer(store)
	if err := b.bind(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

// Store returns the store the buffer draws from.
func (b *Buffer) Store() *Store { return b.store }

// Index returns the slot index and whether the buffer is bound.
func (b *Buffer) Index() (int, bool) { return b.index, b.slot != nil }

// Size returns the capacity; zero when unbound.
func (b *Buffer) Size() int {
	slot, err := b.bound()
	if err != nil {
		return 0
	}
	return slot.Size()
}

// DataSize returns the logical length; zero when unbound.
func (b *Buffer) DataSize() int {
	slot, err := b.bound()
	if err != nil {
		return 0
	}
	return slot.DataSize()
}

// Len returns the encoded size of the buffer, i.e. its logical length.
func (b *Buffer) Len() int { return b.DataSize() }

// Bytes returns the logical content. The slice aliases the slot and is valid
// until the next mutation.
func (b *Buffer) Bytes() []byte {
	slot, err := b.bound()
	if err != nil {
		return nil
	}
	return slot.buf[:slot.size:slot.size]
}

// MakeSticky exempts the buffer's slot from Store.Reset, so its index stays
// valid while a backpatch is pending.
func (b *Buffer) MakeSticky() error {
	if _, err := b.bound(); err != nil {
		return err
	}
	return b.store.MakeSticky(b.index)
}

// Inflate raises the capacity to newSize, binding a slot of exactly that size
// when the buffer has none. It fails without side effects when the store
// cannot provide the memory.
func (b *Buffer) Inflate(newSize int) error {
	if b.closed {
		return ErrClosed
	}
	if newSize <= 0 {
		return fmt.Errorf("%w: inflate to %d", ErrInvalidArgument, newSize)
	}
	if b.slot == nil {
		return b.bind(newSize)
	}
	slot, err := b.bound()
	if err != nil {
		return err
	}
	return slot.Resize(newSize)
}

// --- Appends ---

func (b *Buffer) AppendUint8(v uint8) error {
	slot, err := b.reserve(1)
	if err != nil {
		return err
	}
	slot.buf[slot.size] = v
	slot.size++
	return nil
}

func (b *Buffer) AppendUint16(v uint16) error { return appendLE(b, v, 2) }
func (b *Buffer) AppendUint32(v uint32) error { return appendLE(b, v, 4) }
func (b *Buffer) AppendUint64(v uint64) error { return appendLE(b, v, 8) }

// AppendFloat64 appends the IEEE 754 bit pattern of v in the platform's native
// byte order. On little-endian hosts this matches the rest of the format.
func (b *Buffer) AppendFloat64(v float64) error {
	var raw [8]byte
	binary.NativeEndian.PutUint64(raw[:], math.Float64bits(v))
	var first error
	for _, c := range raw {
		if err := b.AppendUint8(c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// appendLE appends the low width bytes of v, least significant first, one
// byte at a time. Every byte is attempted; the first failure is returned.
func appendLE[T constraints.Unsigned](b *Buffer, v T, width int) error {
	var first error
	for i := 0; i < width; i++ {
		if err := b.AppendUint8(byteAt(v, i)); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AppendBuffer appends the first count bytes of src. A nil src is only
// accepted with a zero count.
func (b *Buffer) AppendBuffer(src []byte, count int) error {
	if count < 0 || (src == nil && count != 0) || count > len(src) {
		return fmt.Errorf("%w: append %d bytes from a %d byte source", ErrInvalidArgument, count, len(src))
	}
	if count == 0 {
		return nil
	}
	// src may alias this buffer (self-append). If reserve reallocates, src
	// keeps pointing at the old array; otherwise copy handles the overlap.
	slot, err := b.reserve(count)
	if err != nil {
		return err
	}
	slot.size += copy(slot.buf[slot.size:], src[:count])
	return nil
}

// AppendFill appends count copies of v.
func (b *Buffer) AppendFill(v byte, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: fill count %d", ErrInvalidArgument, count)
	}
	if count == 0 {
		return nil
	}
	slot, err := b.reserve(count)
	if err != nil {
		return err
	}
	fill := slot.buf[slot.size : slot.size+count]
	for i := range fill {
		fill[i] = v
	}
	slot.size += count
	return nil
}

// Append appends the logical content of other. other may be b itself.
func (b *Buffer) Append(other *Buffer) error {
	if other == nil {
		return fmt.Errorf("%w: append nil buffer", ErrInvalidArgument)
	}
	src := other.Bytes()
	return b.AppendBuffer(src, len(src))
}

// RemoveTrailData extends the logical length by extra zero bytes.
//
// Despite the name nothing is removed; the effect is trailing zero padding.
func (b *Buffer) RemoveTrailData(extra int) error {
	if extra < 0 {
		return fmt.Errorf("%w: trail size %d", ErrInvalidArgument, extra)
	}
	if extra == 0 {
		return nil
	}
	slot, err := b.reserve(extra)
	if err != nil {
		return err
	}
	clear(slot.buf[slot.size : slot.size+extra])
	slot.size += extra
	return nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.AppendBuffer(p, len(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error { return b.AppendUint8(c) }

// WriteTo implements io.WriterTo, writing the logical content to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, ErrWriteToNil
	}
	n, err := w.Write(b.Bytes())
	if n < 0 {
		return 0, ErrInvalidWrite
	}
	if err == nil && n < b.DataSize() {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// --- Patches ---

// SetByteAt overwrites one byte already written. It never grows the buffer.
func (b *Buffer) SetByteAt(v byte, pos int) error {
	slot, err := b.bound()
	if err != nil {
		return err
	}
	if pos < 0 || pos >= slot.size {
		return fmt.Errorf("%w: set byte at %d, length %d", ErrOutOfBounds, pos, slot.size)
	}
	slot.buf[pos] = v
	return nil
}

// SetUint16At patches a little-endian uint16 at pos, typically a length
// field reserved before the body was known.
func (b *Buffer) SetUint16At(v uint16, pos int) error { return setLE(b, v, 2, pos) }

// SetUint32At patches a little-endian uint32 at pos.
func (b *Buffer) SetUint32At(v uint32, pos int) error { return setLE(b, v, 4, pos) }

func setLE[T constraints.Unsigned](b *Buffer, v T, width, pos int) error {
	var first error
	for i := 0; i < width; i++ {
		if err := b.SetByteAt(byteAt(v, i), pos+i); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SetArrayAt writes p starting at pos, growing the capacity when needed. The
// logical length is extended to cover the written range; a gap between the
// old length and pos reads as zeros.
func (b *Buffer) SetArrayAt(p []byte, pos int) error {
	if pos < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidArgument, pos)
	}
	if len(p) == 0 {
		return nil
	}
	end := pos + len(p)
	if end > b.Size() {
		if err := b.Inflate(end); err != nil {
			return err
		}
	}
	slot, err := b.bound()
	if err != nil {
		return err
	}
	if pos > slot.size {
		clear(slot.buf[slot.size:pos])
	}
	copy(slot.buf[pos:end], p)
	if end > slot.size {
		slot.size = end
	}
	return nil
}

// --- Reads ---

// At returns the byte at pos. The buffer must be bound and pos below
// DataSize; ByteAt is the checked form. A violation panics under the
// biffdebug tag and reads as 0 otherwise.
func (b *Buffer) At(pos int) byte {
	ok := b.slot != nil && b.slot.inUse && b.slot.gen == b.gen && pos >= 0 && pos < b.slot.size
	if !ok {
		_ = invariant(false, "read at %d past length %d", pos, b.DataSize())
		return 0
	}
	return b.slot.buf[pos]
}

// ByteAt returns the byte at pos.
func (b *Buffer) ByteAt(pos int) (byte, error) {
	if err := b.checkRead(pos, 1); err != nil {
		return 0, err
	}
	return b.At(pos), nil
}

// Uint16At decodes a little-endian uint16 at pos.
func (b *Buffer) Uint16At(pos int) (uint16, error) {
	if err := b.checkRead(pos, 2); err != nil {
		return 0, err
	}
	return uint16(b.At(pos)) | uint16(b.At(pos+1))<<8, nil
}

// Uint32At decodes a little-endian uint32 at pos.
func (b *Buffer) Uint32At(pos int) (uint32, error) {
	if err := b.checkRead(pos, 4); err != nil {
		return 0, err
	}
	return uint32(b.At(pos)) |
		uint32(b.At(pos+1))<<8 |
		uint32(b.At(pos+2))<<16 |
		uint32(b.At(pos+3))<<24, nil
}

func (b *Buffer) checkRead(pos, width int) error {
	slot, err := b.bound()
	if err != nil {
		return err
	}
	if pos < 0 || pos+width > slot.size {
		return fmt.Errorf("%w: read %d bytes at %d, length %d", ErrOutOfBounds, width, pos, slot.size)
	}
	return nil
}

// --- (Re)initialization and copies ---

// Init discards the current content and sets up a region of size bytes
// holding data (nil for zeros) with a logical length of dataSize.
func (b *Buffer) Init(data []byte, size, dataSize int) error {
	if b.slot == nil {
		if err := b.bind(0); err != nil {
			return err
		}
	}
	slot, err := b.bound()
	if err != nil {
		return err
	}
	return slot.Init(data, size, dataSize)
}

// InitFill discards the current content and fills size bytes with v.
func (b *Buffer) InitFill(v byte, size int) error {
	if b.slot == nil {
		if err := b.bind(0); err != nil {
			return err
		}
	}
	slot, err := b.bound()
	if err != nil {
		return err
	}
	return slot.InitWithValue(v, size)
}

// Clone returns a deep copy of the logical content in a fresh slot of the
// same store. A clone of an unbound buffer is unbound.
func (b *Buffer) Clone() (*Buffer, error) {
	if b.closed {
		return nil, ErrClosed
	}
	c := NewBuffer(b.store)
	if b.slot == nil {
		return c, nil
	}
	src := b.Bytes()
	if err := c.bind(len(src)); err != nil {
		return nil, err
	}
	c.slot.size = copy(c.slot.buf, src)
	return c, nil
}

// CopyFrom replaces the content of b with the logical content of src.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if src == b {
		return nil
	}
	if src == nil {
		return fmt.Errorf("%w: copy from nil buffer", ErrInvalidArgument)
	}
	data := src.Bytes()
	if b.slot == nil {
		if err := b.bind(len(data)); err != nil {
			return err
		}
	}
	slot, err := b.bound()
	if err != nil {
		return err
	}
	if err := slot.Resize(len(data)); err != nil {
		return err
	}
	slot.size = copy(slot.buf, data)
	return nil
}

// Reset gives the slot back to the store. The buffer stays usable and binds
// a new slot on its next write.
func (b *Buffer) Reset() {
	if b.slot != nil {
		if b.slot.inUse && b.slot.gen == b.gen {
			_ = b.store.Release(b.index)
		}
		b.slot = nil
		b.index = -1
	}
}

// Close releases the slot. Further use of the buffer fails with ErrClosed.
func (b *Buffer) Close() error {
	b.Reset()
	b.closed = true
	return nil
}

// --- internals ---

func (b *Buffer) bind(capacity int) error {
	if b.closed {
		return ErrClosed
	}
	if err := invariant(b.slot == nil, "bind on a bound buffer"); err != nil {
		return err
	}
	idx, err := b.store.RequestIndex(capacity)
	if err != nil {
		return err
	}
	slot, err := b.store.Slot(idx)
	if err != nil {
		return err
	}
	b.slot, b.index, b.gen = slot, idx, slot.gen
	return nil
}

// bound returns the slot owned by the buffer.
func (b *Buffer) bound() (*Slot, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if b.slot == nil {
		return nil, ErrUnbound
	}
	if !b.slot.inUse || b.slot.gen != b.gen {
		return nil, fmt.Errorf("%w: %d was reclaimed", ErrInvalidSlot, b.index)
	}
	if err := invariant(b.slot.size <= len(b.slot.buf), "data size %d exceeds capacity %d", b.slot.size, len(b.slot.buf)); err != nil {
		return nil, err
	}
	return b.slot, nil
}

// reserve makes room for n more bytes and returns the slot to write into.
func (b *Buffer) reserve(n int) (*Slot, error) {
	if b.slot == nil {
		if err := b.Inflate(n); err != nil {
			return nil, err
		}
		return b.bound()
	}
	slot, err := b.bound()
	if err != nil {
		return nil, err
	}
	if need := slot.size + n; need > len(slot.buf) {
		if err := slot.Resize(need); err != nil {
			return nil, err
		}
	}
	return slot, nil
}
