package biff

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
)

// Zero is an io.Reader that reads an infinite stream of zero bytes.
var Zero io.Reader = zero{}

type zero struct{}

func (z zero) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type reader interface {
	io.Reader
	io.WriterTo
	io.Closer
}

type ReaderPro interface {
	reader
	io.ByteReader
	Size() int
}

// Reader provides a buffered reader for BIFF streams. It tracks the first
// error; subsequent reads become no-ops.
type Reader struct {
	r     ReaderPro
	count int64 // total bytes read
	err   error // first error encountered.
}

var _ ReaderPro = (*Reader)(nil)

// NewReaderSize creates a new Reader with a specified buffer size. A size of
// zero or less selects the default.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}

	switch reader := r.(type) {
	// Reuse the underlying buffer if it's already a compatible Reader.
	case *Reader:
		if reader.r.Size() >= size {
			return &Reader{r: reader.r}, nil
		}

	// prevent unpredictable double-buffering.
	case *bufio.Reader:
		if reader.Size() >= size {
			return &Reader{r: &bufioReaderAdapter{Reader: reader}}, nil
		}
		return nil, ErrAlreadyBuffered

	// underlying is a buf so we don't need buffering
	case *BytesReader:
		return &Reader{r: reader}, nil
	case *bytes.Reader:
		return &Reader{r: &bytesReaderAdapter{reader}}, nil
	case *bytes.Buffer:
		return &Reader{r: &bytesBufferReaderAdapter{Buffer: reader}}, nil
	}

	if size <= 0 {
		size = BUFFER_SIZE
	}
	return &Reader{r: &bufioReaderAdapter{Reader: bufio.NewReaderSize(r, size)}}, nil
}

// NewReader creates a new Reader with a default buffer size.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, 0)
}

// Close closes the underlying reader if it implements io.Closer.
func (r *Reader) Close() error {
	return r.r.Close()
}

// Read implements the io.Reader interface.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.setError(err)
	return n, r.err
}

// WriteTo implements io.WriterTo for efficient copying.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if w == nil {
		r.setError(ErrWriteToNil)
		return 0, r.err
	}

	n, err := r.r.WriteTo(w)
	r.count += n
	r.setError(err)
	return n, r.err
}

func (r *Reader) Size() int    { return r.r.Size() }
func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }
func (r *Reader) IsEOF() bool  { return r.err == io.EOF }

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Result returns the total bytes read and the final error state.
func (r *Reader) Result() (int64, error) {
	return r.count, r.err
}

// readFull is an internal helper to read an exact number of bytes.
func (r *Reader) readFull(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			// A partial read is different from a clean end-of-stream.
			r.err = io.ErrUnexpectedEOF
		} else {
			r.err = err
		}
		return nil
	}
	return buf
}

// ReadBytes reads n bytes and returns a new byte slice.
func (r *Reader) ReadBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	return r.readFull(n)
}

// Discard skips n bytes.
func (r *Reader) Discard(n int64) {
	if r.err != nil || n <= 0 {
		return
	}
	skipped, err := Discard(r.r, n)
	r.count += skipped
	r.setError(err)
}

// --- Primitive Read Operations ---

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	b, err := r.r.ReadByte()
	if err == nil {
		r.count++
	} else {
		r.err = err
	}
	return b, err
}

func (r *Reader) ReadUint8(dest *uint8) {
	if r.err != nil {
		return
	}
	b, err := r.r.ReadByte()
	if err == nil {
		r.count++
		*dest = b
	} else {
		r.err = err
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	buf := r.readFull(2)
	if r.err == nil {
		*dest = Order.Uint16(buf)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = Order.Uint32(buf)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	buf := r.readFull(8)
	if r.err == nil {
		*dest = Order.Uint64(buf)
	}
}

func (r *Reader) ReadFloat64(dest *float64) {
	var bits uint64
	r.ReadUint64(&bits)
	if r.err == nil {
		*dest = math.Float64frombits(bits)
	}
}

// --- Records ---

// ReadRecord reads the next record. At a clean end of stream the latched
// error is io.EOF; a stream that ends inside a record latches
// io.ErrUnexpectedEOF.
func (r *Reader) ReadRecord() (RecordHeader, []byte) {
	var h RecordHeader
	if r.err != nil {
		return h, nil
	}
	var hdr [RecordHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		r.err = err
		return h, nil
	}
	h.Type, h.Len = Order.Uint16(hdr[0:]), Order.Uint16(hdr[2:])
	body := r.ReadBytes(int(h.Len))
	if r.err != nil {
		return h, nil
	}
	if body == nil {
		body = []byte{}
	}
	return h, body
}

// EachRecord calls fn for every record until the end of the stream. It stops
// at the first error from fn or from the stream; a clean end is not an error.
func (r *Reader) EachRecord(fn func(RecordHeader, []byte) error) error {
	for {
		h, body := r.ReadRecord()
		if r.err != nil {
			if r.IsEOF() {
				return nil
			}
			return r.err
		}
		if err := fn(h, body); err != nil {
			return err
		}
	}
}

// ReadString decodes a string in layout l and returns its UTF-16 code units.
// count is only used by NoLenFlags, whose length is stored elsewhere.
//
// Compressed text is widened byte for byte. Len1NoFlags text is in the
// workbook code page and is widened through conv; a nil conv treats it as
// Latin-1. Len2NoFlagsPadded carries no flags byte and must be read with
// ReadPaddedString.
func (r *Reader) ReadString(conv TextConverter, l StringLayout, count int) []uint16 {
	if r.err != nil {
		return nil
	}
	if !l.valid() || l == Len2NoFlagsPadded {
		r.setError(fmt.Errorf("%w: cannot read %s without its encoding", ErrInvalidLayout, l))
		return nil
	}

	n := count
	switch l.PrefixWidth() {
	case 1:
		var v uint8
		r.ReadUint8(&v)
		n = int(v)
	case 2:
		var v uint16
		r.ReadUint16(&v)
		n = int(v)
	}
	if l == Len1NoFlags {
		raw := r.ReadBytes(n)
		if r.err != nil {
			return nil
		}
		if conv == nil || IsASCIIBytes(raw) {
			return widen(raw)
		}
		wide, err := conv.NarrowToWide(raw)
		r.setError(err)
		return wide
	}

	var flags uint8
	r.ReadUint8(&flags)
	if r.err != nil {
		return nil
	}
	switch flags {
	case FlagCompressed:
		return widen(r.ReadBytes(n))
	case FlagWide:
		return r.readUnits(n)
	}
	r.setError(fmt.Errorf("%w: unsupported string option flags 0x%02x", ErrInvalidArgument, flags))
	return nil
}

// ReadPaddedString decodes a Len2NoFlagsPadded string. The layout has no
// flags byte, so the caller states whether the text is wide.
func (r *Reader) ReadPaddedString(wide bool) []uint16 {
	var n uint16
	r.ReadUint16(&n)
	if r.err != nil {
		return nil
	}
	if wide {
		return r.readUnits(int(n))
	}
	r.Discard(int64(Len2NoFlagsPadded.padding(int(n), true)))
	return widen(r.ReadBytes(int(n)))
}

func (r *Reader) readUnits(n int) []uint16 {
	raw := r.ReadBytes(2 * n)
	if r.err != nil {
		return nil
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = Order.Uint16(raw[2*i:])
	}
	return units
}

func widen(p []byte) []uint16 {
	units := make([]uint16, len(p))
	for i, c := range p {
		units[i] = uint16(c)
	}
	return units
}
