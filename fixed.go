package biff

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// sizeCache avoids the cost of reflection in `binary.Size` on every call.
var sizeCache = xsync.NewMap[reflect.Type, int]()

// FixedRecord is a record whose body is a struct of fixed-size fields, such
// as BOF, CODEPAGE or EOF. It needs no Store: the body is encoded with
// encoding/binary straight into the destination.
//
// Constraint: Body MUST NOT contain variable-size fields like slices, maps or
// strings, as this will cause `binary.Size` to fail.
type FixedRecord[Body any] struct {
	Type uint16
	Body Body
}

var (
	_ Codec       = (*FixedRecord[EOF])(nil)
	_ Unmarshaler = (*FixedRecord[EOF])(nil)
)

// NewFixedRecord pairs a body with its record type.
func NewFixedRecord[Body any](typ uint16, body Body) *FixedRecord[Body] {
	return &FixedRecord[Body]{Type: typ, Body: body}
}

// BodyLen returns the encoded size of the body. The result is cached per type.
func (c *FixedRecord[Body]) BodyLen() int {
	bodyType := reflect.TypeOf((*Body)(nil)).Elem()
	size, _ := sizeCache.LoadOrCompute(bodyType, func() (int, bool) {
		return binary.Size(&c.Body), false
	})
	return size
}

// Len returns the size of the header and body.
func (c *FixedRecord[Body]) Len() int { return RecordHeaderSize + c.BodyLen() }

func (c *FixedRecord[Body]) header() (hdr [RecordHeaderSize]byte) {
	Order.PutUint16(hdr[0:], c.Type)
	Order.PutUint16(hdr[2:], uint16(c.BodyLen()))
	return hdr
}

// WriteTo implements `io.WriterTo`.
func (c *FixedRecord[Body]) WriteTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, ErrWriteToNil
	}
	hdr := c.header()
	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	if c.BodyLen() == 0 {
		return int64(n), nil
	}
	if err := binary.Write(w, Order, &c.Body); err != nil {
		return int64(n), err
	}
	return int64(c.Len()), nil
}

// MarshalTo encodes the record into p without allocating.
func (c *FixedRecord[Body]) MarshalTo(p []byte) (int, error) {
	if len(p) < c.Len() {
		return 0, io.ErrShortWrite
	}
	hdr := c.header()
	copy(p, hdr[:])
	n, err := binary.Encode(p[RecordHeaderSize:], Order, &c.Body)
	if err != nil {
		return RecordHeaderSize + n, io.ErrShortWrite // binary.Encode only fails on a short buffer here
	}
	return RecordHeaderSize + n, nil
}

// MarshalBinary implements `encoding.BinaryMarshaler`.
// Note: This method allocates. Prefer `MarshalTo` or `WriteTo` on hot paths.
func (c *FixedRecord[Body]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, c.Len())
	if _, err := c.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary decodes a complete record, header included. Bytes past the
// body must be zero.
func (c *FixedRecord[Body]) UnmarshalBinary(data []byte) error {
	if len(data) < RecordHeaderSize {
		return fmt.Errorf("%w: record header", ErrTruncatedData)
	}
	typ, size := Order.Uint16(data[0:]), int(Order.Uint16(data[2:]))
	if size < c.BodyLen() {
		return fmt.Errorf("%w: %s body is %d bytes, want %d", ErrTruncatedData, RecordName(typ), size, c.BodyLen())
	}
	body := data[RecordHeaderSize:]
	if len(body) < size {
		return fmt.Errorf("%w: %s declares %d body bytes, %d present", ErrTruncatedData, RecordName(typ), size, len(body))
	}
	n, err := binary.Decode(body, Order, &c.Body)
	if err != nil {
		return ErrTruncatedData // binary.Decode only fails on a short buffer here
	}
	c.Type = typ
	if len(body) > n {
		return CheckBufferNotZeros(body[n:])
	}
	return nil
}

// ReadFrom reads one record from r. A body longer than Body is skipped.
func (c *FixedRecord[Body]) ReadFrom(r io.Reader) (int64, error) {
	var hdr [RecordHeaderSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		return int64(n), err
	}
	typ, size := Order.Uint16(hdr[0:]), int64(Order.Uint16(hdr[2:]))
	want := int64(c.BodyLen())
	if size < want {
		return int64(n), fmt.Errorf("%w: %s body is %d bytes, want %d", ErrTruncatedData, RecordName(typ), size, want)
	}
	if err := binary.Read(r, Order, &c.Body); err != nil {
		return int64(n), err
	}
	c.Type = typ
	read := int64(n) + want
	skipped, err := Discard(r, size-want)
	return read + skipped, err
}

// Record encodes c into a Buffer drawn from store.
func (c *FixedRecord[Body]) Record(store *Store) (*Record, error) {
	rec, err := NewRecord(store, c.Type)
	if err != nil {
		return nil, err
	}
	if err := binary.Write(rec, Order, &c.Body); err != nil {
		rec.Close()
		return nil, fmt.Errorf("record %s: %w", RecordName(c.Type), err)
	}
	if err := rec.Finish(); err != nil {
		rec.Close()
		return nil, err
	}
	return rec, nil
}

// BOF substream types.
const (
	BOFWorkbookGlobals uint16 = 0x0005
	BOFWorksheet       uint16 = 0x0010
)

// BIFF8 is the version number carried by BOF records.
const BIFF8 uint16 = 0x0600

// BOF8 is the body of a BIFF8 beginning-of-file record.
type BOF8 struct {
	Version       uint16
	Type          uint16
	Build         uint16
	Year          uint16
	History       uint32
	LowestVersion uint32
}

// NewBOF returns the BOF record opening a substream of the given type.
func NewBOF(substream uint16) *FixedRecord[BOF8] {
	return NewFixedRecord(RecBOF, BOF8{
		Version:       BIFF8,
		Type:          substream,
		Build:         0x0DBB,
		Year:          0x07CC,
		LowestVersion: 0x0006,
	})
}

// Codepage is the body of a CODEPAGE record.
type Codepage struct {
	CodePage uint16
}

// UTF16CodePage marks a workbook whose strings are stored as UTF-16.
const UTF16CodePage uint16 = 1200

func NewCodepage(cp uint16) *FixedRecord[Codepage] {
	return NewFixedRecord(RecCodepage, Codepage{CodePage: cp})
}

// EOF is the empty body of an end-of-file record.
type EOF struct{}

func NewEOF() *FixedRecord[EOF] { return NewFixedRecord(RecEOF, EOF{}) }
