package biff

import (
	"fmt"
)

const (
	// RecordHeaderSize is the size of the type and length fields in front of
	// every record body.
	RecordHeaderSize = 4
	// MaxRecordBody is the longest body a BIFF8 record may carry; longer data
	// has to be split into CONTINUE records.
	MaxRecordBody = 8224
)

// Record type ids.
const (
	RecEOF        uint16 = 0x000A
	RecName       uint16 = 0x0018
	RecFont       uint16 = 0x0031
	RecContinue   uint16 = 0x003C
	RecCodepage   uint16 = 0x0042
	RecBoundSheet uint16 = 0x0085
	RecTxo        uint16 = 0x01B6
	RecLabel      uint16 = 0x0204
	RecFormat     uint16 = 0x041E
	RecBOF        uint16 = 0x0809
)

var recordNames = map[uint16]string{
	RecEOF:        "EOF",
	RecName:       "NAME",
	RecFont:       "FONT",
	RecContinue:   "CONTINUE",
	RecCodepage:   "CODEPAGE",
	RecBoundSheet: "BOUNDSHEET",
	RecTxo:        "TXO",
	RecLabel:      "LABEL",
	RecFormat:     "FORMAT",
	RecBOF:        "BOF",
}

// RecordName returns a readable name for a record type id.
func RecordName(typ uint16) string {
	if name, ok := recordNames[typ]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", typ)
}

// RecordHeader is the 4-byte prefix of every record.
type RecordHeader struct {
	Type uint16
	Len  uint16
}

func (h RecordHeader) String() string {
	return fmt.Sprintf("%s(%d)", RecordName(h.Type), h.Len)
}

// Record is a Buffer that starts with a record header. The length field is
// written as a placeholder by NewRecord and backpatched by Finish once the
// body is complete.
type Record struct {
	*Buffer
	typ uint16
}

var _ Codec = (*Record)(nil)

// NewRecord starts a record of type typ in a slot of store.
func NewRecord(store *Store, typ uint16) (*Record, error) {
	b, err := NewBufferSize(store, RecordHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", RecordName(typ), err)
	}
	if err := b.AppendUint16(typ); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.AppendUint16(0); err != nil {
		b.Close()
		return nil, err
	}
	return &Record{Buffer: b, typ: typ}, nil
}

func (r *Record) Type() uint16 { return r.typ }

// Body returns the bytes after the header.
func (r *Record) Body() []byte {
	p := r.Bytes()
	if len(p) < RecordHeaderSize {
		return nil
	}
	return p[RecordHeaderSize:]
}

// Finish backpatches the length field with the current body size.
func (r *Record) Finish() error {
	n := r.DataSize() - RecordHeaderSize
	if n < 0 {
		return fmt.Errorf("record %s: %w: header missing", RecordName(r.typ), ErrInvariant)
	}
	if n > MaxRecordBody {
		return fmt.Errorf("record %s: %w: %d bytes", RecordName(r.typ), ErrRecordTooLarge, n)
	}
	if err := r.SetUint16At(uint16(n), 2); err != nil {
		return fmt.Errorf("record %s: %w", RecordName(r.typ), err)
	}
	return nil
}

// Header decodes the header currently stored in the record.
func (r *Record) Header() (RecordHeader, error) {
	typ, err := r.Uint16At(0)
	if err != nil {
		return RecordHeader{}, err
	}
	n, err := r.Uint16At(2)
	if err != nil {
		return RecordHeader{}, err
	}
	return RecordHeader{Type: typ, Len: n}, nil
}

func (r *Record) MarshalBinary() ([]byte, error)   { return MarshalBinaryGeneric(r) }
func (r *Record) MarshalTo(p []byte) (int, error) { return MarshalToGeneric(r, p) }
