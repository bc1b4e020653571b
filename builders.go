package biff

import (
	"fmt"
	"unicode/utf16"
)

// buildRecord runs fill against a fresh record and finishes it. The record is
// released on any error.
func buildRecord(store *Store, typ uint16, fill func(r *Record) error) (*Record, error) {
	rec, err := NewRecord(store, typ)
	if err != nil {
		return nil, err
	}
	if err := fill(rec); err != nil {
		rec.Close()
		return nil, fmt.Errorf("record %s: %w", RecordName(typ), err)
	}
	if err := rec.Finish(); err != nil {
		rec.Close()
		return nil, err
	}
	return rec, nil
}

// appendAll runs appends in order and returns the first error.
func appendAll(appends ...func() error) error {
	for _, fn := range appends {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Font describes the fixed part of a FONT record.
type Font struct {
	Height    uint16 // in twips
	Options   uint16
	Color     uint16
	Weight    uint16
	Underline uint8
	Family    uint8
	Charset   uint8
}

// DefaultFont is Arial 10pt, the font every workbook starts with.
var DefaultFont = Font{Height: 200, Color: 0x7FFF, Weight: 400}

// NewFontRecord builds a FONT record. Font names are stored as 8-bit text;
// non-ASCII names are transliterated through conv.
func NewFontRecord(store *Store, conv TextConverter, f Font, name string) (*Record, error) {
	return buildRecord(store, RecFont, func(r *Record) error {
		return appendAll(
			func() error { return r.AppendUint16(f.Height) },
			func() error { return r.AppendUint16(f.Options) },
			func() error { return r.AppendUint16(f.Color) },
			func() error { return r.AppendUint16(f.Weight) },
			func() error { return r.AppendUint16(0) }, // escapement
			func() error { return r.AppendUint8(f.Underline) },
			func() error { return r.AppendUint8(f.Family) },
			func() error { return r.AppendUint8(f.Charset) },
			func() error { return r.AppendUint8(0) },
			func() error { return r.AppendString(conv, name, Len1NoFlags) },
		)
	})
}

// NewLabelRecord builds a LABEL record holding a text cell.
func NewLabelRecord(store *Store, conv TextConverter, row, col, xf uint16, text string) (*Record, error) {
	return buildRecord(store, RecLabel, func(r *Record) error {
		return appendAll(
			func() error { return r.AppendUint16(row) },
			func() error { return r.AppendUint16(col) },
			func() error { return r.AppendUint16(xf) },
			func() error { return r.AppendString(conv, text, Len2Flags) },
		)
	})
}

// BoundSheetOffsetPos is the position of the stream offset within a
// BOUNDSHEET record.
const BoundSheetOffsetPos = RecordHeaderSize

// NewBoundSheetRecord builds a BOUNDSHEET record. The sheet's stream offset is
// usually unknown at this point; write zero and patch it later with
// SetBoundSheetOffset. Mark the record sticky if the store is Reset in between.
func NewBoundSheetRecord(store *Store, conv TextConverter, offset uint32, name string) (*Record, error) {
	return buildRecord(store, RecBoundSheet, func(r *Record) error {
		return appendAll(
			func() error { return r.AppendUint32(offset) },
			func() error { return r.AppendUint8(0) }, // visible
			func() error { return r.AppendUint8(0) }, // worksheet
			func() error { return r.AppendString(conv, name, Len1Flags) },
		)
	})
}

// SetBoundSheetOffset patches the stream offset of a BOUNDSHEET record.
func SetBoundSheetOffset(r *Record, offset uint32) error {
	if r.Type() != RecBoundSheet {
		return fmt.Errorf("%w: %s is not a BOUNDSHEET record", ErrInvalidArgument, RecordName(r.Type()))
	}
	return r.SetUint32At(offset, BoundSheetOffsetPos)
}

// NewNameRecord builds a NAME record for a defined name. The name's length is
// stored in the fixed part, so the text itself uses NoLenFlags.
func NewNameRecord(store *Store, conv TextConverter, name string, sheet uint16, formula []byte) (*Record, error) {
	count := len(utf16.Encode([]rune(name)))
	if count > 0xFF {
		return nil, fmt.Errorf("record %s: %w: %d characters", RecordName(RecName), ErrStringTooLong, count)
	}
	if len(formula) > 0xFFFF {
		return nil, fmt.Errorf("record %s: %w: formula of %d bytes", RecordName(RecName), ErrInvalidArgument, len(formula))
	}
	return buildRecord(store, RecName, func(r *Record) error {
		return appendAll(
			func() error { return r.AppendUint16(0) }, // option flags
			func() error { return r.AppendUint8(0) },  // keyboard shortcut
			func() error { return r.AppendUint8(uint8(count)) },
			func() error { return r.AppendUint16(uint16(len(formula))) },
			func() error { return r.AppendUint16(0) },
			func() error { return r.AppendUint16(sheet) },
			func() error { return r.AppendFill(0, 4) }, // menu, description, help, status lengths
			func() error { return r.AppendString(conv, name, NoLenFlags) },
			func() error { return r.AppendBuffer(formula, len(formula)) },
		)
	})
}
