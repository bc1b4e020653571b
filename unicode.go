package biff

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// StringLayout selects one of the on-disk string encodings. Each record type
// that carries text uses exactly one of them.
type StringLayout uint8

const (
	// Len1NoFlags: 1-byte length, 8-bit characters only. FONT names.
	Len1NoFlags StringLayout = iota
	// Len2Flags: 2-byte length, option flags byte. FORMAT, LABEL.
	Len2Flags
	// Len2NoFlagsPadded: 2-byte length, no flags byte, optional pad byte before
	// 8-bit text. TXO (cell notes).
	Len2NoFlagsPadded
	// Len1Flags: 1-byte length, option flags byte. BOUNDSHEET.
	Len1Flags
	// NoLenFlags: option flags byte only; the length travels elsewhere. NAME.
	NoLenFlags
)

// Option flag values written by the flagged layouts.
const (
	FlagCompressed byte = 0x00 // one byte per character
	FlagWide       byte = 0x01 // two bytes per character, little-endian
)

// paddedAlignment is the unit the Len2NoFlagsPadded layout aligns 8-bit text to.
//
// TODO: TXO text is documented as word aligned (2); switch once a reader that
// depends on the pad byte is found. At 1 no pad byte is ever written.
const paddedAlignment = 1

var layoutNames = [...]string{
	Len1NoFlags:       "len1-noflags",
	Len2Flags:         "len2-flags",
	Len2NoFlagsPadded: "len2-noflags-padded",
	Len1Flags:         "len1-flags",
	NoLenFlags:        "nolen-flags",
}

func (l StringLayout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("StringLayout(%d)", uint8(l))
}

// ParseStringLayout returns the layout named by s, as printed by String.
func ParseStringLayout(s string) (StringLayout, error) {
	for i, name := range layoutNames {
		if name == s {
			return StringLayout(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLayout, s)
}

func (l StringLayout) valid() bool { return int(l) < len(layoutNames) }

// PrefixWidth is the size in bytes of the length field.
func (l StringLayout) PrefixWidth() int {
	switch l {
	case Len1NoFlags, Len1Flags:
		return 1
	case Len2Flags, Len2NoFlagsPadded:
		return 2
	}
	return 0
}

// HasFlags reports whether the layout writes an option flags byte.
func (l StringLayout) HasFlags() bool {
	return l == Len2Flags || l == Len1Flags || l == NoLenFlags
}

// MaxLen is the longest character count the length field can express.
func (l StringLayout) MaxLen() int {
	switch l.PrefixWidth() {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	}
	return 0xFFFF
}

func (l StringLayout) padding(count int, ascii bool) int {
	if l != Len2NoFlagsPadded || !ascii {
		return 0
	}
	return Roundup(count, paddedAlignment) - count
}

// EncodedSize returns the number of bytes a string of count characters takes
// in layout l.
func EncodedSize(count int, ascii bool, l StringLayout) (int, error) {
	if !l.valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLayout, uint8(l))
	}
	size := l.PrefixWidth() + l.padding(count, ascii)
	if l.HasFlags() {
		size++
	}
	if ascii || l == Len1NoFlags {
		return size + count, nil
	}
	return size + 2*count, nil
}

// IsASCII reports whether every code unit of s is below 0x80.
func IsASCII(s []uint16) bool {
	for _, c := range s {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// IsASCIIBytes reports whether every byte of s is below 0x80.
func IsASCIIBytes(s []byte) bool {
	for _, c := range s {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isASCIIString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// TextConverter converts between narrow (single-byte code page) text and
// UTF-16 code units. The charset package provides the default implementation.
type TextConverter interface {
	// NarrowToWide maps code-page bytes to UTF-16 code units.
	NarrowToWide(s []byte) ([]uint16, error)
	// WideToNarrow approximates s in the code page. Lossy: characters without
	// a mapping are transliterated or replaced.
	WideToNarrow(s []uint16) ([]byte, error)
}

// AppendWideString encodes UTF-16 text in layout l. Text made only of ASCII
// code units is written one byte per character with FlagCompressed; anything
// else is written as raw little-endian code units with FlagWide. The
// Len1NoFlags layout has no room for wide text, so non-ASCII input is
// transliterated through conv first.
func (b *Buffer) AppendWideString(conv TextConverter, s []uint16, l StringLayout) error {
	if !l.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLayout, uint8(l))
	}
	if len(s) > l.MaxLen() {
		return fmt.Errorf("%w: %d characters in %s", ErrStringTooLong, len(s), l)
	}
	ascii := IsASCII(s)

	if l == Len1NoFlags && !ascii {
		if conv == nil {
			return fmt.Errorf("%w: %s needs 8-bit text", ErrNoConverter, l)
		}
		narrow, err := conv.WideToNarrow(s)
		if err != nil {
			return err
		}
		if len(narrow) > l.MaxLen() {
			return fmt.Errorf("%w: %d characters in %s", ErrStringTooLong, len(narrow), l)
		}
		return b.appendString(l, len(narrow), true, func(dst []byte) { copy(dst, narrow) })
	}

	if ascii {
		return b.appendString(l, len(s), true, func(dst []byte) {
			for i, c := range s {
				dst[i] = byte(c)
			}
		})
	}
	return b.appendString(l, len(s), false, func(dst []byte) {
		for i, c := range s {
			dst[2*i] = byte(c)
			dst[2*i+1] = byte(c >> 8)
		}
	})
}

// AppendNarrowString encodes single-byte text in layout l. The input is
// expected to be ASCII; other text is widened through conv and encoded by
// AppendWideString. Under the biffdebug tag non-ASCII input panics.
func (b *Buffer) AppendNarrowString(conv TextConverter, s []byte, l StringLayout) error {
	if !IsASCIIBytes(s) {
		if debugAsserts {
			panic(fmt.Errorf("%w: narrow string %q is not ASCII", ErrInvariant, s))
		}
		if conv == nil {
			return fmt.Errorf("%w: narrow string is not ASCII", ErrNoConverter)
		}
		wide, err := conv.NarrowToWide(s)
		if err != nil {
			return err
		}
		return b.AppendWideString(conv, wide, l)
	}
	if !l.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLayout, uint8(l))
	}
	if len(s) > l.MaxLen() {
		return fmt.Errorf("%w: %d characters in %s", ErrStringTooLong, len(s), l)
	}
	return b.appendString(l, len(s), true, func(dst []byte) { copy(dst, s) })
}

// AppendString encodes a Go (UTF-8) string in layout l.
func (b *Buffer) AppendString(conv TextConverter, s string, l StringLayout) error {
	if isASCIIString(s) {
		if !l.valid() {
			return fmt.Errorf("%w: %d", ErrInvalidLayout, uint8(l))
		}
		if len(s) > l.MaxLen() {
			return fmt.Errorf("%w: %d characters in %s", ErrStringTooLong, len(s), l)
		}
		return b.appendString(l, len(s), true, func(dst []byte) { copy(dst, s) })
	}

	units := getUnits()
	defer putUnits(units)
	for _, r := range s {
		*units = utf16.AppendRune(*units, r)
	}
	return b.AppendWideString(conv, *units, l)
}

// appendString reserves the whole encoded string up front, so a failure
// leaves the buffer untouched, then writes prefix, flags, padding and payload.
func (b *Buffer) appendString(l StringLayout, count int, ascii bool, payload func(dst []byte)) error {
	size, err := EncodedSize(count, ascii, l)
	if err != nil {
		return err
	}
	slot, err := b.reserve(size)
	if err != nil {
		return err
	}
	dst := slot.buf[slot.size : slot.size+size]

	w := 0
	switch l.PrefixWidth() {
	case 1:
		dst[w] = byte(count)
		w++
	case 2:
		dst[w] = byte(count)
		dst[w+1] = byte(count >> 8)
		w += 2
	}
	if l.HasFlags() {
		if ascii {
			dst[w] = FlagCompressed
		} else {
			dst[w] = FlagWide
		}
		w++
	}
	for n := l.padding(count, ascii); n > 0; n-- {
		dst[w] = 0
		w++
	}
	payload(dst[w:])

	slot.size += size
	return nil
}
