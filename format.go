package biff

import (
	"fmt"
	"slices"
	"sync/atomic"
	"unicode/utf16"

	"github.com/puzpuzpuz/xsync/v4"
)

// FormatNumber names one of the built-in number formats.
type FormatNumber int

const (
	FmtGeneral FormatNumber = iota
	FmtNumber1
	FmtNumber2
	FmtNumber3
	FmtNumber4
	FmtCurrency1
	FmtCurrency2
	FmtCurrency3
	FmtCurrency4
	FmtPercent1
	FmtPercent2
	FmtScientific1
	FmtFraction1
	FmtFraction2
	FmtDate1
	FmtDate2
	FmtDate3
	FmtDate4
	FmtHour1
	FmtHour2
	FmtHour3
	FmtHour4
	FmtHourDate
	FmtAccounting1
	FmtAccounting2
	FmtAccounting3
	FmtAccounting4
	FmtCurrency5
	FmtCurrency6
	FmtCurrency7
	FmtCurrency8
	FmtHour5
	FmtHour6
	FmtHour7
	FmtScientific2
	FmtText
)

// Built-in number format indices as stored in XF records. Indices 0x17-0x24
// are locale specific and have no FormatNumber.
const (
	FmtCodeGeneral     uint16 = 0x00
	FmtCodeNumber1     uint16 = 0x01 // 0
	FmtCodeNumber2     uint16 = 0x02 // 0.00
	FmtCodeNumber3     uint16 = 0x03 // #,##0
	FmtCodeNumber4     uint16 = 0x04 // #,##0.00
	FmtCodeCurrency1   uint16 = 0x05
	FmtCodeCurrency2   uint16 = 0x06
	FmtCodeCurrency3   uint16 = 0x07
	FmtCodeCurrency4   uint16 = 0x08
	FmtCodePercent1    uint16 = 0x09 // 0%
	FmtCodePercent2    uint16 = 0x0A // 0.00%
	FmtCodeScientific1 uint16 = 0x0B // 0.00E+00
	FmtCodeFraction1   uint16 = 0x0C // # ?/?
	FmtCodeFraction2   uint16 = 0x0D // # ??/??
	FmtCodeDate1       uint16 = 0x0E
	FmtCodeDate2       uint16 = 0x0F
	FmtCodeDate3       uint16 = 0x10
	FmtCodeDate4       uint16 = 0x11
	FmtCodeHour1       uint16 = 0x12
	FmtCodeHour2       uint16 = 0x13
	FmtCodeHour3       uint16 = 0x14
	FmtCodeHour4       uint16 = 0x15
	FmtCodeHourDate    uint16 = 0x16
	FmtCodeAccounting1 uint16 = 0x25
	FmtCodeAccounting2 uint16 = 0x26
	FmtCodeAccounting3 uint16 = 0x27
	FmtCodeAccounting4 uint16 = 0x28
	FmtCodeCurrency5   uint16 = 0x29
	FmtCodeCurrency6   uint16 = 0x2A
	FmtCodeCurrency7   uint16 = 0x2B
	FmtCodeCurrency8   uint16 = 0x2C
	FmtCodeHour5       uint16 = 0x2D
	FmtCodeHour6       uint16 = 0x2E
	FmtCodeHour7       uint16 = 0x2F
	FmtCodeScientific2 uint16 = 0x30
	FmtCodeText        uint16 = 0x31 // @
)

var formatCodes = [...]uint16{
	FmtGeneral:     FmtCodeGeneral,
	FmtNumber1:     FmtCodeNumber1,
	FmtNumber2:     FmtCodeNumber2,
	FmtNumber3:     FmtCodeNumber3,
	FmtNumber4:     FmtCodeNumber4,
	FmtCurrency1:   FmtCodeCurrency1,
	FmtCurrency2:   FmtCodeCurrency2,
	FmtCurrency3:   FmtCodeCurrency3,
	FmtCurrency4:   FmtCodeCurrency4,
	FmtPercent1:    FmtCodePercent1,
	FmtPercent2:    FmtCodePercent2,
	FmtScientific1: FmtCodeScientific1,
	FmtFraction1:   FmtCodeFraction1,
	FmtFraction2:   FmtCodeFraction2,
	FmtDate1:       FmtCodeDate1,
	FmtDate2:       FmtCodeDate2,
	FmtDate3:       FmtCodeDate3,
	FmtDate4:       FmtCodeDate4,
	FmtHour1:       FmtCodeHour1,
	FmtHour2:       FmtCodeHour2,
	FmtHour3:       FmtCodeHour3,
	FmtHour4:       FmtCodeHour4,
	FmtHourDate:    FmtCodeHourDate,
	FmtAccounting1: FmtCodeAccounting1,
	FmtAccounting2: FmtCodeAccounting2,
	FmtAccounting3: FmtCodeAccounting3,
	FmtAccounting4: FmtCodeAccounting4,
	FmtCurrency5:   FmtCodeCurrency5,
	FmtCurrency6:   FmtCodeCurrency6,
	FmtCurrency7:   FmtCodeCurrency7,
	FmtCurrency8:   FmtCodeCurrency8,
	FmtHour5:       FmtCodeHour5,
	FmtHour6:       FmtCodeHour6,
	FmtHour7:       FmtCodeHour7,
	FmtScientific2: FmtCodeScientific2,
	FmtText:        FmtCodeText,
}

var formatNames = [...]string{
	"general", "number1", "number2", "number3", "number4",
	"currency1", "currency2", "currency3", "currency4",
	"percent1", "percent2", "scientific1", "fraction1", "fraction2",
	"date1", "date2", "date3", "date4",
	"hour1", "hour2", "hour3", "hour4", "hourdate",
	"accounting1", "accounting2", "accounting3", "accounting4",
	"currency5", "currency6", "currency7", "currency8",
	"hour5", "hour6", "hour7", "scientific2", "text",
}

// FormatCode maps n to its built-in format index. Values outside the
// enumeration map to the general format; this is not an error.
func FormatCode(n FormatNumber) uint16 {
	if n < FmtGeneral || n > FmtText {
		n = FmtGeneral
	}
	return formatCodes[n]
}

func (n FormatNumber) String() string {
	if n < FmtGeneral || n > FmtText {
		return fmt.Sprintf("FormatNumber(%d)", int(n))
	}
	return formatNames[n]
}

// ParseFormatNumber returns the built-in format named s, as printed by String.
func ParseFormatNumber(s string) (FormatNumber, error) {
	for i, name := range formatNames {
		if name == s {
			return FormatNumber(i), nil
		}
	}
	return FmtGeneral, fmt.Errorf("%w: unknown number format %q", ErrInvalidArgument, s)
}

// FirstUserFormatIndex is the index given to the first user-defined format.
const FirstUserFormatIndex uint16 = 0xA4

// Format is a user-defined number format string.
type Format struct {
	text  []uint16
	index uint16
	usage atomic.Uint32
}

// NewFormat returns an unregistered format for text. Its index is zero until
// a FormatRegistry assigns one.
func NewFormat(text string) *Format {
	return &Format{text: utf16.Encode([]rune(text))}
}

// NewFormatWide is NewFormat for text already in UTF-16.
func NewFormatWide(text []uint16) *Format {
	return &Format{text: slices.Clone(text)}
}

func (f *Format) Index() uint16  { return f.index }
func (f *Format) Text() []uint16 { return f.text }
func (f *Format) String() string { return string(utf16.Decode(f.text)) }

// MarkUsed records one more cell style referring to the format.
func (f *Format) MarkUsed() { f.usage.Add(1) }

// UnmarkUsed drops one reference. The count never goes below zero.
func (f *Format) UnmarkUsed() {
	for {
		n := f.usage.Load()
		if n == 0 || f.usage.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Usage returns the number of references recorded with MarkUsed.
func (f *Format) Usage() uint32 { return f.usage.Load() }

// FormatRegistry holds the user-defined formats of one workbook and hands out
// their indices. Registering the same text twice yields the same Format.
//
// Unlike Buffer and Store, a FormatRegistry is safe for concurrent use, so
// sheets built on separate goroutines can share one.
type FormatRegistry struct {
	byText *xsync.Map[string, *Format]
	next   atomic.Uint32
}

func NewFormatRegistry() *FormatRegistry {
	return &FormatRegistry{byText: xsync.NewMap[string, *Format]()}
}

// Add registers text and returns its format. The second result reports
// whether the text was already registered.
func (r *FormatRegistry) Add(text string) (*Format, bool, error) {
	var full bool
	f, loaded := r.byText.LoadOrCompute(text, func() (*Format, bool) {
		n := r.next.Add(1) - 1
		if int(FirstUserFormatIndex)+int(n) > 0xFFFF {
			full = true
			return nil, true
		}
		f := NewFormat(text)
		f.index = FirstUserFormatIndex + uint16(n)
		return f, false
	})
	if full {
		return nil, false, fmt.Errorf("%w: format index space exhausted", ErrInvalidArgument)
	}
	return f, loaded, nil
}

// Lookup returns the registered format for text.
func (r *FormatRegistry) Lookup(text string) (*Format, bool) {
	return r.byText.Load(text)
}

// Len returns the number of registered formats.
func (r *FormatRegistry) Len() int { return r.byText.Size() }

// Formats returns the registered formats ordered by index.
func (r *FormatRegistry) Formats() []*Format {
	out := make([]*Format, 0, r.byText.Size())
	r.byText.Range(func(_ string, f *Format) bool {
		out = append(out, f)
		return true
	})
	slices.SortFunc(out, func(a, b *Format) int { return int(a.index) - int(b.index) })
	return out
}

// NewFormatRecord builds the FORMAT record for f: its index followed by the
// text in the Len2Flags layout.
func NewFormatRecord(store *Store, f *Format) (*Record, error) {
	rec, err := NewRecord(store, RecFormat)
	if err != nil {
		return nil, err
	}
	if err := rec.AppendUint16(f.index); err != nil {
		rec.Close()
		return nil, err
	}
	if err := rec.AppendWideString(nil, f.text, Len2Flags); err != nil {
		rec.Close()
		return nil, err
	}
	if err := rec.Finish(); err != nil {
		rec.Close()
		return nil, err
	}
	return rec, nil
}
