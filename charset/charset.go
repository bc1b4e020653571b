// Package charset converts between the single-byte code pages used by
// legacy workbooks and UTF-16 text. A Converter satisfies biff.TextConverter.
package charset

import (
	"fmt"
	"slices"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/oy3o/biff"
)

// Windows-1252 is what Excel writes when no CODEPAGE record says otherwise.
const DefaultCodePage uint16 = 1252

var codePages = map[uint16]*charmap.Charmap{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	866:   charmap.CodePage866,
	874:   charmap.Windows874,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
	28591: charmap.ISO8859_1,
	28592: charmap.ISO8859_2,
	28605: charmap.ISO8859_15,
}

// CodePages returns the supported code page numbers in ascending order.
func CodePages() []uint16 {
	out := make([]uint16, 0, len(codePages))
	for cp := range codePages {
		out = append(out, cp)
	}
	slices.Sort(out)
	return out
}

// Options configures a Converter. The zero value selects Windows-1252 and
// '?' as the replacement byte.
type Options struct {
	CodePage    uint16
	Replacement byte
}

// Converter is a biff.TextConverter for one code page. It holds no mutable
// state and is safe for concurrent use.
type Converter struct {
	cm          *charmap.Charmap
	codePage    uint16
	replacement byte
}

var _ biff.TextConverter = (*Converter)(nil)

// New returns a converter for the configured code page.
func New(options *Options) (*Converter, error) {
	if options == nil {
		options = &Options{}
	}
	cp := options.CodePage
	if cp == 0 {
		cp = DefaultCodePage
	}
	cm, ok := codePages[cp]
	if !ok {
		return nil, fmt.Errorf("charset: no single-byte mapping for code page %d", cp)
	}
	repl := options.Replacement
	if repl == 0 {
		repl = '?'
	}
	return &Converter{cm: cm, codePage: cp, replacement: repl}, nil
}

// ForCodePage is New with default options for code page cp.
func ForCodePage(cp uint16) (*Converter, error) {
	return New(&Options{CodePage: cp})
}

// CodePage returns the code page number, as stored in a CODEPAGE record.
func (c *Converter) CodePage() uint16 { return c.codePage }

// NarrowToWide decodes code-page bytes to UTF-16.
func (c *Converter) NarrowToWide(s []byte) ([]uint16, error) {
	units := make([]uint16, 0, len(s))
	for _, b := range s {
		units = utf16.AppendRune(units, c.cm.DecodeByte(b))
	}
	return units, nil
}

// WideToNarrow encodes UTF-16 text in the code page. Characters the code page
// lacks are decomposed and stripped of combining marks ("ő" becomes "o");
// whatever still has no mapping becomes the replacement byte.
func (c *Converter) WideToNarrow(s []uint16) ([]byte, error) {
	out := make([]byte, 0, len(s))
	var fold transform.Transformer
	for _, r := range utf16.Decode(s) {
		if b, ok := c.cm.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		if fold == nil {
			fold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
		}
		out = c.appendFolded(out, fold, r)
	}
	return out, nil
}

func (c *Converter) appendFolded(out []byte, fold transform.Transformer, r rune) []byte {
	folded, _, err := transform.String(fold, string(r))
	if err != nil || folded == "" {
		return append(out, c.replacement)
	}
	for _, fr := range folded {
		if fr == utf8.RuneError {
			out = append(out, c.replacement)
			continue
		}
		if b, ok := c.cm.EncodeRune(fr); ok {
			out = append(out, b)
		} else {
			out = append(out, c.replacement)
		}
	}
	return out
}
