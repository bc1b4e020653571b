package main

import (
	"fmt"
	"log/slog"
	"os"
	"unicode/utf16"

	"github.com/dustin/go-humanize"

	"github.com/oy3o/biff"
	"github.com/oy3o/biff/charset"
)

// RecordsCmd lists the records of a raw record stream, such as the Workbook
// stream extracted from a compound document.
type RecordsCmd struct {
	Path string `arg:"" help:"Record stream file" type:"existingfile"`
	Type string `name:"type" help:"Only list records of this type, e.g. FORMAT"`
}

func (c *RecordsCmd) Run(g *Globals, log *slog.Logger) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	conv, err := g.converter()
	if err != nil {
		return err
	}
	r, err := biff.NewReader(f)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	var records int64
	offset := r.Count()
	err = r.EachRecord(func(h biff.RecordHeader, body []byte) error {
		name := biff.RecordName(h.Type)
		records++
		counts[name]++
		if h.Type == biff.RecCodepage && len(body) >= 2 {
			if next, err := charset.ForCodePage(biff.Order.Uint16(body)); err == nil {
				conv = next
			} else {
				log.Debug("keeping code page", slog.Int("codepage", int(conv.CodePage())), slog.Any("error", err))
			}
		}
		if c.Type == "" || c.Type == name {
			fmt.Printf("%08X %-10s %5d %s\n", offset, name, h.Len, describe(h, body, conv))
		}
		offset = r.Count()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s at offset 0x%X: %w", c.Path, offset, err)
	}

	fmt.Printf("%s records, %s\n", humanize.Comma(records), humanize.Bytes(uint64(r.Count())))
	log.Debug("record types", slog.Any("counts", counts))
	return nil
}

// describe decodes the interesting fields of the record types the engine
// writes. Other records are listed without detail.
func describe(h biff.RecordHeader, body []byte, conv biff.TextConverter) string {
	r, err := biff.NewReader(biff.NewBytesReader(body))
	if err != nil {
		return ""
	}

	var out string
	switch h.Type {
	case biff.RecBOF:
		var version, typ uint16
		r.ReadUint16(&version)
		r.ReadUint16(&typ)
		out = fmt.Sprintf("version=0x%04X type=0x%04X", version, typ)
	case biff.RecCodepage:
		var cp uint16
		r.ReadUint16(&cp)
		out = fmt.Sprintf("codepage=%d", cp)
	case biff.RecFormat:
		var index uint16
		r.ReadUint16(&index)
		text := r.ReadString(conv, biff.Len2Flags, 0)
		out = fmt.Sprintf("index=0x%04X %q", index, decode(text))
	case biff.RecLabel:
		var row, col, xf uint16
		r.ReadUint16(&row)
		r.ReadUint16(&col)
		r.ReadUint16(&xf)
		text := r.ReadString(conv, biff.Len2Flags, 0)
		out = fmt.Sprintf("row=%d col=%d xf=%d %q", row, col, xf, decode(text))
	case biff.RecBoundSheet:
		var pos uint32
		var visibility, kind uint8
		r.ReadUint32(&pos)
		r.ReadUint8(&visibility)
		r.ReadUint8(&kind)
		name := r.ReadString(conv, biff.Len1Flags, 0)
		out = fmt.Sprintf("offset=0x%08X %q", pos, decode(name))
	case biff.RecFont:
		var height uint16
		r.ReadUint16(&height)
		r.Discard(12)
		name := r.ReadString(conv, biff.Len1NoFlags, 0)
		out = fmt.Sprintf("height=%d %q", height, decode(name))
	case biff.RecName:
		var n uint8
		r.Discard(3)
		r.ReadUint8(&n)
		r.Discard(10)
		name := r.ReadString(conv, biff.NoLenFlags, int(n))
		out = fmt.Sprintf("%q", decode(name))
	}
	if err := r.Err(); err != nil {
		return fmt.Sprintf("malformed: %v", err)
	}
	return out
}

func decode(units []uint16) string { return string(utf16.Decode(units)) }
