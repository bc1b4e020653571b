package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf16"

	"github.com/oy3o/biff"
)

// EncodeCmd encodes one string and prints the bytes.
type EncodeCmd struct {
	Text   string `arg:"" help:"Text to encode"`
	Layout string `name:"layout" short:"l" default:"len2-flags" enum:"len1-noflags,len2-flags,len2-noflags-padded,len1-flags,nolen-flags" help:"String layout"`
	Narrow bool   `name:"narrow" help:"Convert the text to the code page first and encode it as 8-bit text"`
}

func (c *EncodeCmd) Run(g *Globals, log *slog.Logger) error {
	layout, err := biff.ParseStringLayout(c.Layout)
	if err != nil {
		return err
	}
	conv, err := g.converter()
	if err != nil {
		return err
	}

	store := g.store()
	b := biff.NewBuffer(store)
	defer b.Close()

	if c.Narrow {
		err = c.appendNarrow(b, conv, layout)
	} else {
		err = b.AppendString(conv, c.Text, layout)
	}
	if err != nil {
		return fmt.Errorf("encode %q as %s: %w", c.Text, layout, err)
	}

	log.Debug("encoded string",
		slog.String("layout", layout.String()),
		slog.Int("size", b.Size()),
		slog.Int("data_size", b.DataSize()),
		slog.Any("store", store.Stats()))

	_, err = fmt.Fprint(os.Stdout, hex.Dump(b.Bytes()))
	return err
}

// appendNarrow transliterates the text into the code page before encoding, the
// way 8-bit font names are produced.
func (c *EncodeCmd) appendNarrow(b *biff.Buffer, conv biff.TextConverter, layout biff.StringLayout) error {
	narrow, err := conv.WideToNarrow(utf16.Encode([]rune(c.Text)))
	if err != nil {
		return err
	}
	return b.AppendNarrowString(conv, narrow, layout)
}
