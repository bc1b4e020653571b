package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oy3o/biff"
)

// FormatCmd resolves a built-in number format or builds a FORMAT record for a
// user-defined one.
type FormatCmd struct {
	Number string   `name:"number" short:"n" xor:"what" help:"Built-in format name, e.g. currency1"`
	Text   []string `name:"text" short:"t" xor:"what" help:"User-defined format string; repeat to register several"`
	List   bool     `name:"list" xor:"what" help:"List every built-in format"`
}

func (c *FormatCmd) Run(g *Globals, log *slog.Logger) error {
	switch {
	case c.List:
		for n := biff.FmtGeneral; n <= biff.FmtText; n++ {
			fmt.Printf("%-12s 0x%02X\n", n, biff.FormatCode(n))
		}
		return nil
	case c.Number != "":
		n, err := biff.ParseFormatNumber(c.Number)
		if err != nil {
			return err
		}
		fmt.Printf("%s 0x%02X\n", n, biff.FormatCode(n))
		return nil
	case len(c.Text) > 0:
		return c.records(g, log)
	}
	return errors.New("one of --number, --text or --list is required")
}

func (c *FormatCmd) records(g *Globals, log *slog.Logger) error {
	store := g.store()
	registry := biff.NewFormatRegistry()
	for _, text := range c.Text {
		f, loaded, err := registry.Add(text)
		if err != nil {
			return err
		}
		if loaded {
			log.Warn("duplicate format", slog.String("text", text), slog.Int("index", int(f.Index())))
		}
	}

	for _, f := range registry.Formats() {
		rec, err := biff.NewFormatRecord(store, f)
		if err != nil {
			return fmt.Errorf("format %q: %w", f, err)
		}
		h, err := rec.Header()
		if err != nil {
			rec.Close()
			return err
		}
		fmt.Printf("0x%04X %q %s\n%s", f.Index(), f.String(), h, hex.Dump(rec.Bytes()))
		rec.Close()
	}
	log.Debug("store after FORMAT records", slog.Any("stats", store.Stats()))
	return nil
}
