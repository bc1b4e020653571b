package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/oy3o/biff"
)

// BuildCmd writes a small workbook record stream: a globals substream with
// fonts, formats and sheet entries, followed by one substream per sheet
// holding a title cell.
type BuildCmd struct {
	Out     string   `arg:"" help:"Output file" type:"path"`
	Sheets  []string `name:"sheet" short:"s" default:"Sheet1" help:"Sheet names"`
	Formats []string `name:"format" short:"f" help:"User-defined number formats"`
	Font    string   `name:"font" default:"Arial" help:"Default font name"`
}

func (c *BuildCmd) Run(g *Globals, log *slog.Logger) error {
	conv, err := g.converter()
	if err != nil {
		return err
	}
	store := g.store()

	globals := biff.NewRecordList[biff.Codec](
		biff.NewBOF(biff.BOFWorkbookGlobals),
		biff.NewCodepage(conv.CodePage()),
	)
	defer globals.Close()

	font, err := biff.NewFontRecord(store, conv, biff.DefaultFont, c.Font)
	if err != nil {
		return err
	}
	globals.Add(font)

	registry := biff.NewFormatRegistry()
	for _, text := range c.Formats {
		if _, _, err := registry.Add(text); err != nil {
			return err
		}
	}
	for _, f := range registry.Formats() {
		rec, err := biff.NewFormatRecord(store, f)
		if err != nil {
			return fmt.Errorf("format %q: %w", f, err)
		}
		globals.Add(rec)
	}

	// Sheet offsets are only known once the globals are complete, so the
	// BOUNDSHEET records are written with zero and patched below.
	bound := make([]*biff.Record, len(c.Sheets))
	for i, name := range c.Sheets {
		rec, err := biff.NewBoundSheetRecord(store, conv, 0, name)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		if err := rec.MakeSticky(); err != nil {
			return err
		}
		bound[i] = rec
		globals.Add(rec)
	}
	globals.Add(biff.NewEOF())

	sheets := make([]*biff.RecordList[biff.Codec], len(c.Sheets))
	offset := globals.Len()
	for i, name := range c.Sheets {
		label, err := biff.NewLabelRecord(store, conv, 0, 0, 0, name)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		sheet := biff.NewRecordList[biff.Codec](biff.NewBOF(biff.BOFWorksheet), label, biff.NewEOF())
		defer sheet.Close()
		sheets[i] = sheet

		if err := biff.SetBoundSheetOffset(bound[i], uint32(offset)); err != nil {
			return err
		}
		log.Debug("sheet", slog.String("name", name), slog.Int("offset", offset), slog.Int("records", sheet.Count()))
		offset += sheet.Len()
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := biff.NewWriter(f)
	if err != nil {
		return err
	}
	w.WriteFrom(globals)
	for _, sheet := range sheets {
		w.WriteFrom(sheet)
	}
	n, err := w.Result()
	if err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	stats := store.Stats()
	log.Info("workbook stream written",
		slog.String("path", c.Out),
		slog.String("size", humanize.Bytes(uint64(n))),
		slog.Int("sheets", len(sheets)),
		slog.Int("formats", registry.Len()),
		slog.Int("slots", stats.Slots),
		slog.String("arena", humanize.Bytes(uint64(stats.Bytes))))
	return nil
}
