// Command biffdump encodes and inspects BIFF8 records: string layouts, number
// formats, and raw workbook record streams.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/oy3o/biff"
	"github.com/oy3o/biff/charset"
	"github.com/oy3o/biff/internal/logging"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" enum:"debug,info,warn,error" default:"info" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log format (text, json)"`
	CodePage  uint16 `name:"codepage" default:"1252" help:"Code page for 8-bit text"`
	MaxBytes  int    `name:"max-bytes" default:"0" help:"Byte budget of the record store, 0 for unlimited"`
}

func (g *Globals) converter() (*charset.Converter, error) {
	return charset.ForCodePage(g.CodePage)
}

func (g *Globals) store() *biff.Store {
	return biff.NewStore(&biff.StoreOptions{MaxBytes: g.MaxBytes})
}

// CLI defines the command-line interface for biffdump.
var CLI struct {
	Globals `embed:""`

	Encode  EncodeCmd  `cmd:"" help:"Encode a string in one of the record string layouts"`
	Format  FormatCmd  `cmd:"" help:"Show a built-in number format index or build a FORMAT record"`
	Records RecordsCmd `cmd:"" help:"List the records of a raw BIFF8 record stream"`
	Build   BuildCmd   `cmd:"" help:"Write a minimal BIFF8 workbook record stream"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("biffdump %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("biffdump"),
		kong.Description("Encode and inspect BIFF8 spreadsheet records"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	ctx.FatalIfErrorf(err)
	logger := logging.Init(os.Stderr, level, format)

	err = ctx.Run(&CLI.Globals, logger)
	if err != nil {
		logger.Error("command failed", slog.String("command", ctx.Command()), slog.Any("error", err))
	}
	ctx.FatalIfErrorf(err)
}
