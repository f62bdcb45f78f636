package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vn18/simulate/internal/asm"
	"github.com/vn18/simulate/internal/cli"
	"github.com/vn18/simulate/internal/encoding"
	"github.com/vn18/simulate/internal/log"
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/word"
)

// Assembler is the command that translates source text into object code.
//
//	vn18 asm -o out.hex in.asm
func Assembler() cli.Command {
	return new(assembler)
}

type assembler struct {
	debug  bool
	output string
	orig   uint
}

func (assembler) Description() string {
	return "assemble source code into object code"
}

func (assembler) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `asm [-o out.hex] [-orig addr] file.asm

Assemble source into the hex object encoding.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	fs.BoolVar(&a.debug, "debug", false, "enable debug logging")
	fs.StringVar(&a.output, "o", "a.hex", "output `filename`")
	fs.UintVar(&a.orig, "orig", uint(mem.ProgramAddr), "starting `address` of the assembled program")

	return fs
}

// Run assembles every named source file at the configured origin and writes the result as one
// hex object file.
func (a *assembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if a.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("no source files given")
		return 1
	}

	assembler := asm.New(word.Word(a.orig))

	for i := range args {
		fn := args[i]

		f, err := os.Open(fn)
		if err != nil {
			logger.Error("open failed", "file", fn, "err", err)
			return 1
		}

		if err := assembler.Parse(f); err != nil {
			_ = f.Close()
			logger.Error("parse error", "file", fn, "err", err)

			return 1
		}

		_ = f.Close()
	}

	obj, err := assembler.Link()
	if err != nil {
		logger.Error("link error", "err", err)
		return 1
	}

	out, err := os.Create(a.output)
	if err != nil {
		logger.Error("open failed", "out", a.output, "err", err)
		return 1
	}
	defer out.Close()

	hexEnc := encoding.HexEncoding{Code: []asm.ObjectCode{obj}}

	text, err := hexEnc.MarshalText()
	if err != nil {
		logger.Error("encode error", "err", err)
		return 1
	}

	if _, err := out.Write(text); err != nil {
		logger.Error("write failed", "out", a.output, "err", err)
		return 1
	}

	logger.Debug("assembled", "out", a.output, "orig", obj.Orig, "words", len(obj.Code))

	return 0
}
