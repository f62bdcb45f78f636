package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/vn18/simulate/internal/cli"
	"github.com/vn18/simulate/internal/cpu"
	"github.com/vn18/simulate/internal/ioport"
	"github.com/vn18/simulate/internal/log"
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/monitor"
	"github.com/vn18/simulate/internal/word"
)

const demoParagraph = "Ant bee cat dog. Egg fox zebra yak."

const demoSearchWord = "zebra"

// Demo runs the bundled paragraph-search demonstration (seed scenario S7):
// a paragraph is loaded into memory, a search word is typed at the
// keyboard, and the demo program reports the sentence and word the first
// matching character was found in.
func Demo() cli.Command {
	return new(demo)
}

type demo struct {
	debug bool
	quiet bool
	text  string
	word  string
}

func (demo) Description() string {
	return "run the paragraph-search demo"
}

func (d demo) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `
demo [ -debug | -quiet ] [ -text paragraph ] [ -word search ]

Run the bundled paragraph-search demonstration.`)

	return err
}

func (d *demo) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)

	fs.BoolVar(&d.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&d.quiet, "quiet", false, "enable quiet output, console only")
	fs.StringVar(&d.text, "text", demoParagraph, "paragraph `text` to search")
	fs.StringVar(&d.word, "word", demoSearchWord, "search `word` typed at the keyboard")

	return fs
}

func (d demo) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.quiet {
		log.LogLevel.Set(log.Error)
	}

	if d.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger.Info("initializing machine")

	sys := mem.NewSystem()
	defer sys.Stop()

	img, err := monitor.Build()
	if err != nil {
		logger.Error("error building bring-up image", "err", err)
		return 2
	}

	if err := img.LoadTo(sys); err != nil {
		logger.Error("error installing bring-up image", "err", err)
		return 2
	}

	demoProgram, err := monitor.BuildParagraphDemo()
	if err != nil {
		logger.Error("error building demo program", "err", err)
		return 2
	}

	if err := sys.LoadProgram(demoProgram.Orig, demoProgram.Code); err != nil {
		logger.Error("error loading demo program", "err", err)
		return 2
	}

	if err := monitor.LoadParagraph(sys, d.text); err != nil {
		logger.Error("error loading paragraph", "err", err)
		return 2
	}

	port := ioport.New()
	port.Console.Listen(func(b byte) { fmt.Fprintf(out, "%c", b) })

	engine := cpu.New(sys, port)
	engine.Trampolines = img.Trampolines()

	for pc, target := range demoProgram.Trampolines {
		engine.Trampolines[pc] = target
	}

	engine.Reg.PC = word.PC(demoProgram.Orig) & word.PCMask

	logger.Info("feeding search word", "word", d.word)
	port.Keyboard.Feed(d.word + " ")

	logger.Info("starting machine")

	err = runToHalt(ctx, engine, logger)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("demo timeout")
		return 2
	case err != nil:
		logger.Error(err.Error())
		return 2
	default:
		logger.Info("demo completed")
		return 0
	}
}
