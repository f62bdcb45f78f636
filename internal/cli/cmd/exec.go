package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vn18/simulate/internal/asm"
	"github.com/vn18/simulate/internal/cli"
	"github.com/vn18/simulate/internal/console"
	"github.com/vn18/simulate/internal/cpu"
	"github.com/vn18/simulate/internal/encoding"
	"github.com/vn18/simulate/internal/ioport"
	"github.com/vn18/simulate/internal/log"
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/monitor"
	"github.com/vn18/simulate/internal/word"
)

// Executor is the command that loads and runs an assembled program.
//
//	vn18 run program.hex
//	vn18 run -tty program.hex
func Executor() cli.Command {
	return &executor{log: log.DefaultLogger()}
}

type executor struct {
	tty     bool
	timeout time.Duration

	log *log.Logger
}

func (executor) Description() string {
	return "run a program"
}

func (executor) Usage(out io.Writer) error {
	var err error
	_, err = fmt.Fprintln(out, `run [-tty] [-timeout dur] program.hex

Loads the bring-up image and a program, then runs the machine to
completion, a fault, or the timeout.`)

	return err
}

func (ex *executor) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.BoolVar(&ex.tty, "tty", false, "attach the terminal front end")
	fs.DurationVar(&ex.timeout, "timeout", 10*time.Second, "maximum run `duration`")

	return fs
}

// Run loads the bring-up image and the named program, then drives the engine one instruction at
// a time until it halts, faults, or the context expires, mirroring the teacher's step/select loop.
func (ex *executor) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) == 0 {
		logger.Error("no program file given")
		return 1
	}

	code, err := ex.loadCode(args[0])
	if err != nil {
		logger.Error("error loading code", "err", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, ex.timeout)
	defer cancel()

	sys := mem.NewSystem()
	defer sys.Stop()

	img, err := monitor.Build()
	if err != nil {
		logger.Error("error building bring-up image", "err", err)
		return 1
	}

	if err := img.LoadTo(sys); err != nil {
		logger.Error("error installing bring-up image", "err", err)
		return 1
	}

	count := 0

	for i := range code {
		if err := sys.LoadProgram(code[i].Orig, code[i].Code); err != nil {
			logger.Error("error loading program", "err", err)
			return 1
		}

		count += len(code[i].Code)
	}

	port := ioport.New()

	engine := cpu.New(sys, port)
	engine.Trampolines = img.Trampolines()
	engine.Reg.PC = word.PC(code[0].Orig) & word.PCMask

	if ex.tty {
		tf, err := console.NewTTYFrontEnd(os.Stdin, os.Stdout)
		if err != nil {
			logger.Error("error attaching terminal", "err", err)
			return 1
		}

		defer tf.Restore()

		go tf.Run(ctx, port)
	} else {
		port.Console.Listen(func(b byte) { fmt.Fprintf(stdout, "%c", b) })
	}

	logger.Debug("loaded program", "file", args[0], "words", count)
	logger.Info("starting machine")

	err = runToHalt(ctx, engine, logger)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("run timeout")
		return 2
	case err != nil:
		logger.Error("program error", "err", err)
		return 2
	default:
		logger.Info("program completed")
		return 0
	}
}

// runToHalt steps the engine one instruction at a time, checking ctx between every step, in the
// teacher's select/Step idiom rather than handing a whole ModeContinue run to one blocking call.
func runToHalt(ctx context.Context, engine *cpu.Engine, logger *log.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := engine.Step(cpu.ModeMacro)

		switch {
		case errors.Is(err, cpu.ErrHalted):
			return nil
		case err != nil:
			return err
		}
	}
}

func (ex *executor) loadCode(fn string) ([]asm.ObjectCode, error) {
	ex.log.Debug("loading program", "file", fn)

	file, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	text, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	hexEnc := encoding.HexEncoding{}

	if err := hexEnc.UnmarshalText(text); err != nil {
		return nil, err
	}

	ex.log.Debug("loaded program", "bytes", len(text), "records", len(hexEnc.Code))

	return hexEnc.Code, nil
}
