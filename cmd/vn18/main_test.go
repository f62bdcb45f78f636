package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vn18/simulate/internal/cpu"
	"github.com/vn18/simulate/internal/ioport"
	"github.com/vn18/simulate/internal/log"
	"github.com/vn18/simulate/internal/mem"
	"github.com/vn18/simulate/internal/monitor"
	"github.com/vn18/simulate/internal/word"
)

// timeout bounds how long the paragraph-search demo is given to halt.
const timeout = time.Second

// TestParagraphSearchDemo runs the bundled paragraph-search program
// end-to-end: bring-up image, demo program, and sample text all loaded
// into one memory system, a search word fed at the keyboard, and the
// engine stepped to completion exactly as cmd/vn18's "demo" subcommand
// does.
func TestParagraphSearchDemo(tt *testing.T) {
	log.LogLevel.Set(log.Error)

	sys := mem.NewSystem()
	defer sys.Stop()

	img, err := monitor.Build()
	if err != nil {
		tt.Fatalf("Build: %s", err)
	}

	if err := img.LoadTo(sys); err != nil {
		tt.Fatalf("LoadTo: %s", err)
	}

	demoProgram, err := monitor.BuildParagraphDemo()
	if err != nil {
		tt.Fatalf("BuildParagraphDemo: %s", err)
	}

	if err := sys.LoadProgram(demoProgram.Orig, demoProgram.Code); err != nil {
		tt.Fatalf("LoadProgram: %s", err)
	}

	const text = "Ant bee cat dog. Egg fox zebra yak."

	if err := monitor.LoadParagraph(sys, text); err != nil {
		tt.Fatalf("LoadParagraph: %s", err)
	}

	port := ioport.New()

	var out bytes.Buffer
	port.Console.Listen(func(b byte) { out.WriteByte(b) })

	engine := cpu.New(sys, port)
	engine.Trampolines = img.Trampolines()

	for pc, target := range demoProgram.Trampolines {
		engine.Trampolines[pc] = target
	}

	engine.Reg.PC = word.PC(demoProgram.Orig) & word.PCMask

	port.Keyboard.Feed("zebra ")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			default:
			}

			err := engine.Step(cpu.ModeMacro)

			if errors.Is(err, cpu.ErrHalted) {
				done <- nil
				return
			} else if err != nil {
				done <- err
				return
			}
		}
	}()

	if err := <-done; err != nil {
		tt.Fatalf("run: %s", err)
	}

	tt.Logf("console output: %q", out.String())

	if !bytes.Contains(out.Bytes(), []byte("Found at sent. 2, word 3")) {
		tt.Errorf("want a match report for sentence 2 word 3, got %q", out.String())
	}
}
