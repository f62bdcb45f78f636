package console

import (
	"os"
	"testing"

	"github.com/vn18/simulate/internal/word"
)

func TestNoOpFrontEndSatisfiesInterface(tt *testing.T) {
	tt.Parallel()

	var fe FrontEnd = NoOpFrontEnd{}

	// None of these should panic; there's nothing to assert beyond that.
	fe.UpdateRegister("PC", word.Word(42))
	fe.AppendTerminal("hello")
	fe.ToggleButton("step", true)
	fe.DisableButtons()
}

func TestNewTTYFrontEndErrorsWithoutATerminal(tt *testing.T) {
	tt.Parallel()

	// Under `go test`, stdin is not a terminal, so this must return
	// ErrNoTTY rather than block or panic.
	if _, err := NewTTYFrontEnd(os.Stdin, os.Stdout); err == nil {
		tt.Fatal("want ErrNoTTY when stdin is not a terminal")
	}
}
