// cmd/vn18 is the command-line interface to the simulator and tool suite for
// an 18-bit Von Neumann computer.
package main

import (
	"context"
	"os"

	"github.com/vn18/simulate/internal/cli"
	"github.com/vn18/simulate/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Assembler(),
	cmd.Executor(),
	cmd.Demo(),
}

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
