package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

// envConfig is the runtime configuration picked up from the environment.
type envConfig struct {
	// REAPER_TRACE switches on the per-instruction execution trace of
	// the virtual machine.
	Trace bool `env:"REAPER_TRACE"`
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")
	subcommands.Register(&astCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
