package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/cehteh/reaper/compiler"
	"github.com/cehteh/reaper/lexer"
	"github.com/cehteh/reaper/parser"
	"github.com/cehteh/reaper/vm"
)

// replCmd implements the REPL command
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start interactive REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

// runLine compiles and executes a single REPL input line. Every line is a
// standalone program: it runs on a fresh compiler and a fresh VM, so
// state does not carry over between lines.
func runLine(line string, trace bool) {
	lex := lexer.New(line)
	tokens, err := lex.Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	p := parser.Make(tokens)
	statements, errors := p.Parse()
	if len(errors) > 0 {
		for _, error := range errors {
			fmt.Fprintln(os.Stderr, error)
		}
		return
	}

	bytecode, err := compiler.New().Compile(statements)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	machine := vm.New()
	machine.Trace = trace
	if err := machine.Run(bytecode); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read environment: %v\n", err)
		return subcommands.ExitFailure
	}

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("\n\nWelcome to Reaper!")
	for {
		line, err := rl.Readline()
		if err != nil {
			// interrupt or EOF ends the session
			return subcommands.ExitSuccess
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}
		runLine(line, cfg.Trace)
	}
}
