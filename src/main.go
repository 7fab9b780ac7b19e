package main

import (
	"fmt"
	"os"

	"falsec/src/frontend"
	"falsec/src/util"
)

// run reads source code, parses it into lambdas and emits verified bitcode
// to the requested output. Behaviour is governed by the util.Options
// structure built from the command line.
func run(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source code: %s", err)
	}

	out, closeOut, err := util.OpenOutput(opt)
	if err != nil {
		return fmt.Errorf("could not open output: %s", err)
	}
	defer func() {
		if err := closeOut(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	display := util.DisplayName(opt)
	env := frontend.NewEnvironment(display, opt)
	defer env.Dispose()

	parser := frontend.NewParser(env, src)
	if _, err := parser.ParseRoot(); err != nil {
		return err
	}

	if err := env.Assemble(); err != nil {
		return fmt.Errorf("could not finish module: %s", err)
	}

	if err := env.Verify(); err != nil {
		return fmt.Errorf("module verification error: %s", err)
	}

	if opt.Verbose {
		fmt.Fprintln(os.Stderr, env.Module.String())
	}

	if err := env.WriteTo(out); err != nil {
		return fmt.Errorf("could not write bitcode: %s", err)
	}
	return nil
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %s\n", err)
		os.Exit(1)
	}

	if err := run(opt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
