package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	opts := newOptions()
	parser := flags.NewParser(opts, flags.Default)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
