// cmd/locbook/main.go

package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"

	"locbook/internal/cli"
)

func main() {
	app := &cli.App{Out: os.Stdout}

	if err := cli.Run(app, os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
