package main

import (
	"os"

	"github.com/Iron-Ham/teamctl/internal/cmd"
	"github.com/Iron-Ham/teamctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
