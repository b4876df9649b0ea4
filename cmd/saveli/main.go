package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arthur-debert/saveli/internal/cli"
	"github.com/arthur-debert/saveli/pkg/style"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintln(os.Stderr, style.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
		os.Exit(1)
	}
}
