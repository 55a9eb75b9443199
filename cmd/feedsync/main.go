// Command feedsync is a command-line client for the community feed.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/feedsync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		code := cli.GetExitCode(err)
		// Commands report their own failures; only cobra errors such as
		// unknown flags still need printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}
