// Command bankwatch polls bank accounts and notifies about new transactions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bankwatch/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bankwatch:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
