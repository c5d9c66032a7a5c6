// Command priorledger compiles experiment readouts into prior updates.
package main

import (
	"os"

	"github.com/roach88/priorledger/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
