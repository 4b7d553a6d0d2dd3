// Command liftsql compiles predicate and ordering expressions into SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/liftsql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
