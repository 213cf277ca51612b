// Command taxflow builds and runs declarative tax computation pipelines.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/taxflow/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
