// Command parkspot is the terminal client for the ParkSpot parking
// reservation service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/parkspot/internal/cmd"
	"github.com/felixgeelhaar/parkspot/internal/exitcode"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitcode.Success
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		// Ctrl+C during a request or an open prompt
		fmt.Fprintln(os.Stderr, "\nOperation cancelled")
		return exitcode.Interrupted
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitcode.DetermineExitCode(err)
	}
}
