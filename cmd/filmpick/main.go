// Command filmpick is a terminal front end for the film recommendation
// backend: browse a random batch of films, pick the ones you like and ask
// for more like them.
package main

import (
	"context"
	"os"
	"os/signal"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.Version = version + " (commit: " + commit + ")"
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
