// Command qa selects and runs the QA pipeline for a site change.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(Execute())
}

// signalContext is cancelled on SIGINT or SIGTERM so the runner stops the
// current step instead of starting the next one.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
