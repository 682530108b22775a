// Command alertindex clusters wildlife disease observations in space and time
// and searches for alert-index weightings of the resulting clusters.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Printf("alertindex: %v", err)
		os.Exit(failure.ExitCode(err))
	}
}
