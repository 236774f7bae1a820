// cmd/rutctl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI(os.Stdout, os.Stderr, os.Stdin).RunContext(ctx, os.Args); err != nil {
		stop()
		os.Exit(1)
	}
}
