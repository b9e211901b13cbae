package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	memvaultcmder "github.com/papercomputeco/memvault/cmd/memvault"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := memvaultcmder.NewMemvaultCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
