package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arran4/codeshot/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		cli.ErrorHandler(os.Stderr, err)
		os.Exit(1)
	}
}
