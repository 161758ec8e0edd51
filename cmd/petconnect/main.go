package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/petconnect/adapter/cli"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.SetLogger(observability.LoggerFromEnv())
	cli.Execute(ctx)
}
