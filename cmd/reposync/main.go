package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/input-output-hk/reposync/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.DefaultEnv(version), os.Args[1:])
	stop()
	os.Exit(code)
}
