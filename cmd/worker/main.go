// Package main provides the worker command: extract one thread's article and
// relay it, its comments and their replies to the storage backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := execute(ctx)

	stop()
	os.Exit(code)
}
