package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"realtime-users/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "usersctl: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
