package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli"
	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, helpers.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
