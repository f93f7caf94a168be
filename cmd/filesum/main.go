package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	internal "github.com/ZanzyTHEbar/filesum/fsum"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		common.LogError(internal.GetLogger(), "filesum failed", err)
		stop()
		os.Exit(1)
	}
}
