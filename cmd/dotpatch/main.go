package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/arthur-debert/dotpatch/internal/cli"
	"github.com/arthur-debert/dotpatch/pkg/style"
)

func main() {
	// Ctrl-C cancels between targets, never in the middle of a write
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderer := style.NewRenderer(style.DetectFormat(os.Stderr), "")
		fmt.Fprintln(os.Stderr, renderer.RenderError(err))
		stop()
		os.Exit(1)
	}
}
