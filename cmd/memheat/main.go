package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/memheat/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (optional, defaults to ~/.config/memheat/config.toml)")
	tracePath := flag.String("log", "", "memory access trace to tail (optional, overrides log_file)")
	poll := flag.Duration("poll", 0, "poll interval, e.g. 50ms (optional, overrides update_interval)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, TracePath: *tracePath}
	if d := *poll; d > 0 {
		opts.PollEvery = d
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "memheat: %v\n", err)
		return 1
	}
	return 0
}
