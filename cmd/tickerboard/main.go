package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/tickerboard/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (optional, defaults to ~/.config/tickerboard/config.toml)")
	pollEvery := flag.Duration("poll", 0, "poll interval while monitoring (optional, overrides config)")
	noPush := flag.Bool("no-push", false, "disable the push channel and rely on polling")
	headless := flag.Bool("headless", false, "log activity to stderr instead of drawing the board")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		NoPush:     *noPush,
		Headless:   *headless,
	}
	if poll := *pollEvery; poll > 0 {
		opts.PollInterval = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "tickerboard: %v\n", err)
		return 1
	}
	return 0
}
