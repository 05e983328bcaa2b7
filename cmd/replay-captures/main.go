// Command replay-captures submits capture files to a running palmares
// service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/palmares/internal/replay"
	"github.com/okian/palmares/pkg/logger"
)

const defaultRunTimeout = 30 * time.Minute

func main() {
	var (
		baseURL    = flag.String("url", replay.DefaultBaseURL, "Base URL of the service")
		workers    = flag.Int("workers", replay.DefaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", replay.DefaultTimeout, "HTTP request timeout")
		maxRetries = flag.Int("retries", replay.DefaultMaxRetries, "Retries for a capture refused with 429 (negative disables)")
		backoff    = flag.Duration("backoff", replay.DefaultBackoff, "First retry delay")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file-or-dir>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	stats, err := replay.Run(ctx, replay.Config{
		BaseURL:    *baseURL,
		Paths:      flag.Args(),
		Workers:    *workers,
		Timeout:    *timeout,
		MaxRetries: *maxRetries,
		Backoff:    *backoff,
		Verbose:    *verbose,
	}, logger.Get())
	if err != nil {
		os.Stderr.WriteString("replay failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = json.NewEncoder(os.Stdout).Encode(stats)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
