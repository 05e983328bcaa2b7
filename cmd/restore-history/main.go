// Command restore-history rebuilds one season of a competition from the
// General history. Without -confirm it only prints the history it would
// write.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/config"
	"github.com/okian/palmares/internal/domain/reconcile"
	"github.com/okian/palmares/pkg/logger"
)

func main() {
	var (
		competition = flag.String("competition", "", "Competition to restore")
		seasonLabel = flag.String("season", "", "Season to recover from the general history")
		confirm     = flag.Bool("confirm", false, "Overwrite the competition history")
	)
	flag.Parse()

	if *competition == "" || *seasonLabel == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithJSON(cfg.LogJSON), logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("restore-history")

	store, err := repository.Open(ctx, cfg.StoreBackend, cfg.DataDir, cfg.SQLitePath, repository.WithLogger(log))
	if err != nil {
		log.Fatal(ctx, "open store", logger.Error(err))
	}
	defer store.Close()

	history, err := reconcile.NewRestorer(store, log).Restore(ctx, reconcile.Request{
		Competition: *competition,
		Season:      *seasonLabel,
		General:     cfg.GeneralCompetition,
		Confirm:     *confirm,
	})
	switch {
	case errors.Is(err, reconcile.ErrNotConfirmed):
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(history)
		log.Info(ctx, "dry run, rerun with -confirm to write", logger.Int("snapshots", len(history)))
	case err != nil:
		store.Close()
		log.Fatal(ctx, "restore failed", logger.Error(err))
	default:
		log.Info(ctx, "history restored", logger.Int("snapshots", len(history)))
	}
}
