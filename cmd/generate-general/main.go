// Command generate-general rebuilds the General competition history from
// the configured league histories.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/config"
	"github.com/okian/palmares/internal/domain/aggregate"
	"github.com/okian/palmares/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("generate-general")

	store, err := repository.Open(ctx, cfg.StoreBackend, cfg.DataDir, cfg.SQLitePath, repository.WithLogger(log))
	if err != nil {
		log.Fatal(ctx, "open store", logger.Error(err))
	}
	defer store.Close()

	agg, err := aggregate.New(store,
		aggregate.WithLeagues(cfg.Leagues()...),
		aggregate.WithGeneralName(cfg.GeneralCompetition),
		aggregate.WithSeasonTop(cfg.SeasonTopLimit),
		aggregate.WithAllTimeTop(cfg.AllTimeTopLimit),
		aggregate.WithLogger(log),
	)
	if err != nil {
		log.Fatal(ctx, "create aggregator", logger.Error(err))
	}

	res, err := agg.Run(ctx)
	for _, s := range res.Skipped {
		log.Warn(ctx, "league skipped", logger.String("competition", s.Competition), logger.String("reason", s.Reason))
	}
	if err != nil {
		store.Close()
		log.Fatal(ctx, "aggregation failed", logger.Error(err))
	}
	log.Info(ctx, "done",
		logger.String("run_id", res.RunID),
		logger.Int("snapshots", len(res.Snapshots)),
		logger.Int("skipped", len(res.Skipped)),
	)
}
