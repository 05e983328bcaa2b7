package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/palmares/pkg/logger"
)

// Run loads every capture in cfg.Paths and submits it to the service.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("replay")
	cfg = cfg.withDefaults()
	start := time.Now()

	records, err := Load(cfg.Paths)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Loaded: len(records)}
	log.Info(ctx, "captures loaded",
		logger.Int("captures", len(records)),
		logger.Int("workers", cfg.Workers),
		logger.String("baseURL", cfg.BaseURL),
	)

	c := newClient(cfg, log)
	if err := c.healthy(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	submitAll(ctx, c, records, cfg.Workers, &stats)
	stats.Duration = time.Since(start)

	log.Info(ctx, "replay finished",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("retries", stats.Retries),
		logger.String("duration", stats.Duration.String()),
	)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}
