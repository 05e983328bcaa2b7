package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/okian/palmares/pkg/logger"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeFailed
)

// client wraps http.Client with the replay retry policy.
type client struct {
	http       *http.Client
	baseURL    string
	maxRetries int
	backoff    time.Duration
	verbose    bool
	log        logger.Logger
}

func newClient(cfg Config, log logger.Logger) *client {
	return &client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		verbose:    cfg.Verbose,
		log:        log,
	}
}

// healthy checks GET /healthz.
func (c *client) healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// submit posts one capture, retrying on backpressure with doubling delays.
func (c *client) submit(ctx context.Context, rec Record) (outcome, int) {
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		status, ack, err := c.post(ctx, rec.Body)
		switch {
		case err != nil:
			c.log.Warn(ctx, "capture submit failed", logger.String("source", rec.Source), logger.Error(err))
			return outcomeFailed, attempt
		case status == http.StatusAccepted:
			if c.verbose {
				c.log.Info(ctx, "capture accepted", logger.String("id", ack.ID), logger.String("league", rec.League))
			}
			return outcomeAccepted, attempt
		case status == http.StatusOK && ack.Duplicate:
			return outcomeDuplicate, attempt
		case status == http.StatusTooManyRequests && attempt < c.maxRetries:
			select {
			case <-ctx.Done():
				return outcomeFailed, attempt
			case <-time.After(delay):
			}
			delay *= 2
			continue
		case status == http.StatusBadRequest:
			c.log.Warn(ctx, "capture rejected", logger.String("source", rec.Source), logger.String("league", rec.League))
			return outcomeRejected, attempt
		default:
			c.log.Warn(ctx, "unexpected status", logger.String("source", rec.Source), logger.Int("status", status))
			return outcomeFailed, attempt
		}
	}
}

func (c *client) post(ctx context.Context, body json.RawMessage) (int, AckResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/captures", bytes.NewReader(body))
	if err != nil {
		return 0, AckResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, AckResponse{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, AckResponse{}, err
	}
	var ack AckResponse
	_ = json.Unmarshal(data, &ack)
	return resp.StatusCode, ack, nil
}

// shard maps a league onto a worker so captures of one competition are
// submitted in file order.
func shard(league string, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(league))
	return int(h.Sum32() % uint32(workers)) //nolint:gosec // workers is small and positive
}

// submitAll fans records out to cfg.Workers submitters.
func submitAll(ctx context.Context, c *client, records []Record, workers int, stats *Stats) {
	queues := make([]chan Record, workers)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan Record, workers*2)
		wg.Add(1)
		go func(in <-chan Record) {
			defer wg.Done()
			for rec := range in {
				res, retries := c.submit(ctx, rec)
				mu.Lock()
				stats.Retries += retries
				switch res {
				case outcomeAccepted:
					stats.Accepted++
				case outcomeDuplicate:
					stats.Duplicate++
				case outcomeRejected:
					stats.Rejected++
				default:
					stats.Failed++
				}
				mu.Unlock()
			}
		}(queues[i])
	}

	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return
		case queues[shard(rec.League, workers)] <- rec:
		}
	}
}
