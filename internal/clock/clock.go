// Package clock provides the shared time reference: the local clock corrected by an offset
// measured once against a network time server.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/ntp"
	"github.com/jonboulle/clockwork"
)

type Config struct {
	Server  string
	Timeout time.Duration
}

// queryFunc returns the network time reported by server.
type queryFunc func(server string, timeout time.Duration) (time.Time, error)

type Service struct {
	clock  clockwork.Clock
	offset time.Duration
}

func NewWithOffset(clk clockwork.Clock, offset time.Duration) *Service {
	return &Service{
		clock:  clk,
		offset: offset,
	}
}

// Sync performs a single network time query. Any failure, including the timeout, leaves the offset
// at zero and is only logged.
func Sync(ctx context.Context, cfg *Config, clk clockwork.Clock, logger *slog.Logger) *Service {
	return syncClock(ctx, cfg, clk, queryNTP, logger)
}

func syncClock(ctx context.Context, cfg *Config, clk clockwork.Clock, query queryFunc, logger *slog.Logger) *Service {
	if cfg.Server == "" {
		logger.InfoContext(ctx, "clock sync disabled, using local clock")
		return NewWithOffset(clk, 0)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	type result struct {
		t   time.Time
		err error
	}

	done := make(chan result, 1)
	go func() {
		t, err := query(cfg.Server, cfg.Timeout)
		done <- result{t: t, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.WarnContext(ctx, "clock sync degraded, using local clock", "server", cfg.Server, "error", ctx.Err())
		return NewWithOffset(clk, 0)
	case res := <-done:
		if res.err != nil {
			logger.WarnContext(ctx, "clock sync degraded, using local clock", "server", cfg.Server, "error", res.err)
			return NewWithOffset(clk, 0)
		}

		offset := res.t.Sub(clk.Now())
		logger.InfoContext(ctx, "clock synced", "server", cfg.Server, "offset_ms", offset.Milliseconds())

		return NewWithOffset(clk, offset)
	}
}

func queryNTP(server string, timeout time.Duration) (time.Time, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query ntp server: %w", err)
	}

	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("invalid ntp response: %w", err)
	}

	return resp.Time, nil
}

// Now returns the corrected current time.
func (s *Service) Now() time.Time {
	return s.clock.Now().Add(s.offset)
}

func (s *Service) Offset() time.Duration {
	return s.offset
}
