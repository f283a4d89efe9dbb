// Package redis opens go-redis clients for the Redis store backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Retry bounds the initial connection attempts.
type Retry struct {
	Timeout     time.Duration // total time allowed before giving up
	Interval    time.Duration // first wait between attempts, doubled after each failure
	MaxInterval time.Duration // cap for Interval
	PingTimeout time.Duration // bound of a single PING
}

func (r Retry) validate() error {
	switch {
	case r.Timeout <= 0:
		return fmt.Errorf("retry timeout must be > 0, got %v", r.Timeout)
	case r.Interval <= 0:
		return fmt.Errorf("retry interval must be > 0, got %v", r.Interval)
	case r.MaxInterval < r.Interval:
		return fmt.Errorf("max retry interval %v is below the retry interval %v", r.MaxInterval, r.Interval)
	case r.PingTimeout <= 0:
		return fmt.Errorf("ping timeout must be > 0, got %v", r.PingTimeout)
	}
	return nil
}

// Connect parses a redis:// or rediss:// URL, then pings the server until it
// answers, r.Timeout elapses or ctx is cancelled.
func Connect(ctx context.Context, rawURL string, poolSize int, r Retry, log logger.Logger) (*redis.Client, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}

	client := redis.NewClient(opts)
	if err := waitReady(ctx, client, r, log.With(logger.String("addr", opts.Addr))); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitReady(parent context.Context, client *redis.Client, r Retry, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, r.Timeout)
	defer cancel()

	start := time.Now()
	wait := r.Interval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, r.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("redis reachable after retries",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("redis connected")
			}
			return nil
		}

		log.Warn("redis ping failed",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(parent.Err(), context.Canceled) {
				return fmt.Errorf("redis connection cancelled after %d attempts: %w", attempt, parent.Err())
			}
			log.Error("redis unavailable, giving up",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", r.Timeout))
			return fmt.Errorf("redis unavailable after %d attempts (timeout %v): %w", attempt, r.Timeout, err)
		case <-timer.C:
			wait = min(wait*2, r.MaxInterval)
		}
	}
}
