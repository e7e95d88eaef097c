package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Retry calls connect with exponential backoff until it succeeds, maxElapsed passes or ctx ends.
func Retry[T any](ctx context.Context, name string, maxElapsed time.Duration, connect func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = maxElapsed

	var out T
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		v, err := connect(ctx)
		if err != nil {
			log.Warn().Err(err).Str("backend", name).Int("attempt", attempt).Msg("connection attempt failed")
			return err
		}
		out = v
		return nil
	}, backoff.WithContext(b, ctx))
	return out, err
}
