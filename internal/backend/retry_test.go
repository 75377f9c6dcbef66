package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

func fastRetry() RetryOptions {
	return RetryOptions{
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWaitUntilReachable_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := waitUntilReachable(context.Background(), "fake", "fake:1", ping, fastRetry(), logger.New("error", false))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitUntilReachable_TimesOut(t *testing.T) {
	opts := fastRetry()
	opts.ConnectTimeout = 40 * time.Millisecond

	down := errors.New("down")
	err := waitUntilReachable(context.Background(), "fake", "fake:1",
		func(context.Context) error { return down }, opts, logger.New("error", false))

	require.Error(t, err)
	assert.ErrorIs(t, err, down)
}

func TestRetryOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RetryOptions)
	}{
		{name: "zero connect timeout", mutate: func(o *RetryOptions) { o.ConnectTimeout = 0 }},
		{name: "zero retry interval", mutate: func(o *RetryOptions) { o.RetryInterval = 0 }},
		{name: "zero max wait", mutate: func(o *RetryOptions) { o.MaxWait = 0 }},
		{name: "zero ping timeout", mutate: func(o *RetryOptions) { o.PingTimeout = 0 }},
		{name: "negative warn threshold", mutate: func(o *RetryOptions) { o.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fastRetry()
			tt.mutate(&opts)
			assert.Error(t, opts.validate())
		})
	}
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr(), Retry: fastRetry()}, logger.New("error", false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "db.internal:5432", hostOf("postgres://user:pw@db.internal:5432/wedding"))
	assert.Equal(t, "postgres", hostOf("host=localhost user=wedding"))
}
