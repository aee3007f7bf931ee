package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartup(maxAttempts int) *Startup {
	s := New(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.unit = time.Millisecond
	return s
}

func TestStart_RetriesFailedDependency(t *testing.T) {
	var order []string
	redisCalls := 0

	s := newStartup(5)
	s.Add(Func{DependencyName: "redis", StartFunc: func(context.Context) error {
		redisCalls++
		order = append(order, "redis")
		if redisCalls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}})
	s.Add(Func{DependencyName: "kafka", StartFunc: func(context.Context) error {
		order = append(order, "kafka")
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"redis", "redis", "redis", "kafka"}, order)
	assert.Equal(t, StatusStarted, s.Status("redis"))
	assert.Equal(t, StatusStarted, s.Status("kafka"))
}

func TestStart_DoesNotRestartStarted(t *testing.T) {
	first, second := 0, 0

	s := newStartup(3)
	s.Add(Func{DependencyName: "first", StartFunc: func(context.Context) error {
		first++
		return nil
	}})
	s.Add(Func{DependencyName: "second", StartFunc: func(context.Context) error {
		second++
		if second == 1 {
			return errors.New("not yet")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestStart_GivesUp(t *testing.T) {
	s := newStartup(2)
	s.Add(Func{DependencyName: "redis", StartFunc: func(context.Context) error {
		return errors.New("connection refused")
	}})

	err := s.Start(context.Background())
	assert.EqualError(t, err, "startup failed after 2 attempts: connection refused")
	assert.Equal(t, StatusFailed, s.Status("redis"))
}

func TestStart_Canceled(t *testing.T) {
	s := New(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), 3)
	s.Add(Func{DependencyName: "redis", StartFunc: func(context.Context) error {
		return errors.New("connection refused")
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Start(ctx), context.Canceled)
}

func TestStop_ReverseOrder(t *testing.T) {
	var stopped []string
	stop := func(name string) func(context.Context) error {
		return func(context.Context) error {
			stopped = append(stopped, name)
			return nil
		}
	}

	s := newStartup(1)
	s.Add(Func{DependencyName: "redis", StopFunc: stop("redis")})
	s.Add(Func{DependencyName: "kafka", StopFunc: stop("kafka")})
	s.Add(Func{DependencyName: "unused", StartFunc: func(context.Context) error { return errors.New("down") }, StopFunc: stop("unused")})

	require.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"kafka", "redis"}, stopped)
	assert.Equal(t, StatusStopped, s.Status("redis"))
}
