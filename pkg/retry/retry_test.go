package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout_ReturnsValue(t *testing.T) {
	got, err := WithTimeout(context.Background(), time.Second, "", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWithTimeout_Expires(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, "listing visuals", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return 0, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "listing visuals")
}

func TestDo(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		retries   int
		failUntil int
		wantCalls int32
		wantErr   bool
	}{
		{name: "first attempt succeeds", retries: 3, failUntil: 0, wantCalls: 1},
		{name: "succeeds on last attempt", retries: 3, failUntil: 3, wantCalls: 4},
		{name: "exhausts attempts", retries: 3, failUntil: 10, wantCalls: 4, wantErr: true},
		{name: "no retries", retries: 0, failUntil: 10, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			_, err := Do(context.Background(), Options{Retries: tt.retries}, func(ctx context.Context) (string, error) {
				n := atomic.AddInt32(&calls, 1)
				if int(n) <= tt.failUntil {
					return "", boom
				}
				return "ok", nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, boom)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	_, err := Do(ctx, Options{Retries: 5, Delay: time.Hour}, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return 0, errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls)
}

func TestDelay(t *testing.T) {
	opts := Options{Delay: time.Second}
	assert.Equal(t, time.Second, Delay(opts, 0))
	assert.Equal(t, time.Second, Delay(opts, 3))

	opts.Backoff = true
	assert.Equal(t, time.Second, Delay(opts, 0))
	assert.Equal(t, 2*time.Second, Delay(opts, 1))
	assert.Equal(t, 8*time.Second, Delay(opts, 3))

	opts.MaxDelay = 5 * time.Second
	assert.Equal(t, 5*time.Second, Delay(opts, 3))
}

func TestPoll(t *testing.T) {
	t.Run("ready on third check", func(t *testing.T) {
		var calls int
		err := Poll(context.Background(), time.Millisecond, 50, func(ctx context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("never ready", func(t *testing.T) {
		var calls int
		err := Poll(context.Background(), time.Millisecond, 5, func(ctx context.Context) (bool, error) {
			calls++
			return false, nil
		})
		assert.ErrorIs(t, err, ErrPollExhausted)
		assert.Equal(t, 5, calls)
	})

	t.Run("check error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		err := Poll(context.Background(), time.Millisecond, 5, func(ctx context.Context) (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestSequential(t *testing.T) {
	var order []int
	task := func(i int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			order = append(order, i)
			if i == 2 {
				return 0, errors.New("two")
			}
			return i * 10, nil
		}
	}

	got, err := Sequential(context.Background(), []func(context.Context) (int, error){task(0), task(1), task(2), task(3)})
	require.Error(t, err)
	assert.Equal(t, []int{0, 10}, got)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestWithConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	tasks := make([]func(context.Context) (int, error), 8)
	for i := range tasks {
		tasks[i] = func(context.Context) (int, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return i, nil
		}
	}

	got, err := WithConcurrencyLimit(context.Background(), 2, tasks)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, got)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
