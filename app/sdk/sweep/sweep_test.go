package sweep_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jcpaschoal/painel-swim/app/sdk/sweep"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls int
	err   error
}

func (s *countingSweeper) Sweep(ctx context.Context) (subscriptionbus.SweepResult, error) {
	s.calls++
	if s.err != nil {
		return subscriptionbus.SweepResult{}, s.err
	}
	return subscriptionbus.SweepResult{Suspended: 2, PastDue: 1}, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestRunTakesAndReleasesLock(t *testing.T) {
	mr, client := setupRedis(t)

	sw := countingSweeper{}
	s, err := sweep.New(logger.Discard(), &sw, sweep.NewRedisLock(client), sweep.Config{
		Spec:    "@every 1m",
		LockKey: "painel:sweep",
	})
	require.NoError(t, err)

	res, ran, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, ran)
	assert.Equal(t, int64(2), res.Suspended)
	assert.Equal(t, int64(1), res.PastDue)
	assert.Equal(t, 1, sw.calls)
	assert.False(t, mr.Exists("painel:sweep"), "lock released after the run")
}

func TestRunSkipsWhenLockHeld(t *testing.T) {
	mr, client := setupRedis(t)

	require.NoError(t, mr.Set("painel:sweep", "other-instance"))

	sw := countingSweeper{}
	s, err := sweep.New(logger.Discard(), &sw, sweep.NewRedisLock(client), sweep.Config{Spec: "@every 1m"})
	require.NoError(t, err)

	_, ran, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, ran)
	assert.Zero(t, sw.calls)

	got, err := mr.Get("painel:sweep")
	require.NoError(t, err)
	assert.Equal(t, "other-instance", got, "foreign lock untouched")
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	mr, client := setupRedis(t)
	lock := sweep.NewRedisLock(client)
	ctx := context.Background()

	release, ok, err := lock.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("k", "someone-else"))

	require.NoError(t, release(ctx))

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRunWithoutLocker(t *testing.T) {
	sw := countingSweeper{err: errors.New("db down")}
	s, err := sweep.New(logger.Discard(), &sw, nil, sweep.Config{Spec: "@every 1m"})
	require.NoError(t, err)

	_, ran, err := s.Run(context.Background())
	assert.True(t, ran)
	assert.Error(t, err)
}

func TestBadSpec(t *testing.T) {
	_, err := sweep.New(logger.Discard(), &countingSweeper{}, nil, sweep.Config{Spec: "not a spec"})
	assert.Error(t, err)
}
