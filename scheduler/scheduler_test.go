package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shootmap/config"
)

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

type countingPruner struct {
	calls atomic.Int32
	err   error
}

func (c *countingPruner) PruneExpired(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

type countingTrigger struct{ calls atomic.Int32 }

func (c *countingTrigger) Trigger() { c.calls.Add(1) }

func TestStart_InvalidCron(t *testing.T) {
	tcases := map[string]config.SchedulerConfig{
		"chat prune": {ChatPruneCron: "not a cron"},
		"archive":    {ArchiveCron: "61 * * * *"},
	}

	for name, cfg := range tcases {
		t.Run(name, func(t *testing.T) {
			s := New(cfg, nil, &countingPruner{}, &countingTrigger{})
			err := s.Start(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestStart_RegistersJobs(t *testing.T) {
	cfg := config.SchedulerConfig{ChatPruneCron: "@hourly", ArchiveCron: "0 3 1 * *"}
	s := New(cfg, nil, &countingPruner{}, &countingTrigger{})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 2)
}

func TestStart_SkipsUnconfiguredJobs(t *testing.T) {
	s := New(config.SchedulerConfig{ChatPruneCron: "@hourly", ArchiveCron: "@daily"}, nil, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Empty(t, s.cron.Entries())
	assert.Nil(t, s.ticker)
}

func TestSweepLoop(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(config.SchedulerConfig{SweepInterval: 5 * time.Millisecond}, sweeper, nil, nil)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestPruneChat(t *testing.T) {
	tcases := map[string]error{
		"success": nil,
		"failure": errors.New("backend down"),
	}

	for name, pruneErr := range tcases {
		t.Run(name, func(t *testing.T) {
			pruner := &countingPruner{err: pruneErr}
			s := New(config.SchedulerConfig{}, nil, pruner, nil)
			s.pruneChat(context.Background())
			assert.Equal(t, int32(1), pruner.calls.Load())
		})
	}
}
