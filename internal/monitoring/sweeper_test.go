package monitoring

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	calls atomic.Int32
}

func (f *fakePurger) PurgeExpiredOTPs(now time.Time) (int64, error) {
	f.calls.Add(1)
	return 0, nil
}

func TestSweeperRunsOnceOnStart(t *testing.T) {
	purger := &fakePurger{}
	sweeper := NewSweeper(purger, time.Hour)

	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	require.Equal(t, int32(1), purger.calls.Load())
}
