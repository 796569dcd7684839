package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewCronScheduler("0 */6 * * *", nil, false, nil).Validate())
	assert.Error(t, NewCronScheduler("every six hours", nil, false, nil).Validate())
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	var runs atomic.Int32
	var seen atomic.Value
	s := NewCronScheduler("0 0 1 1 *", loc, true, nil)
	require.NoError(t, s.Start(context.Background(), func(trigger time.Time) {
		seen.Store(trigger.Location().String())
		runs.Add(1)
	}))
	// Second Start is ignored.
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(100) }))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Asia/Kolkata", seen.Load())
	assert.Equal(t, time.January, s.Next().Month())

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, s.Next().IsZero())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	err := NewCronScheduler("61 * * * *", nil, false, nil).Start(context.Background(), func(time.Time) {})
	assert.ErrorContains(t, err, "cron expression")
}
