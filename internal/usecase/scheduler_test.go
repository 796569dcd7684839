package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/classify"
	"MentionMonitor/internal/domain"
)

// manualDriver fires the job once per Start, synchronously.
type manualDriver struct {
	trigger time.Time
	started int
	stopped int
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.started++
	job(d.trigger)
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped++
	return nil
}

func TestSchedulerRunsCycleOnTrigger(t *testing.T) {
	t.Parallel()

	store := &memoryStore{entities: []domain.MonitoredEntity{testEntity()}}
	source := staticSource{"dir-1": {
		{URL: "https://news.example.com/raid", Title: "John Doe arrested", Region: "Maharashtra"},
	}}
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	monitor := NewMonitor(MonitorDeps{
		Pipeline: NewPipeline(PipelineDeps{Now: func() time.Time { return now }}),
		Entities: store,
		Mentions: store,
		Source:   source,
		Rules:    StaticRules{Evaluator: classify.NewEvaluator(classify.DefaultRules())},
	}, MonitorConfig{Pipeline: DefaultPipelineConfig()})

	driver := &manualDriver{trigger: now}
	s := NewScheduler(driver, monitor, nil)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, 1, driver.started)
	assert.Equal(t, 1, driver.stopped)
	assert.Len(t, store.mentions, 1)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
