package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"MentionMonitor/internal/domain"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) NotifyAlert(context.Context, domain.MonitoredEntity, domain.Mention) error {
	s.calls++
	return s.err
}

func TestFanoutDeliversToEveryChannel(t *testing.T) {
	t.Parallel()

	ok := &stubNotifier{}
	broken := &stubNotifier{err: errors.New("telegram down")}
	f := NewFanout(nil,
		Named{Name: "telegram", Notifier: broken},
		Named{Name: "nats", Notifier: ok},
		Named{Name: "unset"},
	)

	assert.Equal(t, 2, f.Len())
	assert.NoError(t, f.NotifyAlert(context.Background(), domain.MonitoredEntity{}, domain.Mention{}))
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, broken.calls)
}

func TestFanoutFailsWhenNoChannelAccepts(t *testing.T) {
	t.Parallel()

	f := NewFanout(nil, Named{Name: "telegram", Notifier: &stubNotifier{err: errors.New("403")}})
	err := f.NotifyAlert(context.Background(), domain.MonitoredEntity{}, domain.Mention{})

	assert.ErrorContains(t, err, "telegram: 403")
}
