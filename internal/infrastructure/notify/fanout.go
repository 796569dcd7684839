// Package notify combines several alert channels into one ports.Notifier.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

// Named pairs a channel with the label used in error messages.
type Named struct {
	Name     string
	Notifier ports.Notifier
}

// Fanout delivers every alert to all channels. One failing channel does not
// stop delivery to the rest.
type Fanout struct {
	channels []Named
	logger   *slog.Logger
}

var _ ports.Notifier = (*Fanout)(nil)

// NewFanout skips nil notifiers.
func NewFanout(logger *slog.Logger, channels ...Named) *Fanout {
	f := &Fanout{logger: logger}
	for _, ch := range channels {
		if ch.Notifier != nil {
			f.channels = append(f.channels, ch)
		}
	}
	return f
}

// Len returns the number of wired channels.
func (f *Fanout) Len() int {
	return len(f.channels)
}

// NotifyAlert returns the joined channel errors. An alert counts as delivered
// when at least one channel accepted it.
func (f *Fanout) NotifyAlert(ctx context.Context, entity domain.MonitoredEntity, m domain.Mention) error {
	var errs []error
	for _, ch := range f.channels {
		if err := ch.Notifier.NotifyAlert(ctx, entity, m); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	if len(errs) > 0 && len(errs) == len(f.channels) {
		return errors.Join(errs...)
	}
	if len(errs) > 0 && f.logger != nil {
		f.logger.Warn("alert partially delivered", "mention", m.ID, "err", errors.Join(errs...))
	}
	return nil
}
