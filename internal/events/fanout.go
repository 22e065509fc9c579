package events

import (
	"context"
	"errors"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/service"
)

// Fanout рассылает событие всем получателям; ошибка одного не мешает остальным
type Fanout []service.Notifier

func (f Fanout) each(fn func(n service.Notifier) error) error {
	var errs []error
	for _, n := range f {
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) ConnectionRequested(ctx context.Context, c *model.Connection) error {
	return f.each(func(n service.Notifier) error { return n.ConnectionRequested(ctx, c) })
}

func (f Fanout) ConnectionDecided(ctx context.Context, c *model.Connection) error {
	return f.each(func(n service.Notifier) error { return n.ConnectionDecided(ctx, c) })
}

func (f Fanout) BookingsCreated(ctx context.Context, bookings []*model.Booking) error {
	return f.each(func(n service.Notifier) error { return n.BookingsCreated(ctx, bookings) })
}

func (f Fanout) BookingStatusChanged(ctx context.Context, b *model.Booking) error {
	return f.each(func(n service.Notifier) error { return n.BookingStatusChanged(ctx, b) })
}
