package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers one payload to a sink.
type Notifier interface {
	Send(ctx context.Context, p Payload) error
}

// Multi fans a payload out to several sinks and reports every failure.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, p Payload) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, p))
	}
	return err
}
