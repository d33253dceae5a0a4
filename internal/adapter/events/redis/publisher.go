package redis

import (
	"context"
	"fmt"

	"loan-engine/internal/domain/loan"

	backend "github.com/redis/go-redis/v9"
)

var _ loan.Publisher = (*Publisher)(nil)

// Publisher appends committed loan events to a Redis stream. Each entry
// carries the event name followed by the event fields in declaration order.
type Publisher struct {
	client backend.Cmdable
	stream string
	maxLen int64
}

type Option func(*Publisher)

// WithMaxLen trims the stream to roughly n entries on every append.
func WithMaxLen(n int64) Option { return func(p *Publisher) { p.maxLen = n } }

func NewPublisher(client backend.Cmdable, stream string, opts ...Option) *Publisher {
	p := &Publisher{client: client, stream: stream}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, ev loan.Event) error {
	args := &backend.XAddArgs{
		Stream: p.stream,
		Values: values(ev),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s %s: %w", p.stream, ev.Name(), err)
	}
	return nil
}

func values(ev loan.Event) []interface{} {
	fields := ev.Fields()
	out := make([]interface{}, 0, 2+2*len(fields))
	out = append(out, "event", ev.Name())
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
