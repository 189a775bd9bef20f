package bus

import "context"

// Handler processes one raw bus message. Returning an error signals the
// transport's failure path (nack, drop); the transports never retry a
// message themselves.
type Handler func(ctx context.Context, raw []byte) error

// Consumer is a long-running bus subscription. Run blocks until ctx is
// cancelled or the transport fails terminally. Processing is sequential per
// consumer; parallelism comes from running more consumer processes in the
// same group/queue.
type Consumer interface {
	Run(ctx context.Context, handler Handler) error
	Close() error
}
