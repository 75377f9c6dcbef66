package push

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// ErrSubscriptionGone means the push service will never accept this endpoint again.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Sender delivers one encoded payload to one device.
type Sender interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error
	Name() string
}

// Router sends SNS endpoint ARNs through SNS and everything else through Web Push.
type Router struct {
	WebPush Sender
	SNS     Sender // nil when SNS delivery is disabled
}

var errNoTransport = errors.New("no transport configured for endpoint")

func (r *Router) pick(sub domain.PushSubscription) Sender {
	if sub.IsSNS() {
		return r.SNS
	}
	return r.WebPush
}

func (r *Router) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	s := r.pick(sub)
	if s == nil {
		return errNoTransport
	}
	return s.Send(ctx, sub, payload)
}

func (r *Router) Name() string { return "router" }

// transportFor labels metrics with the transport that handled sub.
func transportFor(s Sender, sub domain.PushSubscription) string {
	if r, ok := s.(*Router); ok {
		if t := r.pick(sub); t != nil {
			return t.Name()
		}
		return "none"
	}
	return s.Name()
}
