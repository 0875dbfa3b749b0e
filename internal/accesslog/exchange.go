package accesslog

import (
	"context"
	"sync"
)

type exchangeKey struct{}

// exchange is the per-request state the downstream chain can write to.
type exchange struct {
	mu         sync.Mutex
	decision   Decision
	attributes map[string]string
}

func withExchange(ctx context.Context) (context.Context, *exchange) {
	x := &exchange{}
	return context.WithValue(ctx, exchangeKey{}, x), x
}

func exchangeFrom(ctx context.Context) *exchange {
	x, _ := ctx.Value(exchangeKey{}).(*exchange)
	return x
}

// SetDecision records the filter decision for the request carried by ctx.
// It reports false when ctx does not belong to a request seen by a Filter.
func SetDecision(ctx context.Context, d Decision) bool {
	x := exchangeFrom(ctx)
	if x == nil {
		return false
	}
	x.mu.Lock()
	x.decision = d
	x.mu.Unlock()
	return true
}

// DecisionFrom returns the decision recorded so far, Neutral if none.
func DecisionFrom(ctx context.Context) Decision {
	x := exchangeFrom(ctx)
	if x == nil {
		return Neutral
	}
	return x.snapshotDecision()
}

// SetAttribute attaches a request attribute that ends up in the event.
func SetAttribute(ctx context.Context, name, value string) bool {
	x := exchangeFrom(ctx)
	if x == nil {
		return false
	}
	x.mu.Lock()
	if x.attributes == nil {
		x.attributes = make(map[string]string)
	}
	x.attributes[name] = value
	x.mu.Unlock()
	return true
}

func (x *exchange) snapshotDecision() Decision {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.decision
}

func (x *exchange) snapshotAttributes() map[string]string {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make(map[string]string, len(x.attributes))
	for k, v := range x.attributes {
		out[k] = v
	}
	return out
}
