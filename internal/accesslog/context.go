package accesslog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// ErrContextClosed is returned by Emit after Close.
var ErrContextClosed = errors.New("accesslog: context closed")

// Backend receives finished events.
type Backend interface {
	Emit(e *Event) error
}

// Appender persists or ships events.
type Appender interface {
	Name() string
	Append(e *Event) error
	Close() error
}

// EventFilter votes on whether an event is emitted.
type EventFilter interface {
	Decide(e *Event) Decision
}

// EventFilterFunc adapts a function to EventFilter.
type EventFilterFunc func(e *Event) Decision

// Decide calls f(e).
func (f EventFilterFunc) Decide(e *Event) Decision { return f(e) }

// Context is the production Backend: a filter chain in front of a set of
// named appenders.
type Context struct {
	name    string
	logger  zerolog.Logger
	metrics *Metrics

	mu        sync.RWMutex
	appenders []Appender
	filters   []EventFilter
	closed    bool
}

// NewContext creates an empty context. metrics may be nil.
func NewContext(name string, logger zerolog.Logger, metrics *Metrics) *Context {
	return &Context{
		name:    name,
		logger:  logger.With().Str("context", name).Logger(),
		metrics: metrics,
	}
}

// Name returns the context name, usually the configuration source.
func (c *Context) Name() string {
	return c.name
}

// AddAppender attaches an appender. Names must be unique.
func (c *Context) AddAppender(a Appender) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.appenders {
		if existing.Name() == a.Name() {
			return fmt.Errorf("appender %q already attached", a.Name())
		}
	}
	c.appenders = append(c.appenders, a)
	return nil
}

// Appenders returns the attached appenders in attach order.
func (c *Context) Appenders() []Appender {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Appender(nil), c.appenders...)
}

// AddFilter appends a filter to the chain.
func (c *Context) AddFilter(f EventFilter) {
	c.mu.Lock()
	c.filters = append(c.filters, f)
	c.mu.Unlock()
}

// Decide runs the filter chain. The first non-neutral reply wins.
func (c *Context) Decide(e *Event) Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.filters {
		if d := f.Decide(e); d != Neutral {
			return d
		}
	}
	return Neutral
}

// Emit hands e to every appender unless the event or the filter chain
// denies it. Appender errors are combined; the remaining appenders still run.
func (c *Context) Emit(e *Event) error {
	reply := e.Decision
	if reply == Neutral {
		reply = c.Decide(e)
	}
	c.logger.Debug().Stringer("event", e).Stringer("reply", reply).Msg("Emitting access event")
	if reply == Deny {
		c.metrics.incSuppressed()
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrContextClosed
	}
	var err error
	for _, a := range c.appenders {
		if aerr := a.Append(e); aerr != nil {
			err = multierr.Append(err, fmt.Errorf("appender %q: %w", a.Name(), aerr))
		}
	}
	if err == nil {
		c.metrics.incEmitted()
	}
	return err
}

// Close detaches and closes every appender and clears the filter chain.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Debug().Msg("Closing access log context")
	var err error
	for _, a := range c.appenders {
		err = multierr.Append(err, a.Close())
	}
	c.appenders = nil
	c.filters = nil
	return err
}

func (c *Context) String() string {
	return "Context(" + c.name + ")"
}
