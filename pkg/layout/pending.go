package layout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pending is an in-flight hydration.
type Pending struct {
	layout string
	done   chan struct{}
	err    error
}

func newPending(layout string) *Pending {
	return &Pending{
		layout: layout,
		done:   make(chan struct{}),
	}
}

func settled(layout string, err error) *Pending {
	p := newPending(layout)
	p.settle(err)
	return p
}

func (p *Pending) settle(err error) {
	p.err = err
	close(p.done)
}

// Layout returns the key being hydrated.
func (p *Pending) Layout() string {
	return p.layout
}

// Done is closed once the hydration has been committed to the store.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the error committed to the layout, or nil on success.
// It is only meaningful after Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the hydration settles or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Batch groups hydrations started together, typically when a wizard step is entered.
type Batch []*Pending

// Wait blocks until every hydration settles and returns the first error.
func (b Batch) Wait(ctx context.Context) error {
	var g errgroup.Group
	for _, p := range b {
		if p == nil {
			continue
		}
		g.Go(func() error {
			return p.Wait(ctx)
		})
	}
	return g.Wait()
}

// Settled reports whether every hydration of the batch has settled.
func (b Batch) Settled() bool {
	for _, p := range b {
		if p == nil {
			continue
		}
		select {
		case <-p.done:
		default:
			return false
		}
	}
	return true
}
