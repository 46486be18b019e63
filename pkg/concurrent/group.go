// Package concurrent provides the cooperative-cancellation fan-out
// substrate the driver uses to walk the ObjC and Swift runtime sections
// in parallel: a thin wrapper over golang.org/x/sync/errgroup that binds
// a context.Context to every task and stops the remaining tasks as soon
// as one fails or the caller cancels.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of cancellable work.
type Task func(ctx context.Context) error

// Run executes tasks concurrently under ctx. It returns the first error
// encountered; every other in-flight task is signalled to stop via the
// derived context, though Go does not preempt a task that isn't
// checking ctx.Err() itself.
func Run(ctx context.Context, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(gctx)
		})
	}
	return g.Wait()
}

// Group is a long-lived handle for adding tasks incrementally, useful
// when the set of tasks to run isn't known up front (e.g. one per
// discovered dyld sub-cache).
type Group struct {
	g   *errgroup.Group
	ctx context.Context
}

// NewGroup returns a Group bound to ctx and its derived cancellation.
func NewGroup(ctx context.Context) (*Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{g: g, ctx: gctx}, gctx
}

// Go schedules task to run concurrently with any others already added.
func (grp *Group) Go(task Task) {
	grp.g.Go(func() error {
		return task(grp.ctx)
	})
}

// Wait blocks until every scheduled task returns, and returns the first
// non-nil error seen, if any.
func (grp *Group) Wait() error {
	return grp.g.Wait()
}

// SetLimit bounds the number of tasks running at once; a negative limit
// means no limit.
func (grp *Group) SetLimit(n int) {
	grp.g.SetLimit(n)
}
