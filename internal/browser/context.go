package browser

import (
	"context"
)

// CombineContext derives from session, which carries the chromedp target, and is
// also canceled when op ends. Values always come from session.
func CombineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(session)
	if deadline, ok := op.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		inner := cancel
		cancel = func() {
			cancelDeadline()
			inner()
		}
	}

	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// Detach returns a context for cleanup work that must outlive ctx, such as closing
// the browser after the run was interrupted.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
