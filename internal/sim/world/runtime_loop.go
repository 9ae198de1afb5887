package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	defer close(w.done)

	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []CommandEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case env := <-w.inbox:
			pending = append(pending, env)
		case req := <-w.observerJoin:
			w.nextObserver++
			w.observers[w.nextObserver] = req.Out
			if req.Resp != nil {
				req.Resp <- w.nextObserver
			}
		case id := <-w.observerLeave:
			delete(w.observers, id)
		case <-ticker.C:
			w.stepInternal(pending)
			pending = pending[:0]
		}
	}
}

func (w *World) Stop() {
	close(w.stop)
}

// Done is closed when Run returns. Pending CommandEnvelope replies are never
// sent after that point, so anyone waiting on an ack must also select on
// Done.
func (w *World) Done() <-chan struct{} { return w.done }
