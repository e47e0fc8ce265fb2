package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/kgraph-dev/kgraph/pkg/logging"
)

// Debouncer batches rapid file system events to avoid excessive reloads
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
	mu          sync.Mutex
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run accumulates paths until the input stays quiet for quietPeriod or
// maxWait elapses since the first unflushed event
func (d *Debouncer) run(ctx context.Context) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
		accumulated  []string
	)

	flush := func() {
		if len(accumulated) == 0 {
			return
		}

		logging.Debug("flushing accumulated record changes", "count", len(accumulated))

		d.output <- ChangeEvent{
			Paths:     accumulated,
			Timestamp: time.Now(),
		}
		accumulated = nil

		if timer != nil {
			timer.Stop()
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			accumulated = append(accumulated, event.Paths...)

			// Reset quiet period timer
			if timer == nil {
				timer = time.NewTimer(d.quietPeriod)
			} else {
				timer.Reset(d.quietPeriod)
			}

			// Start max wait timer on first event
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(d.maxWait)
			}

		case <-timerChan(timer):
			flush()

		case <-timerChan(maxWaitTimer):
			flush()
		}
	}
}

// timerChan returns a timer's channel or nil for an unstarted timer,
// which blocks forever in a select
func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
