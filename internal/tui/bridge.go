package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/retainly/intake/internal/conflict"
	"github.com/retainly/intake/internal/decision"
	"github.com/retainly/intake/internal/intake"
	"github.com/retainly/intake/internal/record"
	"github.com/retainly/intake/internal/retainer"
)

// Bridge connects the workflow core to a running TUI program. It owns the
// conflict tracker (single-writer: every Evaluate and Dismiss runs on the
// bridge goroutine) and forwards state changes to the model via Send.
type Bridge struct {
	Store   record.Store
	Hub     *record.Hub
	Service *intake.Service
	Poller  *decision.Poller
	Tracker *conflict.Tracker
	Calc    *retainer.Calculator
	Refresh time.Duration
	AppID   string

	initOnce sync.Once
	dismiss  chan struct{}
	snaps    chan record.Snapshot
	fails    chan error
}

// initChans lazily creates the bridge channels. Both Run and RequestDismiss
// call it, so a keypress arriving before the bridge goroutine is scheduled
// still finds a live channel.
func (b *Bridge) initChans() {
	b.initOnce.Do(func() {
		b.dismiss = make(chan struct{}, 1)
		b.snaps = make(chan record.Snapshot, 4)
		b.fails = make(chan error, 1)
	})
}

// RequestDismiss queues a conflict dismissal for the bridge goroutine.
// Never blocks; repeated requests while one is pending coalesce.
func (b *Bridge) RequestDismiss() {
	b.initChans()
	select {
	case b.dismiss <- struct{}{}:
	default:
	}
}

// Run starts the poller and the conflict-field subscription and pumps events
// into the program until ctx is cancelled. Call from its own goroutine.
func (b *Bridge) Run(ctx context.Context, p *tea.Program) {
	b.initChans()

	cancel := record.Subscribe(b.Store, b.Hub, b.AppID, record.ConflictFields, b.Refresh,
		func(s record.Snapshot) {
			select {
			case b.snaps <- s:
			default:
			}
		},
		func(err error) {
			select {
			case b.fails <- err:
			default:
			}
		})
	defer cancel()

	b.Poller.Start(ctx)
	defer b.Poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-b.Poller.Done():
			var q retainer.Quote
			if res.Outcome == decision.OutcomeDecisionFound {
				q = b.Calc.Quote(res.Snapshot.Decision, res.Snapshot.QuotedAmount, res.Snapshot.ReducedAmount)
			}
			if err := b.Service.Advance(ctx, b.AppID, res); err != nil {
				p.Send(MsgError{Msg: err.Error()})
			}
			p.Send(MsgOutcome{Result: res, Quote: q})

		case snap := <-b.snaps:
			eval := b.Tracker.Evaluate(ctx, snap)
			if eval.Shown {
				p.Send(MsgConflict{Message: eval.Message, Rearmed: eval.Rearmed})
			}

		case err := <-b.fails:
			p.Send(MsgError{Msg: err.Error()})

		case <-b.dismiss:
			b.Tracker.Dismiss(ctx)
			p.Send(MsgConflictCleared{})
		}
	}
}
