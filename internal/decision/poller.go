// Package decision polls the record store for an asynchronous credit
// decision. A poller repeatedly fetches one application's decision field
// until it holds a terminal value or the retry budget runs out, then fires a
// single completion signal so the calling workflow can advance.
//
// The schedule is timer-driven and cooperative: each tick is an independent
// fetch on the poller's own goroutine, ticks never overlap, and cancellation
// guarantees no tick or completion signal is observable after Stop returns.
package decision

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/retainly/intake/internal/audit"
	"github.com/retainly/intake/internal/record"
)

// Outcome categorizes how a poller finished.
type Outcome string

const (
	// OutcomeDecisionFound means a terminal decision value was observed.
	OutcomeDecisionFound Outcome = "DECISION_FOUND"

	// OutcomeTimedOut means the attempt budget was exhausted with the
	// decision still pending.
	OutcomeTimedOut Outcome = "TIMED_OUT"

	// OutcomeFetchFailed means a tick's fetch failed. Fetch failure is
	// terminal for the poller: the remote store is authoritative, so a
	// failed read indicates a broken subscription rather than a blip.
	OutcomeFetchFailed Outcome = "FETCH_FAILED"
)

// Result is the one-shot completion signal emitted by a poller.
type Result struct {
	// Outcome is the completion category.
	Outcome Outcome

	// Snapshot holds the field values read on the completing tick. Zero
	// for OutcomeFetchFailed.
	Snapshot record.Snapshot

	// Attempts is how many counted ticks ran, including the completing one.
	Attempts int

	// Err carries the fetch error for OutcomeFetchFailed.
	Err error
}

// Config bounds a poller's schedule.
type Config struct {
	// MaxAttempts is the counted-tick budget. Must be > 0.
	MaxAttempts int

	// Interval is the delay between ticks. Must be > 0.
	Interval time.Duration

	// InitialDelay is the delay before the first tick. Must be >= 0.
	InitialDelay time.Duration
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be > 0, got %d", c.MaxAttempts)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %v", c.Interval)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial delay must be >= 0, got %v", c.InitialDelay)
	}
	return nil
}

// TargetSource resolves the application id to poll. It may resolve late:
// returning "" skips the current tick without counting it against the
// attempt budget.
type TargetSource func() string

// TerminalFunc reports whether a decision value ends polling. Callers may
// plug in their own predicate to treat additional sentinels as non-terminal.
type TerminalFunc func(decision string) bool

// PendingTerminal returns the default terminality predicate: a decision is
// terminal iff it is non-empty after trimming and, case-insensitively, not
// equal to any of the given pending sentinels.
func PendingTerminal(sentinels ...string) TerminalFunc {
	return func(decision string) bool {
		d := strings.TrimSpace(decision)
		if d == "" {
			return false
		}
		for _, s := range sentinels {
			if strings.EqualFold(d, strings.TrimSpace(s)) {
				return false
			}
		}
		return true
	}
}

// Poller fetches an application's decision fields on a bounded schedule.
// Configure the optional fields before Start; they must not change after.
type Poller struct {
	// Terminal is the terminality predicate. Defaults to
	// PendingTerminal("Pending") when nil.
	Terminal TerminalFunc

	// OnComplete, when set, runs once with the final Result on the
	// poller's goroutine before it exits.
	OnComplete func(Result)

	// Audit, when set, records tick and completion events. A nil emitter
	// is a valid no-op.
	Audit *audit.Emitter

	store  record.Store
	target TargetSource
	cfg    Config

	mu        sync.Mutex
	completed bool
	stopping  bool
	attempts  int

	stop     chan struct{}
	stopOnce sync.Once
	finished chan struct{}
	done     chan Result
}

// New creates a poller for the application resolved by target.
func New(store record.Store, target TargetSource, cfg Config) (*Poller, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("decision: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("decision: target source is required")
	}
	return &Poller{
		store:    store,
		target:   target,
		cfg:      cfg,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
		done:     make(chan Result, 1),
	}, nil
}

// Done returns the one-shot completion channel. The channel is buffered so
// the poller never blocks waiting for the caller to consume the signal.
func (p *Poller) Done() <-chan Result {
	return p.done
}

// Attempts returns how many counted ticks have run so far.
func (p *Poller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Start launches the polling schedule: first tick after InitialDelay, then
// one tick per Interval. ctx cancellation behaves like Stop (no completion
// signal is emitted). Start returns immediately.
func (p *Poller) Start(ctx context.Context) {
	if p.Terminal == nil {
		p.Terminal = PendingTerminal("Pending")
	}

	go func() {
		defer close(p.finished)

		delay := time.NewTimer(p.cfg.InitialDelay)
		defer delay.Stop()
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-delay.C:
		}
		if p.tick(ctx) {
			return
		}

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if p.tick(ctx) {
					return
				}
			}
		}
	}()
}

// Stop cancels the schedule cooperatively and waits for the poll goroutine
// to exit. After Stop returns no further tick runs and no completion signal
// is delivered, even for a tick already in flight. Safe to call more than
// once and after completion.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.stop) })
	<-p.finished
}

// tick runs one scheduled poll attempt. It returns true when the poller is
// finished and the schedule should stop.
func (p *Poller) tick(ctx context.Context) bool {
	id := p.target()
	if id == "" {
		// No resolvable target yet. Skipped ticks do not count against
		// the attempt budget.
		p.Audit.Record(audit.KindPollSkipped, "", "", nil)
		return false
	}

	snap, err := p.store.Fetch(ctx, id, record.DecisionFields)
	if err != nil {
		p.Audit.Record(audit.KindPollFetchFailed, "", id, map[string]any{"error": err.Error()})
		return p.complete(Result{Outcome: OutcomeFetchFailed, Err: err})
	}

	p.mu.Lock()
	p.attempts++
	n := p.attempts
	p.mu.Unlock()

	p.Audit.Record(audit.KindPollTick, "", id, map[string]any{
		"attempt":  n,
		"decision": snap.Decision,
	})

	// Terminal decision takes precedence over attempt exhaustion when both
	// land on the same tick: the caller should see a decision, not a timeout.
	if p.Terminal(snap.Decision) {
		p.Audit.Record(audit.KindDecisionFound, "", id, map[string]any{
			"attempt":  n,
			"decision": snap.Decision,
		})
		return p.complete(Result{Outcome: OutcomeDecisionFound, Snapshot: snap, Attempts: n})
	}
	if n >= p.cfg.MaxAttempts {
		p.Audit.Record(audit.KindPollTimedOut, "", id, map[string]any{"attempts": n})
		return p.complete(Result{Outcome: OutcomeTimedOut, Snapshot: snap, Attempts: n})
	}
	return false
}

// complete emits the completion signal exactly once. A poller that is
// stopping emits nothing: the stopping flag is checked under the same lock
// that guards the completed flag, making cancellation atomic with respect
// to an in-flight tick.
func (p *Poller) complete(r Result) bool {
	p.mu.Lock()
	if p.completed || p.stopping {
		p.mu.Unlock()
		return true
	}
	p.completed = true
	p.mu.Unlock()

	p.done <- r
	if p.OnComplete != nil {
		p.OnComplete(r)
	}
	return true
}
