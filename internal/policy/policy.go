// Package policy defines the tunable rules of the intake workflow: which
// decision values still count as pending, how retainer tiers discount the
// standard fee, how patiently the decision poller retries, and how similar
// two party names must be before a conflict-of-interest alert arms.
//
// Policy lives in a TOML document checked in next to the record database so
// a firm can adjust tiers without rebuilding the binary. A missing file is
// not an error; built-in defaults apply.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultPath is the conventional location for the policy document.
const DefaultPath = ".intake/policy.toml"

// Tier labels carried by the default policy. The zero-discount tier is
// definitionally free regardless of any server-quoted amount.
const (
	TierGold   = "Gold"
	TierSilver = "Silver"
	TierBronze = "Bronze"
)

// PollPolicy bounds the decision poller's schedule.
type PollPolicy struct {
	MaxAttempts         int `toml:"max_attempts"`
	IntervalSeconds     int `toml:"interval_seconds"`
	InitialDelaySeconds int `toml:"initial_delay_seconds"`
}

// Interval returns the tick interval as a duration.
func (p PollPolicy) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// InitialDelay returns the pre-first-tick delay as a duration.
func (p PollPolicy) InitialDelay() time.Duration {
	return time.Duration(p.InitialDelaySeconds) * time.Second
}

// Policy is the full rule set for one intake deployment.
type Policy struct {
	// PendingSentinels lists decision values that do NOT end polling.
	// Comparison is case-insensitive after trimming.
	PendingSentinels []string `toml:"pending_sentinels"`

	// Tiers maps decision labels to discount fractions in [0,1). A label
	// present with value 0 is a known zero discount, which is distinct from
	// a label that is absent entirely.
	Tiers map[string]float64 `toml:"tiers"`

	// Poll bounds the decision poller.
	Poll PollPolicy `toml:"poll"`

	// ConflictThreshold is the minimum name-similarity score (0..1) that
	// arms a conflict-of-interest alert.
	ConflictThreshold float64 `toml:"conflict_threshold"`
}

// Default returns the built-in policy used when no policy file exists.
func Default() Policy {
	return Policy{
		PendingSentinels: []string{"Pending"},
		Tiers: map[string]float64{
			TierGold:   0,
			TierSilver: 0.5,
			TierBronze: 0.8,
		},
		Poll: PollPolicy{
			MaxAttempts:         5,
			IntervalSeconds:     10,
			InitialDelaySeconds: 10,
		},
		ConflictThreshold: 0.5,
	}
}

// Load reads a policy document from the given path. If the file does not
// exist, the built-in defaults are returned with no error.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Policy{}, fmt.Errorf("policy: read %s: %w", path, err)
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("policy: parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("policy: %s: %w", path, err)
	}
	return p, nil
}

// Save writes the policy document to the given path, creating parent
// directories as needed.
func Save(path string, p Policy) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("policy: create directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("policy: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("policy: write %s: %w", path, err)
	}
	return nil
}

// Validate rejects policies that would misbehave at runtime.
func (p Policy) Validate() error {
	if p.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("poll.max_attempts must be > 0, got %d", p.Poll.MaxAttempts)
	}
	if p.Poll.IntervalSeconds <= 0 {
		return fmt.Errorf("poll.interval_seconds must be > 0, got %d", p.Poll.IntervalSeconds)
	}
	if p.Poll.InitialDelaySeconds < 0 {
		return fmt.Errorf("poll.initial_delay_seconds must be >= 0, got %d", p.Poll.InitialDelaySeconds)
	}
	for label, d := range p.Tiers {
		if d < 0 || d >= 1 {
			return fmt.Errorf("tier %q discount must be in [0,1), got %v", label, d)
		}
	}
	if p.ConflictThreshold < 0 || p.ConflictThreshold > 1 {
		return fmt.Errorf("conflict_threshold must be in [0,1], got %v", p.ConflictThreshold)
	}
	return nil
}

// Discount returns the discount fraction for a decision label and whether the
// label is a known tier. A known zero discount returns (0, true); an unknown
// label returns (0, false). Callers must branch on ok, never on the value
// being zero.
func (p Policy) Discount(label string) (float64, bool) {
	d, ok := p.Tiers[label]
	return d, ok
}
