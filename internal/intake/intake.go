// Package intake implements the client intake workflow: account creation,
// identity/consent capture, credit-check submission, conflict-of-interest
// scanning against existing accounts, and step advancement once the credit
// decision lands.
package intake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retainly/intake/internal/audit"
	"github.com/retainly/intake/internal/decision"
	"github.com/retainly/intake/internal/policy"
	"github.com/retainly/intake/internal/record"
)

// Workflow steps an application moves through.
const (
	StepIntake   = "intake"
	StepDecision = "decision"
	StepRetainer = "retainer"
	StepReview   = "manual_review"
)

// ErrNoConsent is returned by SubmitCreditCheck when the application has no
// captured consent. A credit check may never run without one.
var ErrNoConsent = errors.New("consent not captured")

// Directory is the store surface the intake workflow needs beyond the narrow
// record.Store contract. *record.SQLiteStore satisfies it.
type Directory interface {
	record.Store

	CreateAccount(ctx context.Context, a record.Account) error
	Accounts(ctx context.Context) ([]record.Account, error)
	AccountNames(ctx context.Context) ([]string, error)
	CreateApplication(ctx context.Context, id, accountID, accountName string) error
}

// Match is one existing account flagged by a conflict scan.
type Match struct {
	AccountName  string
	Counterparty string
	Score        float64
}

// Service orchestrates the intake workflow over a record directory.
type Service struct {
	// Audit, when set, records workflow events. A nil emitter is a valid no-op.
	Audit *audit.Emitter

	// Now stamps consent and submission times. Defaults to time.Now.
	Now func() time.Time

	dir    Directory
	policy policy.Policy
}

// NewService creates a workflow service bound to a directory and policy.
func NewService(dir Directory, pol policy.Policy) *Service {
	return &Service{
		Now:    time.Now,
		dir:    dir,
		policy: pol,
	}
}

// CreateAccount registers a new client account and returns it with a fresh id.
func (s *Service) CreateAccount(ctx context.Context, name, email, phone string) (record.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return record.Account{}, fmt.Errorf("intake: account name is required")
	}
	a := record.Account{
		ID:    uuid.NewString(),
		Name:  name,
		Email: strings.TrimSpace(email),
		Phone: strings.TrimSpace(phone),
	}
	if err := s.dir.CreateAccount(ctx, a); err != nil {
		return record.Account{}, err
	}
	s.Audit.Record(audit.KindAccountCreated, a.ID, "", map[string]any{"name": a.Name})
	return a, nil
}

// OpenApplication creates an intake application for an account and runs the
// conflict-of-interest scan over the matter's counterparty names. When the
// best match reaches the policy threshold the application's conflict alert
// fields are armed.
func (s *Service) OpenApplication(ctx context.Context, account record.Account, counterparties []string) (string, error) {
	id := uuid.NewString()
	if err := s.dir.CreateApplication(ctx, id, account.ID, account.Name); err != nil {
		return "", err
	}

	matches, err := s.ConflictScan(ctx, counterparties)
	if err != nil {
		return "", err
	}
	if len(matches) > 0 {
		best := matches[0]
		err := s.dir.Update(ctx, id, record.Values{
			record.FieldConflictAlert: true,
			record.FieldConflictMessage: fmt.Sprintf(
				"Possible conflict of interest: counterparty %q matches existing client %q",
				best.Counterparty, best.AccountName),
			record.FieldConflictScore: strconv.FormatFloat(best.Score, 'f', -1, 64),
		})
		if err != nil {
			return "", err
		}
		s.Audit.Record(audit.KindConflictArmed, account.ID, id, map[string]any{
			"counterparty": best.Counterparty,
			"match":        best.AccountName,
			"score":        best.Score,
		})
	}
	return id, nil
}

// CaptureConsent stamps the application with the client's identity/consent
// acknowledgment time.
func (s *Service) CaptureConsent(ctx context.Context, appID string) error {
	if err := s.dir.Update(ctx, appID, record.Values{record.FieldConsentAt: s.Now()}); err != nil {
		return err
	}
	s.Audit.Record(audit.KindConsentCaptured, "", appID, nil)
	s.dir.NotifyChanged(appID)
	return nil
}

// SubmitCreditCheck submits the application for an asynchronous credit
// decision. Consent must be on file; the decision field is set to the
// pending sentinel and the submission time is stamped. The decision itself
// arrives later via an external process and is observed by the poller.
func (s *Service) SubmitCreditCheck(ctx context.Context, appID string) error {
	snap, err := s.dir.Fetch(ctx, appID, []string{record.FieldConsentAt})
	if err != nil {
		return err
	}
	if snap.ConsentAt == nil {
		return fmt.Errorf("intake: submit %q: %w", appID, ErrNoConsent)
	}

	err = s.dir.Update(ctx, appID, record.Values{
		record.FieldDecision:    s.pendingSentinel(),
		record.FieldSubmittedAt: s.Now(),
		record.FieldStep:        StepDecision,
	})
	if err != nil {
		return err
	}
	s.Audit.Record(audit.KindCreditSubmitted, "", appID, nil)
	s.dir.NotifyChanged(appID)
	return nil
}

// Advance moves the application to its next workflow step based on how the
// decision poller finished. A found decision advances to the retainer step;
// a timeout routes to manual review; a fetch failure leaves the step alone
// for a later retry.
func (s *Service) Advance(ctx context.Context, appID string, res decision.Result) error {
	var step string
	switch res.Outcome {
	case decision.OutcomeDecisionFound:
		step = StepRetainer
	case decision.OutcomeTimedOut:
		step = StepReview
	default:
		return nil
	}

	if err := s.dir.Update(ctx, appID, record.Values{record.FieldStep: step}); err != nil {
		return err
	}
	s.Audit.Record(audit.KindStepAdvanced, "", appID, map[string]any{
		"step":    step,
		"outcome": string(res.Outcome),
	})
	s.dir.NotifyChanged(appID)
	return nil
}

// ConflictScan scores each counterparty name against every existing account
// name and returns the matches at or above the policy threshold, best first.
func (s *Service) ConflictScan(ctx context.Context, counterparties []string) ([]Match, error) {
	if len(counterparties) == 0 {
		return nil, nil
	}
	names, err := s.dir.AccountNames(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, cp := range counterparties {
		for _, name := range names {
			score := NameSimilarity(cp, name)
			if score >= s.policy.ConflictThreshold {
				matches = append(matches, Match{
					AccountName:  name,
					Counterparty: cp,
					Score:        score,
				})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

func (s *Service) pendingSentinel() string {
	if len(s.policy.PendingSentinels) > 0 {
		return s.policy.PendingSentinels[0]
	}
	return "Pending"
}

// NameSimilarity scores how alike two party names are, in [0,1]. Names are
// lowercased and split into tokens; the score is the Jaccard index of the
// two token sets, so word order and extra whitespace do not matter.
func NameSimilarity(a, b string) float64 {
	ta := nameTokens(a)
	tb := nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inter := 0
	union := len(tb)
	for tok := range ta {
		if tb[tok] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func nameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(name)) {
		t = strings.Trim(t, ".,&")
		if t != "" {
			tokens[t] = true
		}
	}
	return tokens
}
