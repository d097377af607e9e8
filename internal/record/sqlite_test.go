package record

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedApplication(t *testing.T, store *SQLiteStore, appID string) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateAccount(ctx, Account{ID: "acct-1", Name: "Jane Doe"}); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := store.CreateApplication(ctx, appID, "acct-1", "Jane Doe"); err != nil {
		t.Fatalf("create application: %v", err)
	}
}

func TestFetchNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Fetch(context.Background(), "missing", DecisionFields)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch error = %v, want ErrNotFound", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(context.Background(), "missing", Values{FieldDecision: "Approved"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	seedApplication(t, store, "app-1")

	err := store.Update(context.Background(), "app-1", Values{"no_such_field": "x"})
	if err == nil {
		t.Fatal("Update accepted an unknown field")
	}
}

func TestUpdateAndFetchRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedApplication(t, store, "app-1")
	ctx := context.Background()

	consent := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	err := store.Update(ctx, "app-1", Values{
		FieldDecision:          "Silver",
		FieldQuotedAmount:      1500.0,
		FieldConflictAlert:     true,
		FieldConflictScore:     "7",
		FieldConflictSignature: "7",
		FieldConsentAt:         consent,
		FieldStep:              "decision",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	fields := []string{
		FieldDecision, FieldQuotedAmount, FieldReducedAmount, FieldAccountName,
		FieldConflictAlert, FieldConflictScore, FieldConflictSignature,
		FieldConsentAt, FieldStep,
	}
	snap, err := store.Fetch(ctx, "app-1", fields)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if snap.Decision != "Silver" {
		t.Errorf("decision = %q, want %q", snap.Decision, "Silver")
	}
	if snap.QuotedAmount == nil || *snap.QuotedAmount != 1500 {
		t.Errorf("quoted = %v, want 1500", snap.QuotedAmount)
	}
	if snap.ReducedAmount != nil {
		t.Errorf("reduced = %v, want nil", snap.ReducedAmount)
	}
	if snap.AccountName != "Jane Doe" {
		t.Errorf("account name = %q, want %q", snap.AccountName, "Jane Doe")
	}
	if !snap.ConflictAlert || snap.ConflictScore != "7" || snap.ConflictSignature != "7" {
		t.Errorf("conflict fields = %v/%q/%q", snap.ConflictAlert, snap.ConflictScore, snap.ConflictSignature)
	}
	if snap.ConsentAt == nil || !snap.ConsentAt.Equal(consent) {
		t.Errorf("consent = %v, want %v", snap.ConsentAt, consent)
	}
	if snap.Step != "decision" {
		t.Errorf("step = %q, want %q", snap.Step, "decision")
	}
}

func TestFetchProjectsRequestedFieldsOnly(t *testing.T) {
	store := newTestStore(t)
	seedApplication(t, store, "app-1")
	ctx := context.Background()

	if err := store.Update(ctx, "app-1", Values{FieldDecision: "Approved", FieldConflictAlert: true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	snap, err := store.Fetch(ctx, "app-1", []string{FieldConflictAlert})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !snap.ConflictAlert {
		t.Error("requested field missing from projection")
	}
	if snap.Decision != "" {
		t.Errorf("unrequested decision leaked into projection: %q", snap.Decision)
	}
}

func TestDefaultStepIsIntake(t *testing.T) {
	store := newTestStore(t)
	seedApplication(t, store, "app-1")

	snap, err := store.Fetch(context.Background(), "app-1", []string{FieldStep})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if snap.Step != "intake" {
		t.Errorf("step = %q, want %q", snap.Step, "intake")
	}
}

func TestAccounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, a := range []Account{
		{ID: "a1", Name: "Jane Doe", Email: "jane@example.com"},
		{ID: "a2", Name: "Acme Corp"},
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}

	accounts, err := store.Accounts(ctx)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	if accounts[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}

	names, err := store.AccountNames(ctx)
	if err != nil {
		t.Fatalf("account names: %v", err)
	}
	if len(names) != 2 || names[0] != "Acme Corp" || names[1] != "Jane Doe" {
		t.Errorf("names = %v", names)
	}
}

func TestApplications(t *testing.T) {
	store := newTestStore(t)
	seedApplication(t, store, "app-1")

	ids, err := store.Applications(context.Background())
	if err != nil {
		t.Fatalf("applications: %v", err)
	}
	if len(ids) != 1 || ids[0] != "app-1" {
		t.Errorf("ids = %v", ids)
	}
}

func TestParseTimestampFormats(t *testing.T) {
	cases := []string{"2026-08-01T09:30:00Z", "2026-08-01 09:30:00"}
	for _, s := range cases {
		if _, err := parseTimestamp(s); err != nil {
			t.Errorf("parseTimestamp(%q): %v", s, err)
		}
	}
	if _, err := parseTimestamp("not a time"); err == nil {
		t.Error("parseTimestamp accepted garbage")
	}
}
