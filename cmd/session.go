package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retainly/intake/internal/audit"
	"github.com/retainly/intake/internal/config"
	"github.com/retainly/intake/internal/intake"
	"github.com/retainly/intake/internal/policy"
	"github.com/retainly/intake/internal/record"
)

// session bundles the open resources a command needs. Close releases them.
type session struct {
	cfg     config.Config
	policy  policy.Policy
	store   *record.SQLiteStore
	audit   *audit.Emitter
	service *intake.Service
}

// openSession loads config and policy and opens the record store and audit
// stream, creating the state directory on first use.
func openSession(ctx context.Context) (*session, error) {
	cfg := config.Load()

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	store, err := record.NewSQLiteStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	emitter, err := audit.NewEmitter(cfg.AuditPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc := intake.NewService(store, pol)
	svc.Audit = emitter

	return &session{
		cfg:     cfg,
		policy:  pol,
		store:   store,
		audit:   emitter,
		service: svc,
	}, nil
}

// Close releases the session's store and audit stream.
func (s *session) Close() {
	_ = s.audit.Close()
	_ = s.store.Close()
}
