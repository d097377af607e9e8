// Package inbox watches a drop directory for intake request files. Each
// request is a small TOML document describing a prospective client; when one
// appears (or changes) it is parsed and ingested into the workflow: account
// created, application opened, conflict scan run, and consent captured when
// the request carries it.
//
// The drop directory is the file-based intake channel for front-office
// tooling that cannot call the CLI directly.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/retainly/intake/internal/audit"
	"github.com/retainly/intake/internal/intake"
	"github.com/retainly/intake/internal/notify"
)

// Request is the on-disk intake request format.
type Request struct {
	// Name is the prospective client's full name. Required.
	Name string `toml:"name"`

	Email string `toml:"email"`
	Phone string `toml:"phone"`

	// Counterparties lists the opposing parties of the matter, used by the
	// conflict-of-interest scan.
	Counterparties []string `toml:"counterparties"`

	// Consent records that the client acknowledged the identity/consent
	// disclosure when the request was taken.
	Consent bool `toml:"consent"`
}

// ParseRequest reads and validates a request file.
func ParseRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("inbox: read %s: %w", path, err)
	}
	var req Request
	if err := toml.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("inbox: parse %s: %w", path, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return Request{}, fmt.Errorf("inbox: %s: name is required", path)
	}
	return req, nil
}

// Watcher monitors a drop directory for request files using fsnotify and
// ingests each one through the intake service.
type Watcher struct {
	// Toaster surfaces rejected request files. Defaults to notify.Discard.
	Toaster notify.Toaster

	// Audit, when set, records ingest events. A nil emitter is a valid no-op.
	Audit *audit.Emitter

	dir     string
	svc     *intake.Service
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for the given drop directory, creating the
// directory if needed.
func NewWatcher(dir string, svc *intake.Service) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: ensure drop dir %s: %w", dir, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("inbox: create watcher: %w", err)
	}
	return &Watcher{
		Toaster: notify.Discard{},
		dir:     dir,
		svc:     svc,
		watcher: fw,
		done:    make(chan struct{}),
	}, nil
}

// Start ingests any request files already present, then begins watching the
// drop directory. It returns immediately; processing happens on the
// watcher's own goroutine until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("inbox: scan drop dir %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && isRequestFile(e.Name()) {
			w.ingest(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.dir, err)
	}
	go w.loop(ctx)
	return nil
}

// Stop closes the watcher and waits for the processing loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	// Debounce: editors and SMB mounts fire several events per save.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.ingest(ctx, file)
				}
				return
			}
			if !isRequestFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending[event.Name] = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					w.ingest(ctx, file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event or rescan catches up.
		}
	}
}

// ingest processes one request file. A malformed file is surfaced and
// skipped; it stays in place so the author can fix and re-save it. A
// successfully ingested file is renamed with a ".done" suffix so re-running
// the watcher does not double-ingest.
func (w *Watcher) ingest(ctx context.Context, path string) {
	req, err := ParseRequest(path)
	if err != nil {
		w.Audit.Record(audit.KindRequestRejected, "", "", map[string]any{
			"file":  filepath.Base(path),
			"error": err.Error(),
		})
		w.Toaster.Toast("Intake request rejected", err.Error(), notify.SeverityWarning)
		return
	}

	account, err := w.svc.CreateAccount(ctx, req.Name, req.Email, req.Phone)
	if err != nil {
		w.Toaster.Toast("Intake request failed", err.Error(), notify.SeverityError)
		return
	}
	appID, err := w.svc.OpenApplication(ctx, account, req.Counterparties)
	if err != nil {
		w.Toaster.Toast("Intake request failed", err.Error(), notify.SeverityError)
		return
	}
	if req.Consent {
		if err := w.svc.CaptureConsent(ctx, appID); err != nil {
			w.Toaster.Toast("Consent capture failed", err.Error(), notify.SeverityWarning)
		}
	}

	w.Audit.Record(audit.KindRequestIngested, account.ID, appID, map[string]any{
		"file": filepath.Base(path),
	})
	w.Toaster.Toast("Intake request ingested",
		fmt.Sprintf("%s → application %s", req.Name, appID), notify.SeveritySuccess)

	if err := os.Rename(path, path+".done"); err != nil {
		w.Toaster.Toast("Inbox", fmt.Sprintf("could not mark %s done: %v", filepath.Base(path), err), notify.SeverityWarning)
	}
}

// isRequestFile reports whether a path looks like an intake request document.
func isRequestFile(name string) bool {
	return strings.HasSuffix(filepath.Base(name), ".toml")
}
