package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
	"go.uber.org/goleak"
)

func newTestStore(t *testing.T, cfg FileConfig) *FileStore {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	store, err := NewFileStore(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewFileStore(): %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func readLines(t *testing.T, path string) []audit.Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var records []audit.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec audit.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		records = append(records, rec)
	}
	return records
}

func TestFileStore_AppendWritesJSONL(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := newTestStore(t, FileConfig{Dir: dir})

	now := time.Now().UTC()
	err := store.Append(context.Background(),
		audit.Record{Timestamp: now, EventType: audit.EventViolation, Kind: "injection_attempt", Severity: "critical", Message: "m1"},
		audit.Record{Timestamp: now, EventType: audit.EventQueryDecision, Decision: audit.DecisionDeny, Message: "m2"},
	)
	if err != nil {
		t.Fatalf("Append(): %v", err)
	}
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("Flush(): %v", err)
	}

	path := filepath.Join(dir, "audit-"+now.Format(time.DateOnly)+".log")
	records := readLines(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Kind != "injection_attempt" || records[1].Decision != audit.DecisionDeny {
		t.Errorf("records = %+v", records)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Fatalf("second Close(): %v", err)
	}
}

func TestFileStore_AppendAfterCloseFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newTestStore(t, FileConfig{})
	store.Close()

	err := store.Append(context.Background(), audit.Record{Timestamp: time.Now().UTC()})
	if err == nil {
		t.Fatal("Append() after Close should fail")
	}
}

func TestFileStore_ResumesRotatedSuffix(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	today := time.Now().UTC().Format(time.DateOnly)

	// A prior process left a rotated part behind.
	if err := os.WriteFile(filepath.Join(dir, "audit-"+today+"-2.log"), []byte("{}\n"), 0600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	store := newTestStore(t, FileConfig{Dir: dir})
	if store.suffix != 2 {
		t.Errorf("suffix = %d, want 2", store.suffix)
	}
	store.Close()
}

func TestFileStore_RetentionCleanup(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	oldDate := time.Now().UTC().AddDate(0, 0, -30).Format(time.DateOnly)
	oldPath := filepath.Join(dir, "audit-"+oldDate+".log")
	if err := os.WriteFile(oldPath, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	unrelated := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(unrelated, []byte("x"), 0600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	store := newTestStore(t, FileConfig{Dir: dir, RetentionDays: 7})
	defer store.Close()

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("expired audit file not removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated file must not be touched by cleanup")
	}
}
