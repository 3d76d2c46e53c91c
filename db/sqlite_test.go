package db

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_IndexAndCount(t *testing.T) {
	db := newTestDB(t)

	if err := db.IndexMessage("t1", "user", "hello there", "gpt-4o", 3); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}
	if err := db.IndexMessage("t1", "assistant", "hi back", "gpt-4o", 2); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}

	count, err := db.CountMessages()
	if err != nil {
		t.Fatalf("CountMessages failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 indexed messages, got %d", count)
	}

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestDB_SearchMessages(t *testing.T) {
	db := newTestDB(t)

	if err := db.IndexMessage("t1", "user", "how do goroutines work", "gpt-4o", 5); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}
	if err := db.IndexMessage("t2", "user", "recipe for pancakes", "gpt-4o", 4); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}

	results, err := db.SearchMessages("goroutines", 10)
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 hit, got %d", len(results))
	}
	if results[0].ThreadID != "t1" {
		t.Errorf("Hit should come from thread t1, got: %s", results[0].ThreadID)
	}
	if !strings.Contains(results[0].Snippet, "<mark>") {
		t.Errorf("Snippet should highlight the match, got: %s", results[0].Snippet)
	}
}

func TestDB_SearchThreadIsScoped(t *testing.T) {
	db := newTestDB(t)

	if err := db.IndexMessage("t1", "user", "shared keyword apple", "gpt-4o", 3); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}
	if err := db.IndexMessage("t2", "user", "shared keyword apple", "gpt-4o", 3); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}

	results, err := db.SearchThread("t2", "apple", 10)
	if err != nil {
		t.Fatalf("SearchThread failed: %v", err)
	}
	if len(results) != 1 || results[0].ThreadID != "t2" {
		t.Errorf("Thread-scoped search leaked other threads: %+v", results)
	}
}

func TestDB_DeleteThreadDropsRowsAndSearchHits(t *testing.T) {
	db := newTestDB(t)

	if err := db.IndexMessage("t1", "user", "keep this banana", "gpt-4o", 3); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}
	if err := db.IndexMessage("t2", "user", "drop this banana", "gpt-4o", 3); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}

	if err := db.DeleteThread("t2"); err != nil {
		t.Fatalf("DeleteThread failed: %v", err)
	}

	results, err := db.SearchMessages("banana", 10)
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(results) != 1 || results[0].ThreadID != "t1" {
		t.Errorf("Deleted thread should vanish from search, got: %+v", results)
	}
}

func TestDB_UsageStats(t *testing.T) {
	db := newTestDB(t)

	if err := db.IndexMessage("t1", "user", "q", "gpt-4o", 100); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}
	if err := db.IndexMessage("t1", "assistant", "a", "gpt-4o", 300); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}
	if err := db.IndexMessage("t2", "assistant", "b", "gpt-4o-mini", 50); err != nil {
		t.Fatalf("IndexMessage failed: %v", err)
	}

	stats, err := db.GetUsageStats(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GetUsageStats failed: %v", err)
	}
	if stats.TotalTokens != 450 {
		t.Errorf("Expected 450 total tokens, got %d", stats.TotalTokens)
	}
	if stats.TotalMessages != 3 {
		t.Errorf("Expected 3 messages, got %d", stats.TotalMessages)
	}
	if stats.ModelStats["gpt-4o"] == nil || stats.ModelStats["gpt-4o"].TotalTokens != 400 {
		t.Errorf("Unexpected per-model stats: %+v", stats.ModelStats)
	}
	if stats.ModelStats["gpt-4o"].EstimatedCost <= 0 {
		t.Error("Cost estimate should be positive for nonzero usage")
	}
}
