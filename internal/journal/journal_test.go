package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"soccer-arena/internal/evaluator"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

// TestJournalWritesJSONL verifies records are flushed on Stop in order
func TestJournalWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j := New()
	if err := j.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	j.RecordOutcome(evaluator.Skipped(evaluator.KindScheduled, 1, 0, "insufficient_candidates"))
	if !j.Emit(RecordOutcome, "m-1", map[string]int{"frames": 10}) {
		t.Fatal("Expected Emit to succeed")
	}
	j.Stop()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["type"] != "skip" || lines[1]["type"] != "outcome" {
		t.Errorf("Unexpected types %v, %v", lines[0]["type"], lines[1]["type"])
	}
	if lines[0]["sequence"].(float64) >= lines[1]["sequence"].(float64) {
		t.Error("Expected increasing sequence numbers")
	}
	payload := lines[0]["payload"].(map[string]any)
	if payload["skip_reason"] != "insufficient_candidates" {
		t.Errorf("Expected the outcome as payload, got %v", payload)
	}
}

// TestJournalStopped verifies emits are refused before Start and after Stop
func TestJournalStopped(t *testing.T) {
	j := New()
	if j.Emit(RecordGoal, "m", nil) {
		t.Error("Expected Emit to fail before Start")
	}
	if err := j.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	j.Stop()
	j.Stop()
	if j.Emit(RecordGoal, "m", nil) {
		t.Error("Expected Emit to fail after Stop")
	}
	if j.Stats()["running"] != false {
		t.Error("Expected running=false")
	}
}

// TestJournalBadPath verifies open errors are returned
func TestJournalBadPath(t *testing.T) {
	j := New()
	if err := j.Start(filepath.Join(t.TempDir(), "missing", "journal.jsonl")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

// TestJournalWriteFailureCountsDropped verifies failed writes are not
// reported as written
func TestJournalWriteFailureCountsDropped(t *testing.T) {
	j := New()
	if err := j.Start(filepath.Join(t.TempDir(), "journal.jsonl")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	j.fileMu.Lock()
	j.file.Close()
	j.fileMu.Unlock()

	for i := 0; i < 3; i++ {
		if !j.Emit(RecordGoal, "m", GoalPayload{Cycle: i}) {
			t.Fatalf("Expected Emit %d to succeed", i)
		}
	}
	j.Stop()

	if got := j.Dropped(); got != 3 {
		t.Errorf("Expected 3 dropped records, got %d", got)
	}
	if got := j.Stats()["written"]; got != uint64(0) {
		t.Errorf("Expected 0 written records, got %v", got)
	}
}

// TestRecordTypeString verifies names
func TestRecordTypeString(t *testing.T) {
	tests := []struct {
		typ  RecordType
		want string
	}{
		{RecordOutcome, "outcome"},
		{RecordSkip, "skip"},
		{RecordGoal, "goal"},
		{RecordUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}
