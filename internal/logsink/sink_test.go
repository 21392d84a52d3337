package logsink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendWritesPerAppFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, true)

	err := s.Append(Entry{App: "web", Level: "info", Msg: "started", Data: json.RawMessage(`{"k":1}`)})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "web.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[info] started") {
		t.Errorf("line = %q", line)
	}
	if !strings.Contains(line, `{"k":1}`) {
		t.Errorf("data payload missing from %q", line)
	}
}

func TestAppendSanitizesAppName(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, true)

	if err := s.Append(Entry{App: "../evil", Level: "warn", Msg: "x"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "___evil.log" {
		t.Errorf("dir entries = %v", entries)
	}
}

func TestDisabledSinkWritesNothing(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, false)

	if err := s.Append(Entry{App: "web", Msg: "dropped"}); err != nil {
		t.Fatalf("Append on disabled sink: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("disabled sink wrote %v", entries)
	}
}
