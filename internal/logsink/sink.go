package logsink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one client-side log line posted to the sink.
type Entry struct {
	App   string          `json:"app"`
	Level string          `json:"level"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Sink appends client debug logs to per-app files. Disabled sinks
// accept and discard everything so clients need no feature probe.
type Sink struct {
	dir     string
	enabled bool
	mu      sync.Mutex
}

// New creates a sink rooted at dir. The directory is created lazily on
// the first append.
func New(dir string, enabled bool) *Sink {
	return &Sink{dir: dir, enabled: enabled}
}

// Enabled reports whether appends are persisted.
func (s *Sink) Enabled() bool {
	return s.enabled
}

// Append writes one line for the entry. The app name is sanitized
// before it becomes a filename; lines from concurrent appenders never
// interleave.
func (s *Sink) Append(e Entry) error {
	if !s.enabled {
		return nil
	}
	if e.App == "" {
		e.App = "unknown"
	}

	line := fmt.Sprintf("%s [%s] %s", time.Now().Format(time.RFC3339), e.Level, e.Msg)
	if len(e.Data) > 0 {
		line += " " + string(e.Data)
	}
	line += "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, sanitize(e.App)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "_"
	}
	return string(out)
}
