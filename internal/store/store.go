package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"realtime-hub/internal/model"
)

// roomFile is the on-disk shape of a persisted room
type roomFile struct {
	RoomID  string          `json:"roomId"`
	SavedAt int64           `json:"savedAt"`
	Strokes []*model.Stroke `json:"strokes"`
}

// Store persists whiteboard state as one pretty-printed JSON file per
// room. Mutating events are coalesced through a per-room debouncer so
// a burst of strokes costs a single write.
type Store struct {
	dir      string
	interval time.Duration

	mu        sync.Mutex
	debounced map[string]func(func())
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, interval time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		dir:       dir,
		interval:  interval,
		debounced: make(map[string]func(func())),
	}, nil
}

// Load reads the persisted snapshot for a room. Missing and corrupt
// files both come back as an empty stroke list; a room always boots.
func (s *Store) Load(roomID string) []*model.Stroke {
	data, err := os.ReadFile(s.path(roomID))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Store] Read failed for room %s: %v", roomID, err)
		}
		return nil
	}

	var file roomFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("[Store] Corrupt snapshot for room %s, starting empty: %v", roomID, err)
		return nil
	}
	return file.Strokes
}

// Schedule queues a save for the room. snapshot is invoked when the
// debounce window fires, so it observes the state current at write
// time, not at schedule time.
func (s *Store) Schedule(roomID string, snapshot func() []*model.Stroke) {
	s.mu.Lock()
	fn, ok := s.debounced[roomID]
	if !ok {
		fn = debounce.New(s.interval)
		s.debounced[roomID] = fn
	}
	s.mu.Unlock()

	fn(func() {
		s.Save(roomID, snapshot())
	})
}

// Save writes the room snapshot immediately, replacing the whole file.
// Failures are logged and left for the next debounce window to retry.
func (s *Store) Save(roomID string, strokes []*model.Stroke) {
	if strokes == nil {
		strokes = []*model.Stroke{}
	}
	file := roomFile{
		RoomID:  roomID,
		SavedAt: time.Now().UnixMilli(),
		Strokes: strokes,
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		log.Printf("[Store] Marshal failed for room %s: %v", roomID, err)
		return
	}
	if err := os.WriteFile(s.path(roomID), data, 0o644); err != nil {
		log.Printf("[Store] Write failed for room %s: %v", roomID, err)
	}
}

// Forget drops the room's debouncer after the room is removed from the
// registry. The file on disk stays.
func (s *Store) Forget(roomID string) {
	s.mu.Lock()
	delete(s.debounced, roomID)
	s.mu.Unlock()
}

func (s *Store) path(roomID string) string {
	return filepath.Join(s.dir, sanitize(roomID)+".json")
}

// sanitize maps an opaque room id onto a safe filename. Room ids come
// straight off the wire, so path separators and dot segments must not
// survive into the filesystem.
func sanitize(roomID string) string {
	var sb strings.Builder
	for _, r := range roomID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
