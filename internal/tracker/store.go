package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// Store persists the roster as an indented JSON list, overwritten in full
// on every save. A flock guards the file against a second bot process
// writing during redeploy overlap.
type Store struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
	log  *zap.Logger
}

func NewStore(path string, log *zap.Logger) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
		log:  log,
	}
}

// Load reads the roster from disk. Missing file means a fresh start;
// malformed content is logged and treated the same. Never fails the caller.
func (s *Store) Load() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read roster file", zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		s.log.Warn("roster file is corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return entries
}

// Save overwrites the roster file with the full entry list.
func (s *Store) Save(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)

	if err := s.lock.Lock(); err != nil {
		s.log.Warn("roster flock failed, writing anyway", zap.Error(err))
	} else {
		defer func() { _ = s.lock.Unlock() }()
	}
	return os.WriteFile(s.path, b, 0o644)
}
