// Package history persists chat turns per dataset as JSON files.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/autoanalyst-cli/internal/utils"
)

// Roles used in a conversation.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Turn is one message of a conversation.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at,omitempty"`
}

// Store keeps one <dataset id>.json file per dataset under dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load returns the turns recorded for id, oldest first. A dataset without
// history yields an empty slice.
func (s *Store) Load(id string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

// Append adds turns to the history of id and rewrites the file atomically.
func (s *Store) Append(id string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, t := range turns {
		if t.At.IsZero() {
			t.At = now
		}
		cur = append(cur, t)
	}
	b, err := utils.PrettyJSON(cur)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(s.path(id), b)
}

// Clear removes the history of id.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid dataset id %q", id)
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove history: %w", err)
	}
	return nil
}

func (s *Store) load(id string) ([]Turn, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid dataset id %q", id)
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Turn{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []Turn
	if err := json.Unmarshal(b, &turns); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return turns, nil
}

func (s *Store) path(id string) string { return filepath.Join(s.dir, id+".json") }

// Last returns at most n trailing turns.
func Last(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}
