package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
	"github.com/KaramelBytes/autoanalyst-cli/internal/utils"
)

// ErrNotFound is returned when a dataset identifier does not resolve.
var ErrNotFound = errors.New("dataset not found")

// Store resolves dataset identifiers to freshly loaded raw datasets. Every
// Load returns a private copy the caller may mutate.
type Store interface {
	Load(ctx context.Context, id string) (*frame.Dataset, error)
}

// Meta describes an uploaded dataset.
type Meta struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	File       string    `json:"file"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	Bytes      int64     `json:"bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// FileStore keeps uploads as <id><ext> plus an <id>.json metadata sidecar.
type FileStore struct {
	dir string
	log logrus.FieldLogger
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string, log logrus.FieldLogger) (*FileStore, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FileStore{dir: dir, log: log}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Save stores an upload under a new identifier. The content must decode
// with the reader registered for the filename's extension.
func (s *FileStore) Save(ctx context.Context, filename string, r io.Reader) (*Meta, error) {
	if _, err := ReaderFor(filename); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := Decode(filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(filename), err)
	}
	id := uuid.NewString()
	m := &Meta{
		ID:         id,
		Name:       filepath.Base(filename),
		File:       id + strings.ToLower(filepath.Ext(filename)),
		Rows:       ds.Rows(),
		Cols:       len(ds.Columns),
		Bytes:      int64(len(data)),
		UploadedAt: time.Now().UTC(),
	}
	if err := utils.SafeWriteFile(filepath.Join(s.dir, m.File), data); err != nil {
		return nil, err
	}
	js, err := utils.PrettyJSON(m)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(s.metaPath(id), js); err != nil {
		_ = os.Remove(filepath.Join(s.dir, m.File))
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"dataset_id": id, "name": m.Name, "rows": m.Rows, "cols": m.Cols}).Info("dataset stored")
	return m, nil
}

// Meta returns the metadata of a stored dataset.
func (s *FileStore) Meta(id string) (*Meta, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &m, nil
}

// Load reads the stored file again and decodes it into a new dataset.
func (s *FileStore) Load(ctx context.Context, id string) (*frame.Dataset, error) {
	m, err := s.Meta(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, m.File))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	ds, err := Decode(m.File, f)
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	s.log.WithFields(logrus.Fields{"dataset_id": id, "rows": ds.Rows()}).Debug("dataset loaded")
	return ds, nil
}

// List returns stored datasets, newest first.
func (s *FileStore) List() ([]*Meta, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var out []*Meta
	for _, p := range matches {
		id := strings.TrimSuffix(filepath.Base(p), ".json")
		m, err := s.Meta(id)
		if err != nil {
			s.log.WithError(err).WithField("file", p).Warn("skipping unreadable metadata")
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (s *FileStore) metaPath(id string) string { return filepath.Join(s.dir, id+".json") }

// MemoryStore holds datasets in memory and hands out clones.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]*frame.Dataset
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*frame.Dataset)}
}

// Put registers a dataset under id. The store keeps its own copy.
func (m *MemoryStore) Put(id string, ds *frame.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[id] = ds.Clone()
}

// Load returns a copy of the dataset registered under id.
func (m *MemoryStore) Load(_ context.Context, id string) (*frame.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.sets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ds.Clone(), nil
}
