package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

func newTestStore(t *testing.T) (*FileStore, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s, err := NewFileStore(filepath.Join(t.TempDir(), "uploads"), logger)
	require.NoError(t, err)
	return s, hook
}

func TestFileStore_SaveLoadList(t *testing.T) {
	s, hook := newTestStore(t)
	ctx := context.Background()

	m, err := s.Save(ctx, "sales.CSV", strings.NewReader("Region,Revenue\nNorth,$1200\nSouth,$950\n"))
	require.NoError(t, err)
	assert.Equal(t, "sales.CSV", m.Name)
	assert.Equal(t, m.ID+".csv", m.File)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.FileExists(t, filepath.Join(s.Dir(), m.File))
	assert.Equal(t, "dataset stored", hook.LastEntry().Message)
	assert.Equal(t, m.ID, hook.LastEntry().Data["dataset_id"])

	ds, err := s.Load(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Revenue"}, ds.Names())

	// Loads are independent copies.
	ds.Columns[0].Strs[0] = "changed"
	again, err := s.Load(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "North", again.Columns[0].Strs[0])

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].ID)
}

func TestFileStore_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Load(ctx, "../../etc/passwd")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Load(ctx, "0b6c7f5e-2f4e-4d3c-9a59-4b2f0e7c1a11")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_MissingDataFile(t *testing.T) {
	s, _ := newTestStore(t)
	m, err := s.Save(context.Background(), "a.csv", strings.NewReader("x\n1\n"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(s.Dir(), m.File)))

	_, err = s.Load(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RejectsUnsupported(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Save(context.Background(), "report.pdf", strings.NewReader("%PDF"))
	require.ErrorIs(t, err, ErrUnsupported)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	ds := frame.FromRecords([]string{"a"}, [][]string{{"1"}})
	m.Put("one", ds)
	ds.Columns[0].Nums[0] = 5

	got, err := m.Load(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Columns[0].Nums[0])

	_, err = m.Load(context.Background(), "two")
	require.ErrorIs(t, err, ErrNotFound)
}
