package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "prod_2025-03-07.csv", EntryName(day("2025-03-07")))
}

func TestStore_MissingArchiveIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "raw.zip"))

	has, err := s.Has(day("2025-01-01"))
	require.NoError(t, err)
	assert.False(t, has)

	days, err := s.Days()
	require.NoError(t, err)
	assert.Empty(t, days)

	n, err := s.ExtractAll(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_AppendIfNewKeepsExistingEntries(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "raw.zip"))

	added, err := s.AppendIfNew(day("2025-01-02"), []byte("b"))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AppendIfNew(day("2025-01-01"), []byte("a"))
	require.NoError(t, err)
	assert.True(t, added)

	// Second write of the same day is a no-op.
	added, err = s.AppendIfNew(day("2025-01-01"), []byte("changed"))
	require.NoError(t, err)
	assert.False(t, added)

	days, err := s.Days()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day("2025-01-01"), day("2025-01-02")}, days)

	dest := t.TempDir()
	n, err := s.ExtractAll(dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dest, "prod_2025-01-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestStore_AppendRejectsEmptyData(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "raw.zip"))
	_, err := s.AppendIfNew(day("2025-01-01"), []byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyData)
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_ExtractAllSkipsUnchangedFiles(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "raw.zip"))
	_, err := s.AppendIfNew(day("2025-01-01"), []byte("a;b\n1;2\n"))
	require.NoError(t, err)

	dest := t.TempDir()
	n, err := s.ExtractAll(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.ExtractAll(dest)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, os.WriteFile(filepath.Join(dest, "prod_2025-01-01.csv"), []byte("edited"), 0644))
	n, err = s.ExtractAll(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Read(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "raw.zip"))

	_, err := s.Read(day("2025-01-01"))
	assert.ErrorIs(t, err, ErrNotArchived)

	_, err = s.AppendIfNew(day("2025-01-01"), []byte("Time,Production (W)\n"))
	require.NoError(t, err)

	data, err := s.Read(day("2025-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "Time,Production (W)\n", string(data))

	_, err = s.Read(day("2025-01-02"))
	assert.ErrorIs(t, err, ErrNotArchived)
}
