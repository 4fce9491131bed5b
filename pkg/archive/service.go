package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const entryLayout = "2006-01-02"

var (
	ErrEmptyData   = errors.New("refusing to archive empty data")
	ErrNotArchived = errors.New("day not archived")
)

// Store keeps one raw production export per day inside a single ZIP file.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// EntryName is the archive member holding the export of day.
func EntryName(day time.Time) string {
	return "prod_" + day.Format(entryLayout) + ".csv"
}

// Has reports whether the export of day is already archived.
// A missing archive has no days.
func (s *Store) Has(day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.names()
	if err != nil {
		return false, err
	}
	_, ok := names[EntryName(day)]
	return ok, nil
}

// Days lists the archived days in ascending order.
func (s *Store) Days() ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.names()
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(names))
	for name := range names {
		raw := strings.TrimSuffix(strings.TrimPrefix(name, "prod_"), ".csv")
		day, err := time.ParseInLocation(entryLayout, raw, time.UTC)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// Read returns the archived export of day.
func (s *Store) Read(day time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zr, err := zip.OpenReader(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	f, err := zr.Open(EntryName(day))
	if err != nil {
		return nil, ErrNotArchived
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry %s: %w", EntryName(day), err)
	}
	return data, nil
}

// AppendIfNew adds the export of day unless it is already present.
// The archive is rebuilt into a temporary file and renamed into place, so a
// crash never leaves a truncated archive behind.
func (s *Store) AppendIfNew(day time.Time, data []byte) (bool, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return false, ErrEmptyData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.names()
	if err != nil {
		return false, err
	}
	entry := EntryName(day)
	if _, ok := names[entry]; ok {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create archive directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".archive-*.zip")
	if err != nil {
		return false, fmt.Errorf("failed to create temporary archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.rewrite(tmp, entry, data); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close temporary archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return false, fmt.Errorf("failed to replace archive: %w", err)
	}
	return true, nil
}

// ExtractAll writes every archived export into destDir under its entry name.
// Files whose content is unchanged are left untouched.
func (s *Store) ExtractAll(destDir string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zr, err := zip.OpenReader(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	written := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(f.Name))
		if unchanged(f, dest) {
			continue
		}
		if err := extract(f, dest); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *Store) names() (map[string]struct{}, error) {
	zr, err := zip.OpenReader(s.path)
	if os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	names := make(map[string]struct{}, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = struct{}{}
	}
	return names, nil
}

func (s *Store) rewrite(w io.Writer, entry string, data []byte) error {
	zw := zip.NewWriter(w)

	zr, err := zip.OpenReader(s.path)
	switch {
	case err == nil:
		defer zr.Close()
		for _, f := range zr.File {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy archive entry %s: %w", f.Name, err)
			}
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to open archive: %w", err)
	}

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entry,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to add archive entry %s: %w", entry, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", entry, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func unchanged(f *zip.File, dest string) bool {
	info, err := os.Stat(dest)
	if err != nil || uint64(info.Size()) != f.UncompressedSize64 {
		return false
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return false
	}
	return crc32.ChecksumIEEE(data) == f.CRC32
}

func extract(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return dst.Close()
}
