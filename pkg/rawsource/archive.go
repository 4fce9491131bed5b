package rawsource

import (
	"archive/zip"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractedPrefix starts the name of every extracted file so that the
// default production patterns always match it.
const ExtractedPrefix = "prod_"

// ExtractArchives writes the CSV members of every ZIP in zipDir into destDir,
// named after the archive: "prod_<base>.csv", then "prod_<base>_2.csv" and so
// on. A base already starting with "prod_" is not prefixed twice.
// Existing files are overwritten unless their content is unchanged, which keeps
// their modification time stable. A missing zipDir extracts nothing.
func ExtractArchives(zipDir, destDir string) (int, error) {
	archives, err := filepath.Glob(filepath.Join(zipDir, "*.zip"))
	if err != nil {
		return 0, fmt.Errorf("failed to list archives: %w", err)
	}
	if len(archives) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	written := 0
	for _, archivePath := range archives {
		n, err := extractArchive(archivePath, destDir)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func extractArchive(archivePath, destDir string) (int, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive %s: %w", filepath.Base(archivePath), err)
	}
	defer zr.Close()

	base := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	if !strings.HasPrefix(base, ExtractedPrefix) {
		base = ExtractedPrefix + base
	}
	written := 0
	for _, member := range zr.File {
		if member.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(member.Name), ".csv") {
			continue
		}
		name := base + ".csv"
		if written > 0 {
			name = fmt.Sprintf("%s_%d.csv", base, written+1)
		}
		if err := extractMember(member, filepath.Join(destDir, name)); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func extractMember(member *zip.File, dest string) error {
	if sameContent(member, dest) {
		return nil
	}
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to extract %s: %w", member.Name, err)
	}
	return dst.Close()
}

func sameContent(member *zip.File, dest string) bool {
	info, err := os.Stat(dest)
	if err != nil || uint64(info.Size()) != member.UncompressedSize64 {
		return false
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return false
	}
	return crc32.ChecksumIEEE(data) == member.CRC32
}
