package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigurn/crc16"
)

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Fingerprint identifies the content of the given source files. Each file
// contributes its name, size, modification time and CRC-16/ARC. Missing files
// contribute a marker, so their later appearance changes the fingerprint.
func Fingerprint(paths ...string) (string, error) {
	var (
		parts []string
		total int64
	)
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			parts = append(parts, filepath.Base(path)+"|missing")
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		total += info.Size()
		parts = append(parts, fmt.Sprintf("%s|%d|%d|%04x",
			filepath.Base(path), info.Size(), info.ModTime().UnixNano(), crc16.Checksum(data, crcTable)))
	}
	joined := strings.Join(parts, ";")
	return fmt.Sprintf("%d-%d-%04x", len(paths), total, crc16.Checksum([]byte(joined), crcTable)), nil
}
