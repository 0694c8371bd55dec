package monitor

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// snapshotName derives a stable, filesystem-safe image name from a
// page url. The short hash keeps urls distinct when host and path
// collide after sanitizing.
func snapshotName(pageUrl string) string {
	sum := md5.Sum([]byte(pageUrl))
	hash := hex.EncodeToString(sum[:])[:8]

	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return hash + ".png"
	}
	host := strings.ReplaceAll(parsed.Host, ".", "_")
	path := strings.Trim(strings.ReplaceAll(parsed.Path, "/", "_"), "_")
	if path == "" {
		return fmt.Sprintf("%s_%s.png", host, hash)
	}
	return fmt.Sprintf("%s_%s_%s.png", host, path, hash)
}

func writeSnapshot(dir, pageUrl string, png []byte) (string, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, snapshotName(pageUrl))
	err = os.WriteFile(path, png, 0644)
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
