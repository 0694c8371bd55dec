// Package sources manages the list of monitored page URLs, kept as a
// plain text file with one URL per line so it stays hand-editable.
package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const header = `# Monitored page URLs, one per line.
# Lines starting with # and blank lines are ignored.

`

// List reads and rewrites one URL file. Rewrites regenerate the
// standard header; any other comments in the file are not kept.
type List struct {
	path string
}

func NewList(path string) List {
	return List{path: path}
}

func (l List) Path() string {
	return l.path
}

// Load returns the configured URLs in file order. A missing file means
// nothing is configured yet.
func (l List) Load() ([]string, error) {
	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}

// Add appends a URL to the list. Adding a URL that is already present
// is a no-op.
func (l List) Add(rawUrl string) error {
	rawUrl = strings.TrimSpace(rawUrl)
	if err := validate(rawUrl); err != nil {
		return err
	}

	urls, err := l.Load()
	if err != nil {
		return err
	}
	for _, existing := range urls {
		if existing == rawUrl {
			return nil
		}
	}
	return l.save(append(urls, rawUrl))
}

// Remove deletes a URL from the list. Removing a URL that is not
// present is a no-op.
func (l List) Remove(rawUrl string) error {
	rawUrl = strings.TrimSpace(rawUrl)

	urls, err := l.Load()
	if err != nil {
		return err
	}

	kept := urls[:0]
	for _, existing := range urls {
		if existing != rawUrl {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(urls) {
		return nil
	}
	return l.save(kept)
}

func (l List) save(urls []string) error {
	var b strings.Builder
	b.WriteString(header)
	for _, u := range urls {
		b.WriteString(u)
		b.WriteString("\n")
	}
	return os.WriteFile(l.path, []byte(b.String()), 0644)
}

func validate(rawUrl string) error {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawUrl, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must start with http:// or https://", rawUrl)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q is missing a host", rawUrl)
	}
	return nil
}
