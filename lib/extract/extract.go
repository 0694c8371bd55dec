// Package extract turns fetched page content into litter records.
//
// Every supported site gets its own Extractor tuned to that site's
// markup. Unknown hosts fall back to a generic extractor that walks
// h2-delimited entries and matches Dutch field labels, which is how
// most breed club pages are laid out.
package extract

import (
	"context"
	"net/url"
	"strings"

	"litterwatch/lib/litter"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("extract")

// Extractor parses litter announcements out of rendered page content.
// Extraction is best effort: a malformed entry is skipped, not fatal.
type Extractor interface {
	Extract(ctx context.Context, content string) ([]litter.Litter, error)
}

type registryEntry struct {
	name string
	ex   Extractor
}

// Registry resolves which extractor handles a given page URL.
type Registry struct {
	byHost   map[string]registryEntry
	fallback Extractor
}

// NewRegistry returns a registry preloaded with the site-specific
// extractors. The generic extractor handles everything else.
func NewRegistry() *Registry {
	r := &Registry{
		byHost:   map[string]registryEntry{},
		fallback: clubExtractor{},
	}
	r.Register("goldenretrieverclub.nl", "Golden Retriever Club Nederland", clubExtractor{})
	r.Register("goldenretrieververeniging.nl", "Golden Retriever Vereniging", verenigingExtractor{})
	return r
}

// Register binds an extractor and a display name to a hostname. The
// hostname is matched without its "www." prefix.
func (r *Registry) Register(host, name string, ex Extractor) {
	r.byHost[normalizeHost(host)] = registryEntry{name: name, ex: ex}
}

// Lookup returns the extractor for the page's host along with the
// display name records from that page should carry as their source.
// Unregistered hosts get the generic extractor and their bare hostname.
func (r *Registry) Lookup(pageUrl string) (Extractor, string) {
	u, err := url.Parse(pageUrl)
	if err != nil || u.Hostname() == "" {
		return r.fallback, pageUrl
	}
	host := normalizeHost(u.Hostname())
	if entry, ok := r.byHost[host]; ok {
		return entry.ex, entry.name
	}
	return r.fallback, host
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
