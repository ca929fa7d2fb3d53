// Package connectors defines the pluggable source-connector contract and the
// pieces every marketplace connector shares: the fetch strategies, the robots
// gate, request pacing, and locale-aware numeric coercion. Site-specific
// parsing lives in the per-marketplace subpackages.
package connectors

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alexmarroig/Carpremiumsell/config"
	"github.com/alexmarroig/Carpremiumsell/models"
)

// Payload is one fetched raw document handed to ParseListing.
type Payload struct {
	URL  string
	HTML string
}

// Parsed holds the attributes extracted from a single listing page, before
// they are mapped into the shared raw-field vocabulary. Absent fields stay
// nil / empty; parsers never fabricate values.
type Parsed struct {
	ExternalID  string
	Title       string
	Brand       string
	Model       string
	Trim        string
	Year        *int
	MileageKM   *int
	Price       *float64
	City        string
	State       string
	Photos      []string
	SellerType  string
	URL         string
	Description string
	Seller      *models.SellerFeedback
}

// Connector is the polymorphic capability each marketplace implements.
//
// FetchListings drives paginated retrieval bounded by the configured result
// limit, consulting robots.txt before every page fetch and pacing requests.
// Each normalized item is handed to yield in fetch order; a non-nil error
// from yield stops the run.
type Connector interface {
	Name() string
	FetchListings(ctx context.Context, yield func(models.RawFields) error) error
	ParseListing(payload Payload) Parsed
	NormalizeFields(parsed Parsed) models.RawFields
}

// Options carries everything a connector factory needs. Explicit struct
// instead of ambient settings so connectors stay testable offline.
type Options struct {
	RegionKey string
	QueryText string
	Limit     int
	Fetcher   Fetcher
	Config    *config.Config
	Logger    *logrus.Logger
}

// Factory builds a connector for one ingestion run.
type Factory func(opts Options) Connector

// Entry is one registry record: the source's canonical base URL plus its
// connector factory.
type Entry struct {
	BaseURL string
	Factory Factory
}

// Registry maps source names to connector entries. Unknown names resolve to
// the registered default entry so a mistyped or retired source name degrades
// to a harmless demo run instead of failing the job.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	fallback Entry
}

// NewRegistry creates an empty registry with the given safe default entry.
func NewRegistry(fallback Entry) *Registry {
	return &Registry{
		entries:  make(map[string]Entry),
		fallback: fallback,
	}
}

// Register adds or replaces the entry for a source name.
func (r *Registry) Register(name string, entry Entry) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || entry.Factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = entry
}

// Lookup resolves a source name, falling back to the default entry.
// The second return reports whether the name was explicitly registered.
func (r *Registry) Lookup(name string) (Entry, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.entries[key]; ok {
		return entry, true
	}
	return r.fallback, false
}

// Names returns the registered source names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
