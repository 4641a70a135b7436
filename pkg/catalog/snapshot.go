package catalog

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
)

// Entry is one family of the catalog.
type Entry struct {
	Family       string
	Category     string
	Version      string
	LastModified string
	// Files maps variant codes to download URLs.
	Files map[string]string
}

// Variants returns the variant codes of the entry, sorted.
func (e *Entry) Variants() []string {
	codes := make([]string, 0, len(e.Files))
	for code := range e.Files {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Snapshot is an immutable parsed copy of the catalog.
type Snapshot struct {
	entries map[string]*Entry
}

// Len returns the number of families.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Families returns the family names, sorted.
func (s *Snapshot) Families() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the family record.
func (s *Snapshot) Entry(family string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.entries[family]
	return e, ok
}

// Search returns the entries whose family contains substr, ignoring case.
func (s *Snapshot) Search(substr string) []*Entry {
	needle := strings.ToLower(substr)
	var out []*Entry
	for _, name := range s.Families() {
		if strings.Contains(strings.ToLower(name), needle) {
			out = append(out, s.entries[name])
		}
	}
	return out
}

// FileURL returns the download URL of id, if the catalog lists it.
func (s *Snapshot) FileURL(id font.Identifier) (*url.URL, bool) {
	e, ok := s.Entry(id.Family)
	if !ok {
		return nil, false
	}
	raw, ok := e.Files[id.Variant.Code()]
	if !ok {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	return u, true
}

type rawItem struct {
	Family       *string           `json:"family"`
	Files        map[string]string `json:"files"`
	Category     string            `json:"category"`
	Version      string            `json:"version"`
	LastModified string            `json:"lastModified"`
}

// Parse decodes a catalog document. The root must be a JSON object; records
// without a family or files are skipped. Only the four core variant codes are
// kept unless allVariants is set.
func Parse(data []byte, allVariants bool) (*Snapshot, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errutils.Wrapf(errutils.ErrCatalogFetch, "malformed catalog root: %v", err)
	}

	snap := &Snapshot{entries: map[string]*Entry{}}

	var items []json.RawMessage
	if raw, ok := root["items"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			logger.Warn("Catalog items is not a list", logger.Fields{"error": err})
			return snap, nil
		}
	}

	for i, raw := range items {
		var item rawItem
		if err := json.Unmarshal(raw, &item); err != nil || item.Family == nil || item.Files == nil {
			logger.Debug("Skipping catalog record", logger.Fields{"index": i})
			continue
		}

		entry := &Entry{
			Family:       *item.Family,
			Category:     item.Category,
			Version:      item.Version,
			LastModified: item.LastModified,
			Files:        map[string]string{},
		}
		for code, value := range item.Files {
			if !allVariants && !font.Variant(code).Valid() {
				continue
			}
			u, err := url.Parse(value)
			if err != nil {
				continue
			}
			u.Scheme = "https"
			u.Fragment = code
			entry.Files[code] = u.String()
		}
		snap.entries[entry.Family] = entry
	}

	return snap, nil
}
