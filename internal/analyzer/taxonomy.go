package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/assets"
)

// Taxonomy is the read-only list of valid activity names used by Gate B.
// It is constructed once at process startup and passed into the admission
// filter explicitly; there is no package-level cache.
type Taxonomy struct {
	names []string
}

// NewTaxonomy builds a taxonomy from the given activity names. Names are
// normalized to lowercase; empty entries are dropped.
func NewTaxonomy(names []string) *Taxonomy {
	t := &Taxonomy{names: make([]string, 0, len(names))}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			t.names = append(t.names, n)
		}
	}
	return t
}

// DefaultTaxonomy returns the taxonomy embedded in the binary.
func DefaultTaxonomy() *Taxonomy {
	t, err := parseTaxonomy(assets.DefaultActivities)
	if err != nil {
		// The embedded list is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		log.Error().Err(err).Msg("Embedded activity taxonomy is invalid")
		return NewTaxonomy(nil)
	}
	return t
}

// LoadTaxonomy reads a JSON array of activity names from path.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	t, err := parseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy file %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("activities", t.Len()).Msg("Activity taxonomy loaded")
	return t, nil
}

func parseTaxonomy(data []byte) (*Taxonomy, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse taxonomy JSON: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("taxonomy is empty")
	}
	return NewTaxonomy(names), nil
}

// Len returns the number of activity names.
func (t *Taxonomy) Len() int {
	return len(t.names)
}

// Matches reports whether a detected activity matches the taxonomy: exact
// (case-insensitive) or substring containment in either direction, so the
// detected string contains a valid entry, or a valid entry contains it.
func (t *Taxonomy) Matches(activity string) bool {
	activity = strings.ToLower(strings.TrimSpace(activity))
	if activity == "" {
		return false
	}
	for _, name := range t.names {
		if activity == name ||
			strings.Contains(activity, name) ||
			strings.Contains(name, activity) {
			return true
		}
	}
	return false
}
