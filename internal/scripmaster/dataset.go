// Package scripmaster caches the BSE equity master list: the full listing of
// securities keyed by lowercase name and uppercase ISIN, used for fuzzy and
// cross-exchange lookups. Populated at most once per process.
package scripmaster

import (
	"regexp"
	"sort"
	"strings"
)

// Entry is one listed security from the master.
type Entry struct {
	Code string // 6-digit scrip code
	Name string
}

// Dataset is the lookup table. Name keys are lowercase, ISIN keys uppercase.
type Dataset struct {
	entries map[string]Entry
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{entries: make(map[string]Entry)}
}

// Add stores an entry under its name and, when known, its ISIN.
func (d *Dataset) Add(code, name, isin string) {
	if code == "" || name == "" {
		return
	}
	e := Entry{Code: code, Name: name}
	d.entries[strings.ToLower(name)] = e
	if isin != "" {
		d.entries[strings.ToUpper(isin)] = e
	}
}

// Len returns the number of keys in the dataset.
func (d *Dataset) Len() int {
	return len(d.entries)
}

// LookupISIN is an exact, non-fuzzy ISIN lookup.
func (d *Dataset) LookupISIN(isin string) (Entry, bool) {
	e, ok := d.entries[strings.ToUpper(strings.TrimSpace(isin))]
	return e, ok
}

// Corporate suffix tokens stripped before substring matching.
var suffixRe = regexp.MustCompile(`(?i)(ltd\.?|limited|inc\.?|corp\.?|pvt\.?|llp|industries|company|enterprises|solutions)`)

// Find runs the fuzzy lookup cascade:
// exact ISIN -> exact case-insensitive name -> suffix-stripped substring with
// shortest-key-wins -> first-word prefix (>= 3 chars) with shortest-key-wins.
// ISIN keys (prefix "IN") are excluded from the fuzzy stages.
func (d *Dataset) Find(query string) (Entry, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Entry{}, false
	}

	if e, ok := d.entries[strings.ToUpper(q)]; ok {
		return e, true
	}

	qLower := strings.ToLower(q)
	if e, ok := d.entries[qLower]; ok {
		return e, true
	}

	stripped := strings.TrimSpace(suffixRe.ReplaceAllString(qLower, ""))

	if e, ok := d.bestMatch(func(k string) bool {
		if len(k) <= 4 {
			return false
		}
		return (stripped != "" && strings.Contains(k, stripped)) || strings.Contains(k, qLower)
	}); ok {
		return e, true
	}

	firstWord := firstWordOf(stripped, qLower)
	if len(firstWord) >= 3 {
		if e, ok := d.bestMatch(func(k string) bool {
			return strings.HasPrefix(k, firstWord)
		}); ok {
			return e, true
		}
	}

	return Entry{}, false
}

// bestMatch returns the entry with the shortest matching key: a shorter key
// is treated as the more specific match.
func (d *Dataset) bestMatch(match func(key string) bool) (Entry, bool) {
	var keys []string
	for k := range d.entries {
		if strings.HasPrefix(k, "IN") {
			continue // skip ISIN keys
		}
		if match(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return Entry{}, false
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return d.entries[keys[0]], true
}

func firstWordOf(stripped, fallback string) string {
	s := stripped
	if s == "" {
		s = fallback
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
