// Package fiscal holds the per-exchange fiscal-year matching conventions.
//
// Matching is substring containment over the raw period text, which is how
// both exchange portals are actually keyed. A two-digit suffix like "-24" can
// in principle match unrelated text; the predicates exist as named seams so a
// structured matcher can replace them without touching call sites.
package fiscal

import (
	"fmt"
	"strconv"
	"strings"
)

// Predicate reports whether a filing's raw period text matches a target year
// under one exchange's fiscal-year convention.
type Predicate func(text string, year int) bool

// EndYear is the BSE convention: the filing year denotes the fiscal year
// ending in that calendar year. "2024" matches "2024" or "-24".
func EndYear(text string, year int) bool {
	return strings.Contains(text, strconv.Itoa(year)) ||
		strings.Contains(text, "-"+shortYear(year))
}

// StartYear is the NSE convention: the filing year denotes the fiscal year
// starting in that calendar year, labeled "{year}-{year+1 mod 100}".
func StartYear(text string, year int) bool {
	return strings.Contains(text, strconv.Itoa(year)) ||
		strings.Contains(text, Label(year))
}

// Label returns the NSE-style fiscal year label, e.g. 2023 -> "2023-24".
func Label(year int) string {
	return fmt.Sprintf("%d-%s", year, shortYear(year+1))
}

func shortYear(year int) string {
	return fmt.Sprintf("%02d", year%100)
}
