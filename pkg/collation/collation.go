// Package collation provides the locale-aware string comparator used when
// ordering product names and categories.
package collation

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "ja"

// Collator compares strings with numeric-substring awareness, ignoring case
// and diacritics. A collate.Collator keeps internal buffers, so access is
// serialized to make a Collator safe for concurrent readers.
type Collator struct {
	mu  sync.Mutex
	col *collate.Collator
	tag language.Tag
}

// New builds a Collator for the given BCP 47 locale. An unparsable locale
// falls back to DefaultLocale.
func New(locale string) *Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Collator{
		col: collate.New(tag, collate.Numeric, collate.IgnoreCase, collate.IgnoreDiacritics, collate.IgnoreWidth),
		tag: tag,
	}
}

var (
	defaultOnce sync.Once
	defaultCol  *Collator
)

// Default returns a shared Collator for DefaultLocale.
func Default() *Collator {
	defaultOnce.Do(func() {
		defaultCol = New(DefaultLocale)
	})
	return defaultCol
}

// Locale returns the language tag the collator was built for.
func (c *Collator) Locale() string {
	return c.tag.String()
}

// Compare returns -1, 0 or 1.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col.CompareString(a, b)
}

// Less reports whether a sorts before b.
func (c *Collator) Less(a, b string) bool {
	return c.Compare(a, b) < 0
}

// SortStrings sorts s in place. Strings that collate equal keep their
// relative order.
func (c *Collator) SortStrings(s []string) {
	sort.SliceStable(s, func(i, j int) bool {
		return c.Less(s[i], s[j])
	})
}
