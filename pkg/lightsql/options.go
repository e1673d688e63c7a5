package lightsql

import (
	"sort"
	"strings"
)

// DefaultJoinKeywords lists the join phrases recognized when Options.JoinKeywords is empty.
// Plain JOIN also catches CROSS JOIN, FULL JOIN and similar forms through their trailing keyword.
var DefaultJoinKeywords = []string{
	"INNER JOIN",
	"LEFT JOIN",
	"RIGHT JOIN",
	"OUTER JOIN",
	"JOIN",
}

// Options configures a Parser.
type Options struct {
	// JoinKeywords lists the phrases that introduce a joined table.
	// Matching is case-insensitive and tolerates any whitespace between words.
	JoinKeywords []string

	// LineComments also strips "-- ..." comments during normalization.
	LineComments bool
}

// DefaultOptions returns the options used by New.
func DefaultOptions() Options {
	return Options{
		JoinKeywords: append([]string(nil), DefaultJoinKeywords...),
	}
}

// joinKeywords compiles the configured join phrases, longest first so that
// "LEFT JOIN" wins over "JOIN" at the same position.
func (o Options) joinKeywords() []keyword {
	phrases := o.JoinKeywords
	if len(phrases) == 0 {
		phrases = DefaultJoinKeywords
	}

	seen := make(map[string]struct{}, len(phrases))
	keywords := make([]keyword, 0, len(phrases))
	for _, phrase := range phrases {
		k := newKeyword(phrase)
		if len(k) == 0 {
			continue
		}
		id := strings.Join(k, " ")
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keywords = append(keywords, k)
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i]) > len(keywords[j])
	})
	return keywords
}
