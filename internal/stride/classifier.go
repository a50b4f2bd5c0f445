// Package stride tabulates incidents into the six STRIDE threat categories
// via the taxonomy table. Types the table does not know land in an explicit
// unclassified bucket — they are counted, never dropped or guessed.
package stride

import (
	"sort"

	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/taxonomy"
)

// CategoryCount is the tally for one STRIDE category.
type CategoryCount struct {
	Category taxonomy.Category `json:"category"`
	Name     string            `json:"name"`
	Count    int               `json:"count"`

	// Percentage is computed against the TOTAL input including
	// unclassified incidents. The result carries Classified and
	// Unclassified separately so consumers can recompute against the
	// classified-only base if they prefer.
	Percentage float64 `json:"percentage"`

	// Types lists the distinct threat types observed in this category,
	// sorted.
	Types []string `json:"types,omitempty"`
}

// ClassificationResult is the STRIDE distribution for one input collection.
// Classified + Unclassified always equals Total.
type ClassificationResult struct {
	Categories   []CategoryCount `json:"categories"`
	Total        int             `json:"total"`
	Classified   int             `json:"classified"`
	Unclassified int             `json:"unclassified"`

	// Skipped counts incidents excluded for missing required fields;
	// they are not part of Total.
	Skipped int `json:"skipped"`
}

// Classify maps every incident's type through the taxonomy table and
// returns per-category counts sorted descending, ties broken alphabetically
// by category name.
func Classify(incidents []records.Incident, tab *taxonomy.Table) *ClassificationResult {
	counts := make(map[taxonomy.Category]int)
	types := make(map[taxonomy.Category]map[string]bool)

	res := &ClassificationResult{Categories: []CategoryCount{}}
	for i := range incidents {
		inc := &incidents[i]
		if inc.Key == "" || inc.Type == "" {
			res.Skipped++
			continue
		}
		res.Total++

		cat, ok := tab.Category(inc.Type)
		if !ok {
			res.Unclassified++
			continue
		}
		res.Classified++
		counts[cat]++
		if types[cat] == nil {
			types[cat] = make(map[string]bool)
		}
		types[cat][inc.Type] = true
	}

	for cat, n := range counts {
		cc := CategoryCount{
			Category: cat,
			Name:     cat.Name(),
			Count:    n,
		}
		if res.Total > 0 {
			cc.Percentage = float64(n) / float64(res.Total) * 100
		}
		for t := range types[cat] {
			cc.Types = append(cc.Types, t)
		}
		sort.Strings(cc.Types)
		res.Categories = append(res.Categories, cc)
	}

	sort.Slice(res.Categories, func(a, b int) bool {
		ca, cb := res.Categories[a], res.Categories[b]
		if ca.Count != cb.Count {
			return ca.Count > cb.Count
		}
		return ca.Name < cb.Name
	})

	return res
}
