// Package dread ranks open incidents by a five-factor DREAD priority score
// (Damage, Reproducibility, Exploitability, Affected users,
// Discoverability). Each incident is scored independently; factors come
// from configured lookup tables and are clamped to [1,10].
package dread

import (
	"math"
	"sort"

	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/taxonomy"
)

// PriorityResult is the DREAD scoring of a single incident.
type PriorityResult struct {
	Key  string `json:"key"`
	Type string `json:"type"`

	Damage          int `json:"damage"`
	Reproducibility int `json:"reproducibility"`
	Exploitability  int `json:"exploitability"`
	AffectedUsers   int `json:"affected_users"`
	Discoverability int `json:"discoverability"`

	// Score is the arithmetic mean of the five factors, rounded to one
	// decimal place.
	Score float64 `json:"score"`

	// Rank is the 1-based position after sorting.
	Rank int `json:"rank"`
}

// Ranking is the output of Prioritize.
type Ranking struct {
	Results []PriorityResult `json:"results"`

	// Total counts incidents scored before any top-N truncation; Skipped
	// counts incidents excluded for missing required fields.
	Total   int `json:"total"`
	Skipped int `json:"skipped"`
}

// Prioritize scores every incident and returns them ranked descending by
// priority. Ties break toward the more recently opened incident, then by
// ascending key. topN > 0 truncates the ranking after sorting; Total still
// reflects the full population.
func Prioritize(incidents []records.Incident, cfg *config.DreadConfig, tab *taxonomy.Table, topN int) *Ranking {
	r := &Ranking{Results: []PriorityResult{}}

	order := make(map[string]int, len(incidents)) // key → index, for tie-breaks
	for i := range incidents {
		inc := &incidents[i]
		if inc.Key == "" || inc.Type == "" {
			r.Skipped++
			continue
		}
		order[inc.Key] = i
		r.Results = append(r.Results, scoreIncident(inc, cfg, tab))
	}
	r.Total = len(r.Results)

	sort.SliceStable(r.Results, func(a, b int) bool {
		ra, rb := r.Results[a], r.Results[b]
		if ra.Score != rb.Score {
			return ra.Score > rb.Score
		}
		oa := incidents[order[ra.Key]].OpenedAt
		ob := incidents[order[rb.Key]].OpenedAt
		if !oa.Equal(ob) {
			return oa.After(ob)
		}
		return ra.Key < rb.Key
	})

	if topN > 0 && len(r.Results) > topN {
		r.Results = r.Results[:topN]
	}
	for i := range r.Results {
		r.Results[i].Rank = i + 1
	}
	return r
}

func scoreIncident(inc *records.Incident, cfg *config.DreadConfig, tab *taxonomy.Table) PriorityResult {
	damage := clamp(lookup(cfg.DamageByCriticality, string(inc.Criticality)))
	repro := clamp(tab.Reproducibility(inc.Type))
	affected := clamp(tab.AffectedUsers(inc.Type))
	discover := clamp(lookup(cfg.DiscoverabilityByCollector, inc.Collector))

	exploit := clamp(cfg.ExploitabilityNeutral)
	if inc.PredictedRisk != nil {
		exploit = clamp(int(math.Round(*inc.PredictedRisk * 10)))
	}

	sum := damage + repro + exploit + affected + discover
	score := math.Round(float64(sum)/5*10) / 10

	return PriorityResult{
		Key:             inc.Key,
		Type:            inc.Type,
		Damage:          damage,
		Reproducibility: repro,
		Exploitability:  exploit,
		AffectedUsers:   affected,
		Discoverability: discover,
		Score:           score,
	}
}

func lookup(m map[string]int, key string) int {
	if v, ok := m[key]; ok {
		return v
	}
	return m[config.DefaultKey]
}

func clamp(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
