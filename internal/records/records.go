// Package records defines the in-memory input records the scoring engine
// consumes. Records arrive from the external threat-intelligence provider
// already fetched, paginated, and date-range bounded; the engine treats
// every record as an immutable snapshot for the duration of one run.
package records

import "time"

// Criticality is the ordinal severity of an incident.
type Criticality string

const (
	CriticalityLow    Criticality = "low"
	CriticalityMedium Criticality = "medium"
	CriticalityHigh   Criticality = "high"
)

// Status is the lifecycle state of an incident on the provider platform.
type Status string

const (
	StatusOpen        Status = "open"
	StatusInTreatment Status = "in-treatment"
	StatusClosed      Status = "closed"
)

// Resolution is the terminal outcome of a closed incident.
// An empty resolution means the incident is still unresolved.
type Resolution string

const (
	ResolutionNone      Resolution = ""
	ResolutionResolved  Resolution = "resolved"
	ResolutionDiscarded Resolution = "discarded"
)

// Originator identifies the detection channel that created an incident.
type Originator string

const (
	OriginatorOnePixel  Originator = "onepixel"
	OriginatorPlatform  Originator = "platform"
	OriginatorAPI       Originator = "api"
	OriginatorCollector Originator = "collector"
)

// Incident is a single detected threat (phishing page, credential leak,
// malware infection, …) as reported by the provider.
type Incident struct {
	Key           string      `json:"key"`
	Type          string      `json:"type"`
	Criticality   Criticality `json:"criticality"`
	Status        Status      `json:"status"`
	Resolution    Resolution  `json:"resolution,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	OpenedAt      time.Time   `json:"opened_at"`
	Originator    Originator  `json:"originator,omitempty"`
	Collector     string      `json:"collector,omitempty"`
	PredictedRisk *float64    `json:"predicted_risk,omitempty"` // [0,1]; nil = no prediction

	// Assets is the set of brand/asset identifiers the incident is
	// associated with. An incident with multiple assets counts toward
	// every matching brand independently.
	Assets []string `json:"assets"`
}

// HasAsset reports whether the incident's asset set contains id.
func (i *Incident) HasAsset(id string) bool {
	for _, a := range i.Assets {
		if a == id {
			return true
		}
	}
	return false
}

// CredentialExposure is a leaked credential record from the exposure feed.
type CredentialExposure struct {
	ID           string    `json:"id"`
	LeakFormat   string    `json:"leak_format"`   // e.g. "STEALER LOG"
	PasswordType string    `json:"password_type"` // e.g. "PLAIN", "HASH"
	Status       string    `json:"status"`        // e.g. "NEW", "IN_TREATMENT"
	CreatedAt    time.Time `json:"created_at"`
	Asset        string    `json:"asset,omitempty"`
}

// Brand is a monitored entity (subsidiary, product line) that partitions a
// tenant's incident population. Incidents reference brands by Name or Key.
type Brand struct {
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

// BenchmarkMonth is one (month, median) point of a market benchmark series.
type BenchmarkMonth struct {
	Month  string `json:"month"` // "2026-07"
	Median int    `json:"median"`
}

// Benchmark is the market-segment incident benchmark, ordered oldest first.
type Benchmark struct {
	Segment string           `json:"segment"`
	Months  []BenchmarkMonth `json:"months"`
}

// LatestMedian returns the most recent month's median, or 0 when the series
// is empty. A zero median means "no benchmark available" downstream.
func (b *Benchmark) LatestMedian() int {
	if b == nil || len(b.Months) == 0 {
		return 0
	}
	return b.Months[len(b.Months)-1].Median
}

// UptimeBucket holds the incident count for one resolution-latency bucket
// (formula 3.0 only). MinDays is the bucket's inclusive lower bound; the
// fixed bucket set partitions the whole population.
type UptimeBucket struct {
	Label   string `json:"label"` // e.g. "<1 day", "30-60 days"
	MinDays int    `json:"min_days"`
	Count   int    `json:"count"`
}

// UptimeBuckets is the full ordered bucket set for a period.
type UptimeBuckets []UptimeBucket

// Total returns the population across all buckets.
func (u UptimeBuckets) Total() int {
	total := 0
	for _, b := range u {
		total += b.Count
	}
	return total
}

// SlowCount returns the population in buckets at or beyond slowAfterDays.
func (u UptimeBuckets) SlowCount(slowAfterDays int) int {
	slow := 0
	for _, b := range u {
		if b.MinDays >= slowAfterDays {
			slow += b.Count
		}
	}
	return slow
}
