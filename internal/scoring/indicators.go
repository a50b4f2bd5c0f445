package scoring

import (
	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/taxonomy"
)

// Each indicator below is a pure function over one record collection and
// the configuration. None of them touch shared state, so per-brand runs can
// invoke them concurrently.

// VolumeResult is the output of WeightedIncidentVolume.
type VolumeResult struct {
	WeightedScore int
	Total         int
	Breakdown     map[string]TypeBreakdown
	Skipped       int
}

// WeightedIncidentVolume sums each incident's type weight from the taxonomy
// table. Incidents resolved as discarded are excluded when activeOnly is
// set; incidents missing a key or type are skipped and counted, never
// aborting the run. The weighted sum feeds BaseScore directly and carries
// no penalty contribution of its own.
func WeightedIncidentVolume(incidents []records.Incident, tab *taxonomy.Table, activeOnly bool) VolumeResult {
	res := VolumeResult{Breakdown: make(map[string]TypeBreakdown)}

	for i := range incidents {
		inc := &incidents[i]
		if inc.Key == "" || inc.Type == "" {
			res.Skipped++
			continue
		}
		if activeOnly && inc.Resolution == records.ResolutionDiscarded {
			continue
		}

		weight := tab.Weight(inc.Type)
		b := res.Breakdown[inc.Type]
		b.Count++
		b.Weight = weight
		b.Score += weight
		res.Breakdown[inc.Type] = b

		res.Total++
		res.WeightedScore += weight
	}
	return res
}

// MarketBenchmarkRatio compares the tenant's incident count against the
// most recent market-segment median and maps the ratio through the
// configured bands to a penalty effect. A zero or absent median means no
// benchmark is available: the sub-score defaults to a neutral 1.0 with no
// effect, never a division fault.
func MarketBenchmarkRatio(total int, bench *records.Benchmark, bands []config.RatioBand) (ratio, penalty float64) {
	median := bench.LatestMedian()
	if median == 0 {
		return 1.0, 0
	}
	ratio = float64(total) / float64(median)
	return ratio, config.BandEffect(bands, ratio)
}

// StealerExposureFactor counts credential exposures whose leak format
// signals active-malware origin and whose status is still live, then maps
// the count through the configured step table. It is purely a penalty and
// contributes no BaseScore volume. Exposures missing an ID are skipped and
// counted.
func StealerExposureFactor(exposures []records.CredentialExposure, cfg *config.Config) (count int, penalty float64, skipped int) {
	formats := make(map[string]bool, len(cfg.StealerFormats))
	for _, f := range cfg.StealerFormats {
		formats[f] = true
	}
	statuses := make(map[string]bool, len(cfg.StealerActiveStatuses))
	for _, s := range cfg.StealerActiveStatuses {
		statuses[s] = true
	}

	for i := range exposures {
		e := &exposures[i]
		if e.ID == "" {
			skipped++
			continue
		}
		if formats[e.LeakFormat] && statuses[e.Status] {
			count++
		}
	}
	return count, config.StepPenalty(cfg.StealerPenaltySteps, count), skipped
}

// OperationalEfficiency measures the fraction of incidents resolved before
// the slow threshold (formula 3.0 only). Efficiency below the floor incurs
// the floor penalty; at or above the ceiling it earns the (negative)
// ceiling bonus. An empty bucket population is neutral.
func OperationalEfficiency(buckets records.UptimeBuckets, cfg config.EfficiencyConfig) (efficiency, penalty float64) {
	total := buckets.Total()
	if total == 0 {
		return 1.0, 0
	}
	slow := buckets.SlowCount(cfg.SlowAfterDays)
	efficiency = float64(total-slow) / float64(total)

	switch {
	case efficiency < cfg.Floor:
		return efficiency, cfg.FloorPenalty
	case efficiency >= cfg.Ceiling:
		return efficiency, cfg.CeilingBonus
	default:
		return efficiency, 0
	}
}

// ReputationalImpact maps the period's public complaint count through the
// configured step table. Zero complaints contribute nothing.
func ReputationalImpact(complaints int, steps []config.PenaltyStep) float64 {
	if complaints <= 0 {
		return 0
	}
	return config.StepPenalty(steps, complaints)
}
