package scoring

import (
	"sync"

	"github.com/riskscope/riskscope/internal/records"
)

// FilterByBrand returns the incidents whose asset set contains the brand's
// name or key. An incident associated with several brands appears in every
// matching partition, so per-brand totals may legitimately exceed the
// tenant total.
func FilterByBrand(incidents []records.Incident, b records.Brand) []records.Incident {
	var out []records.Incident
	for i := range incidents {
		if incidents[i].HasAsset(b.Name) || (b.Key != "" && incidents[i].HasAsset(b.Key)) {
			out = append(out, incidents[i])
		}
	}
	return out
}

// FilterExposuresByBrand returns the credential exposures whose associated
// asset equals the brand's name or key.
func FilterExposuresByBrand(exposures []records.CredentialExposure, b records.Brand) []records.CredentialExposure {
	var out []records.CredentialExposure
	for i := range exposures {
		a := exposures[i].Asset
		if a != "" && (a == b.Name || (b.Key != "" && a == b.Key)) {
			out = append(out, exposures[i])
		}
	}
	return out
}

// ScoreBrands computes a per-brand score for every brand (formula 4.0
// per-brand mode). Each brand sees only its own incidents and exposures;
// the market benchmark stays tenant-level because no per-brand benchmark
// exists upstream. Brands are scored concurrently — runs share only the
// read-only composer and input — and results come back in brand order.
func (c *Composer) ScoreBrands(brands []records.Brand, in Input) []*ScoreResult {
	results := make([]*ScoreResult, len(brands))

	var wg sync.WaitGroup
	for i, b := range brands {
		wg.Add(1)
		go func(i int, b records.Brand) {
			defer wg.Done()
			brandIn := Input{
				Incidents:  FilterByBrand(in.Incidents, b),
				Exposures:  FilterExposuresByBrand(in.Exposures, b),
				Complaints: in.Complaints,
				Benchmark:  in.Benchmark,
				Uptime:     in.Uptime,
			}
			results[i] = c.Score(b.Name, brandIn)
		}(i, b)
	}
	wg.Wait()

	return results
}
