package records

import "testing"

func TestHasAsset(t *testing.T) {
	inc := Incident{Key: "INC-1", Assets: []string{"acme", "globex"}}
	if !inc.HasAsset("acme") {
		t.Error("HasAsset(acme) = false, want true")
	}
	if inc.HasAsset("other") {
		t.Error("HasAsset(other) = true, want false")
	}
}

func TestLatestMedian(t *testing.T) {
	var nilBench *Benchmark
	if got := nilBench.LatestMedian(); got != 0 {
		t.Errorf("nil benchmark LatestMedian = %d, want 0", got)
	}

	b := &Benchmark{Months: []BenchmarkMonth{
		{Month: "2026-06", Median: 80},
		{Month: "2026-07", Median: 42},
	}}
	if got := b.LatestMedian(); got != 42 {
		t.Errorf("LatestMedian = %d, want the most recent month's 42", got)
	}
}

func TestUptimeBuckets(t *testing.T) {
	u := UptimeBuckets{
		{Label: "<1 day", MinDays: 0, Count: 4},
		{Label: "1-30 days", MinDays: 1, Count: 3},
		{Label: "30-60 days", MinDays: 30, Count: 2},
		{Label: "60+ days", MinDays: 60, Count: 1},
	}

	if got := u.Total(); got != 10 {
		t.Errorf("Total = %d, want 10", got)
	}
	if got := u.SlowCount(30); got != 3 {
		t.Errorf("SlowCount(30) = %d, want 3; the 30-day boundary counts as slow", got)
	}
}
