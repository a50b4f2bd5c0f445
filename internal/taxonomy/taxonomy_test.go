package taxonomy

import (
	"testing"

	"github.com/riskscope/riskscope/internal/config"
)

func TestWeightLookup(t *testing.T) {
	tab := New(config.Default())

	tests := []struct {
		incidentType string
		want         int
	}{
		{"ransomware-attack", 100},
		{"phishing", 50},
		{"similar-domain-name", 15},
		{"never-seen-before", 10}, // default weight
	}
	for _, tt := range tests {
		if got := tab.Weight(tt.incidentType); got != tt.want {
			t.Errorf("Weight(%q) = %d, want %d", tt.incidentType, got, tt.want)
		}
	}
}

func TestCategoryLookup(t *testing.T) {
	tab := New(config.Default())

	cat, ok := tab.Category("phishing")
	if !ok || cat != Spoofing {
		t.Errorf("Category(phishing) = %v, %v; want S, true", cat, ok)
	}

	cat, ok = tab.Category("unknown-type")
	if ok || cat != Unclassified {
		t.Errorf("Category(unknown-type) = %v, %v; want U, false", cat, ok)
	}
}

func TestDreadFactorLookups(t *testing.T) {
	tab := New(config.Default())

	if got := tab.Reproducibility("phishing"); got != 9 {
		t.Errorf("Reproducibility(phishing) = %d, want 9", got)
	}
	if got := tab.Reproducibility("unknown-type"); got != 5 {
		t.Errorf("Reproducibility(unknown-type) = %d, want default 5", got)
	}
	if got := tab.AffectedUsers("ransomware-attack"); got != 9 {
		t.Errorf("AffectedUsers(ransomware-attack) = %d, want 9", got)
	}
	if got := tab.AffectedUsers("unknown-type"); got != 5 {
		t.Errorf("AffectedUsers(unknown-type) = %d, want default 5", got)
	}
}

func TestCategoryName(t *testing.T) {
	if got := InformationDisclosure.Name(); got != "Information Disclosure" {
		t.Errorf("Name() = %q", got)
	}
	if got := Category("Z").Name(); got != "Z" {
		t.Errorf("unknown category Name() = %q, want the raw letter", got)
	}
}

func TestCategoriesOrder(t *testing.T) {
	want := []Category{Spoofing, Tampering, Repudiation, InformationDisclosure, DenialOfService, ElevationOfPrivilege}
	got := Categories()
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
