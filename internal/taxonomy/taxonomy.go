// Package taxonomy holds the static threat-type table: the mapping from an
// incident-type identifier to its severity weight, STRIDE category, and
// per-type DREAD factor values. Types absent from the table resolve to the
// configured default weight and the unclassified category — a deliberate
// policy, never an error.
package taxonomy

import "github.com/riskscope/riskscope/internal/config"

// Category is one of the six STRIDE threat categories, plus the explicit
// unclassified bucket for types the table does not know.
type Category string

const (
	Spoofing              Category = "S"
	Tampering             Category = "T"
	Repudiation           Category = "R"
	InformationDisclosure Category = "I"
	DenialOfService       Category = "D"
	ElevationOfPrivilege  Category = "E"
	Unclassified          Category = "U"
)

// categoryNames are the human-readable labels for each category.
var categoryNames = map[Category]string{
	Spoofing:              "Spoofing (Identity Impersonation)",
	Tampering:             "Tampering (Data Modification)",
	Repudiation:           "Repudiation (Deniability)",
	InformationDisclosure: "Information Disclosure",
	DenialOfService:       "Denial of Service",
	ElevationOfPrivilege:  "Elevation of Privilege",
	Unclassified:          "Unclassified",
}

// Name returns the human-readable label for a category.
func (c Category) Name() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return string(c)
}

// Categories lists the six STRIDE categories in canonical order.
func Categories() []Category {
	return []Category{
		Spoofing, Tampering, Repudiation,
		InformationDisclosure, DenialOfService, ElevationOfPrivilege,
	}
}

// Table is the resolved threat-type taxonomy for one configuration. It is
// read-only after construction and safe for concurrent use.
type Table struct {
	weights         map[string]int
	defaultWeight   int
	categories      map[string]Category
	reproducibility map[string]int
	affectedUsers   map[string]int
}

// New builds a Table from a validated configuration.
func New(cfg *config.Config) *Table {
	categories := make(map[string]Category, len(cfg.StrideMapping))
	for t, letter := range cfg.StrideMapping {
		categories[t] = Category(letter)
	}
	return &Table{
		weights:         cfg.IncidentWeights,
		defaultWeight:   cfg.IncidentWeights[config.DefaultKey],
		categories:      categories,
		reproducibility: cfg.Dread.ReproducibilityByType,
		affectedUsers:   cfg.Dread.AffectedUsersByType,
	}
}

// Weight returns the severity weight for a threat type, falling back to the
// default weight for unknown types.
func (t *Table) Weight(incidentType string) int {
	if w, ok := t.weights[incidentType]; ok {
		return w
	}
	return t.defaultWeight
}

// Category returns the STRIDE category for a threat type. Unknown types
// return Unclassified and ok=false.
func (t *Table) Category(incidentType string) (cat Category, ok bool) {
	if c, found := t.categories[incidentType]; found {
		return c, true
	}
	return Unclassified, false
}

// Reproducibility returns the DREAD reproducibility value for a threat
// type, falling back to the table's default entry.
func (t *Table) Reproducibility(incidentType string) int {
	return lookupOrDefault(t.reproducibility, incidentType)
}

// AffectedUsers returns the DREAD affected-users value for a threat type,
// falling back to the table's default entry.
func (t *Table) AffectedUsers(incidentType string) int {
	return lookupOrDefault(t.affectedUsers, incidentType)
}

func lookupOrDefault(m map[string]int, key string) int {
	if v, ok := m[key]; ok {
		return v
	}
	return m[config.DefaultKey]
}
