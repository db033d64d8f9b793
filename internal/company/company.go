// Package company defines the directory read model consumed by the matching
// engine: companies, their declared outputs and needs, and their sector tags.
package company

// Validation statuses that make a company visible to other companies.
const (
	StatusValidated = "validated"
	StatusApproved  = "approved"
	StatusActive    = "active"
	StatusPending   = "pending"
)

// DefaultEligibleStatuses is the allow-list used when none is configured.
var DefaultEligibleStatuses = []string{StatusValidated, StatusApproved, StatusActive}

// Company is a directory entry with its resources and type associations.
type Company struct { //nolint:revive // stutters but reads naturally at call sites
	ID               int64    `json:"id" yaml:"id"`
	OwnerID          int64    `json:"owner_id" yaml:"owner_id"`
	Name             string   `json:"name" yaml:"name"`
	Sector           string   `json:"sector,omitempty" yaml:"sector"`
	Address          string   `json:"address,omitempty" yaml:"address"`
	Latitude         *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude        *float64 `json:"longitude,omitempty" yaml:"longitude"`
	ValidationStatus string   `json:"validation_status" yaml:"validation_status"`
	Types            []string `json:"types,omitempty" yaml:"types"`
	Outputs          []Output `json:"outputs,omitempty" yaml:"outputs"`
	Inputs           []Input  `json:"inputs,omitempty" yaml:"inputs"`
}

// Output is a resource a company makes available. Wastes are outputs flagged
// IsWaste; everything else is a production.
type Output struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category"`
	Family   string `json:"family,omitempty" yaml:"family"`
	Unit     string `json:"unit,omitempty" yaml:"unit"`
	IsWaste  bool   `json:"is_waste" yaml:"is_waste"`
}

// Input is a resource a company is looking for.
type Input struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category"`
	Family   string `json:"family,omitempty" yaml:"family"`
	Unit     string `json:"unit,omitempty" yaml:"unit"`
}

// IsEligible reports whether the company's validation status is in statuses.
// An empty allow-list admits every status.
func (c *Company) IsEligible(statuses []string) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if c.ValidationStatus == s {
			return true
		}
	}
	return false
}
