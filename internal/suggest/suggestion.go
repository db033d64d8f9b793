package suggest

import (
	"time"

	"github.com/sells-group/symbiose/internal/company"
	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/match"
	"github.com/sells-group/symbiose/internal/reason"
	"github.com/sells-group/symbiose/internal/score"
)

// CompanySummary identifies the suggested company.
type CompanySummary struct {
	ID        int64    `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Sector    string   `json:"sector,omitempty" yaml:"sector,omitempty"`
	Address   string   `json:"address,omitempty" yaml:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// Meta carries freshness and interaction timestamps.
type Meta struct {
	IsFresh   bool      `json:"is_fresh" yaml:"is_fresh"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Suggestion is one scored candidate.
type Suggestion struct {
	Company       CompanySummary      `json:"company" yaml:"company"`
	Status        interaction.Status  `json:"status" yaml:"status"`
	InteractionID *int64              `json:"interaction_id" yaml:"interaction_id"`
	DistanceKM    *float64            `json:"distance_km" yaml:"distance_km"`
	Compatibility score.Compatibility `json:"compatibility" yaml:"compatibility"`
	Tags          []string            `json:"tags" yaml:"tags"`
	Reasons       []reason.Reason     `json:"reasons" yaml:"reasons"`
	Matches       match.Result        `json:"matches" yaml:"-"`
	Meta          Meta                `json:"meta" yaml:"meta"`
}

// Result is the output of one computation.
type Result struct {
	Company     *company.Company `json:"company"`
	Suggestions []Suggestion     `json:"suggestions"`
}

// StatusChange confirms a user action on a suggestion.
type StatusChange struct {
	Status        interaction.Status `json:"status"`
	InteractionID int64              `json:"interaction_id"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Message       string             `json:"message"`
}

func summarize(c company.Company) CompanySummary {
	return CompanySummary{
		ID:        c.ID,
		Name:      c.Name,
		Sector:    c.Sector,
		Address:   c.Address,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}
