// Package interaction persists the per-user state of each suggested company.
package interaction

import (
	"context"
	"time"

	"github.com/sells-group/symbiose/internal/apperr"
	"github.com/sells-group/symbiose/internal/reason"
	"github.com/sells-group/symbiose/internal/score"
)

// Status is the user's disposition toward a suggestion.
type Status string

// Interaction statuses.
const (
	StatusNew       Status = "new"
	StatusSaved     Status = "saved"
	StatusIgnored   Status = "ignored"
	StatusContacted Status = "contacted"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusNew, StatusSaved, StatusIgnored, StatusContacted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", apperr.InvalidInput("invalid status", map[string]string{"status": "must be one of new, saved, ignored, contacted"})
	}
	return s, nil
}

// RawScores are the intermediate figures behind a breakdown.
type RawScores struct {
	ResourceMatchDetail int      `json:"resource_match_detail"`
	QuantityMatches     int      `json:"quantity_matches"`
	SharedSectorTags    []string `json:"shared_sector_tags"`
}

// Computed is the engine-owned part of the metadata, replaced on every
// recomputation.
type Computed struct {
	Components score.Breakdown `json:"components"`
	RawScores  RawScores       `json:"raw_scores"`
	ComputedAt time.Time       `json:"computed_at"`
	RunID      string          `json:"run_id,omitempty"`
}

// Metadata is the fixed metadata record of an interaction. Note is the only
// user-owned field.
type Metadata struct {
	Computed      *Computed  `json:"computed,omitempty"`
	Note          string     `json:"note,omitempty"`
	NoteUpdatedAt *time.Time `json:"note_updated_at,omitempty"`
}

// Merge applies patch to m. A patch with a computed part replaces it; the
// note survives unless the patch carries one.
func (m Metadata) Merge(patch Metadata) Metadata {
	out := m
	if patch.Computed != nil {
		out.Computed = patch.Computed
	}
	if patch.Note != "" {
		out.Note = patch.Note
		out.NoteUpdatedAt = patch.NoteUpdatedAt
	}
	return out
}

// Interaction is the persisted record for one (user, company) pair.
type Interaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TargetCompanyID int64           `json:"target_company_id"`
	Status          Status          `json:"status"`
	LastScore       *int            `json:"last_score,omitempty"`
	DistanceKM      *float64        `json:"distance_km,omitempty"`
	Reasons         []reason.Reason `json:"reasons"`
	Metadata        Metadata        `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UpsertInput is the computed state written on recomputation.
type UpsertInput struct {
	Score      int
	DistanceKM *float64
	Reasons    []reason.Reason
	Metadata   Metadata
}

// Store persists interactions. Implementations key rows by (userID,
// companyID) and perform Upsert and SetStatus as a single atomic write.
type Store interface {
	// Get returns nil, nil when no row exists.
	Get(ctx context.Context, userID, companyID int64) (*Interaction, error)
	ListForUser(ctx context.Context, userID int64) ([]Interaction, error)
	// Upsert refreshes score, distance, reasons and the computed metadata.
	// Status is never changed on conflict and starts as new on insert.
	Upsert(ctx context.Context, userID, companyID int64, in UpsertInput) (*Interaction, error)
	// SetStatus sets status, creating the row when absent. An empty note
	// keeps the stored note.
	SetStatus(ctx context.Context, userID, companyID int64, status Status, note string) (*Interaction, error)

	Migrate(ctx context.Context) error
	Close() error
}
