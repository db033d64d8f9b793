// Package suggest computes scored company suggestions for a user and records
// the user's decisions about them.
package suggest

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/symbiose/internal/apperr"
	"github.com/sells-group/symbiose/internal/company"
	"github.com/sells-group/symbiose/internal/geo"
	"github.com/sells-group/symbiose/internal/interaction"
	"github.com/sells-group/symbiose/internal/match"
	"github.com/sells-group/symbiose/internal/metrics"
	"github.com/sells-group/symbiose/internal/reason"
	"github.com/sells-group/symbiose/internal/resilience"
	"github.com/sells-group/symbiose/internal/resource"
	"github.com/sells-group/symbiose/internal/score"
)

// MaxNoteLength bounds the note attached to a status change, in characters.
const MaxNoteLength = 500

// MissingProfileMessage is returned when the requester has no company.
const MissingProfileMessage = "create a company profile to receive suggestions"

// Config tunes an Engine.
type Config struct {
	MinScore         int
	FreshnessWindow  time.Duration
	EligibleStatuses []string
	Retry            resilience.RetryConfig
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinScore:         30,
		FreshnessWindow:  7 * 24 * time.Hour,
		EligibleStatuses: company.DefaultEligibleStatuses,
		Retry:            resilience.DefaultRetryConfig(),
	}
}

// Options selects the computation mode.
type Options struct {
	// Persist upserts an interaction per emitted suggestion. Read-only
	// callers leave it false.
	Persist bool
}

// Engine orchestrates extraction, matching, scoring and persistence.
type Engine struct {
	companies    company.Provider
	interactions interaction.Store
	cfg          Config
	now          func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(companies company.Provider, interactions interaction.Store, cfg Config) *Engine {
	return &Engine{
		companies:    companies,
		interactions: interactions,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Compute scores every eligible candidate for userID's company.
func (e *Engine) Compute(ctx context.Context, userID int64, opts Options) (*Result, error) {
	mode := metrics.Mode(opts.Persist)
	start := time.Now()
	defer func() {
		metrics.SuggestionComputations.WithLabelValues(mode).Inc()
		metrics.SuggestionComputationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	var (
		requester  *company.Company
		candidates []company.Company
		existing   []interaction.Interaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := resilience.Read(gctx, e.cfg.Retry, "company.get_by_owner", func(ctx context.Context) (*company.Company, error) {
			return e.companies.GetByOwner(ctx, userID)
		})
		if err != nil {
			return apperr.Internal(err, "suggest: load requester company")
		}
		requester = c
		return nil
	})
	g.Go(func() error {
		// No exclusion, so every requester shares one cached list. The
		// requester's own company is skipped below.
		list, err := resilience.Read(gctx, e.cfg.Retry, "company.list_eligible", func(ctx context.Context) ([]company.Company, error) {
			return e.companies.ListEligible(ctx, 0, e.cfg.EligibleStatuses)
		})
		if err != nil {
			return apperr.Internal(err, "suggest: list candidates")
		}
		candidates = list
		return nil
	})
	g.Go(func() error {
		list, err := resilience.Read(gctx, e.cfg.Retry, "interaction.list_for_user", func(ctx context.Context) ([]interaction.Interaction, error) {
			return e.interactions.ListForUser(ctx, userID)
		})
		if err != nil {
			return apperr.Internal(err, "suggest: list interactions")
		}
		existing = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if requester == nil {
		return nil, apperr.NotFound(MissingProfileMessage)
	}
	source, err := resource.Extract(*requester)
	if err != nil {
		return nil, err
	}

	byTarget := make(map[int64]*interaction.Interaction, len(existing))
	for i := range existing {
		byTarget[existing[i].TargetCompanyID] = &existing[i]
	}

	run := &computation{
		engine:    e,
		userID:    userID,
		persist:   opts.Persist,
		runID:     uuid.New().String(),
		now:       e.now(),
		source:    source,
		requester: requester,
		existing:  byTarget,
	}

	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b company.Company) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	suggestions := []Suggestion{}
	for _, c := range ordered {
		if c.ID == requester.ID {
			continue
		}
		if s, ok := run.evaluate(ctx, c); ok {
			suggestions = append(suggestions, s)
		}
	}

	zap.L().Info("suggest: computation complete",
		zap.Int64("user_id", userID),
		zap.Int64("company_id", requester.ID),
		zap.String("run_id", run.runID),
		zap.Bool("persist", opts.Persist),
		zap.Int("candidates", len(ordered)),
		zap.Int("suggestions", len(suggestions)),
	)

	return &Result{Company: requester, Suggestions: suggestions}, nil
}

// computation is the per-run state shared by candidate evaluations.
type computation struct {
	engine    *Engine
	userID    int64
	persist   bool
	runID     string
	now       time.Time
	source    *resource.Context
	requester *company.Company
	existing  map[int64]*interaction.Interaction
}

func (r *computation) evaluate(ctx context.Context, c company.Company) (Suggestion, bool) {
	log := zap.L().With(zap.Int64("user_id", r.userID), zap.Int64("company_id", c.ID))

	target, err := resource.Extract(c)
	if err != nil {
		metrics.CandidatesEvaluated.WithLabelValues(metrics.OutcomeMalformed).Inc()
		log.Debug("suggest: skipping malformed candidate", zap.Error(err))
		return Suggestion{}, false
	}

	matches := match.Companies(r.source, target)
	if matches.Empty() {
		metrics.CandidatesEvaluated.WithLabelValues(metrics.OutcomeNoMatch).Inc()
		return Suggestion{}, false
	}

	distance := geo.DistanceKM(r.source.Location, target.Location)
	scored := score.Compose(r.source, target, matches, distance)
	if scored.Compatibility.Score < r.engine.cfg.MinScore {
		metrics.CandidatesEvaluated.WithLabelValues(metrics.OutcomeBelowThreshold).Inc()
		log.Debug("suggest: candidate below threshold", zap.Int("score", scored.Compatibility.Score))
		return Suggestion{}, false
	}

	reasons := reason.Build(reason.Input{
		Requester:   r.source,
		Candidate:   target,
		Matches:     matches,
		DistanceKM:  distance,
		SharedTypes: scored.SharedTypes,
	})

	current := r.existing[c.ID]
	if r.persist {
		updated, err := r.engine.interactions.Upsert(ctx, r.userID, c.ID, interaction.UpsertInput{
			Score:      scored.Compatibility.Score,
			DistanceKM: distance,
			Reasons:    reasons,
			Metadata: interaction.Metadata{Computed: &interaction.Computed{
				Components: scored.Compatibility.Breakdown,
				RawScores: interaction.RawScores{
					ResourceMatchDetail: scored.ResourceDetail,
					QuantityMatches:     scored.QuantityMatches,
					SharedSectorTags:    scored.SharedTypes,
				},
				ComputedAt: r.now,
				RunID:      r.runID,
			}},
		})
		if err != nil {
			metrics.InteractionWriteFailures.Inc()
			log.Warn("suggest: interaction upsert failed", zap.Error(eris.Wrap(err, "suggest: persist interaction")))
		} else {
			current = updated
		}
	}
	metrics.CandidatesEvaluated.WithLabelValues(metrics.OutcomeEmitted).Inc()

	return Suggestion{
		Company:       summarize(c),
		Status:        r.status(current),
		InteractionID: interactionID(current),
		DistanceKM:    geo.RoundKM(distance),
		Compatibility: scored.Compatibility,
		Tags:          slices.Clone(target.Tags),
		Reasons:       reasons,
		Matches:       matches,
		Meta:          r.meta(current),
	}, true
}

func (r *computation) status(it *interaction.Interaction) interaction.Status {
	if it == nil || it.Status == "" {
		return interaction.StatusNew
	}
	return it.Status
}

func (r *computation) meta(it *interaction.Interaction) Meta {
	if it == nil {
		return Meta{IsFresh: true, CreatedAt: r.now, UpdatedAt: r.now}
	}
	return Meta{
		IsFresh:   r.now.Sub(it.CreatedAt) <= r.engine.cfg.FreshnessWindow,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func interactionID(it *interaction.Interaction) *int64 {
	if it == nil {
		return nil
	}
	id := it.ID
	return &id
}

var statusMessages = map[interaction.Status]string{
	interaction.StatusContacted: "Contact initiated",
	interaction.StatusSaved:     "Suggestion saved",
	interaction.StatusIgnored:   "Suggestion ignored",
}

// SetInteractionStatus records a user's save, ignore or contact action. The
// target company must exist when the pair has no interaction yet.
func (e *Engine) SetInteractionStatus(ctx context.Context, userID, companyID int64, status interaction.Status, note string) (*StatusChange, error) {
	message, ok := statusMessages[status]
	if !ok {
		return nil, apperr.InvalidInput("invalid status", map[string]string{"status": "must be one of saved, ignored, contacted"})
	}
	if companyID <= 0 {
		return nil, apperr.InvalidInput("invalid suggestion id", map[string]string{"id": "must be a positive integer"})
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, apperr.InvalidInput("invalid payload", map[string]string{"comment": "must be at most 500 characters"})
	}

	existing, err := e.interactions.Get(ctx, userID, companyID)
	if err != nil {
		return nil, apperr.Internal(err, "suggest: load interaction")
	}
	if existing == nil {
		target, err := e.companies.Get(ctx, companyID)
		if err != nil {
			return nil, apperr.Internal(err, "suggest: load target company")
		}
		if target == nil {
			return nil, apperr.NotFound("company not found")
		}
	}

	it, err := e.interactions.SetStatus(ctx, userID, companyID, status, note)
	if err != nil {
		return nil, apperr.Internal(err, "suggest: set interaction status")
	}
	metrics.InteractionStatusChanges.WithLabelValues(string(status)).Inc()

	zap.L().Info("suggest: interaction status changed",
		zap.Int64("user_id", userID),
		zap.Int64("company_id", companyID),
		zap.String("status", string(status)),
		zap.Int64("interaction_id", it.ID),
	)

	return &StatusChange{
		Status:        it.Status,
		InteractionID: it.ID,
		UpdatedAt:     it.UpdatedAt,
		Message:       message,
	}, nil
}
