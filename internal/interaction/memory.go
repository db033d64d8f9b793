package interaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

type pairKey struct {
	userID    int64
	companyID int64
}

// MemoryStore is an in-process Store. Writes hold a single lock, which gives
// the same one-row-per-pair guarantee as the SQL stores.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[pairKey]*Interaction
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[pairKey]*Interaction),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Put stores it as-is, assigning an id when it has none.
func (s *MemoryStore) Put(it Interaction) *Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == 0 {
		s.nextID++
		it.ID = s.nextID
	} else if it.ID > s.nextID {
		s.nextID = it.ID
	}
	row := it
	s.rows[pairKey{it.UserID, it.TargetCompanyID}] = &row
	return clone(&row)
}

func (s *MemoryStore) Get(_ context.Context, userID, companyID int64) (*Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[pairKey{userID, companyID}]
	if !ok {
		return nil, nil
	}
	return clone(row), nil
}

func (s *MemoryStore) ListForUser(_ context.Context, userID int64) ([]Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Interaction{}
	for k, row := range s.rows {
		if k.userID == userID {
			out = append(out, *clone(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetCompanyID < out[j].TargetCompanyID })
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, userID, companyID int64, in UpsertInput) (*Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := pairKey{userID, companyID}
	row, ok := s.rows[key]
	if !ok {
		s.nextID++
		row = &Interaction{
			ID:              s.nextID,
			UserID:          userID,
			TargetCompanyID: companyID,
			Status:          StatusNew,
			CreatedAt:       now,
		}
		s.rows[key] = row
	}
	scoreVal := in.Score
	row.LastScore = &scoreVal
	row.DistanceKM = copyFloat(in.DistanceKM)
	row.Reasons = append(row.Reasons[:0:0], in.Reasons...)
	row.Metadata = row.Metadata.Merge(in.Metadata)
	row.UpdatedAt = now
	return clone(row), nil
}

func (s *MemoryStore) SetStatus(_ context.Context, userID, companyID int64, status Status, note string) (*Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := pairKey{userID, companyID}
	row, ok := s.rows[key]
	if !ok {
		s.nextID++
		row = &Interaction{
			ID:              s.nextID,
			UserID:          userID,
			TargetCompanyID: companyID,
			CreatedAt:       now,
		}
		s.rows[key] = row
	}
	row.Status = status
	if note != "" {
		row.Metadata = row.Metadata.Merge(Metadata{Note: note, NoteUpdatedAt: &now})
	}
	row.UpdatedAt = now
	return clone(row), nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func clone(it *Interaction) *Interaction {
	c := *it
	c.Reasons = append(it.Reasons[:0:0], it.Reasons...)
	c.DistanceKM = copyFloat(it.DistanceKM)
	if it.LastScore != nil {
		v := *it.LastScore
		c.LastScore = &v
	}
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
