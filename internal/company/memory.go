package company

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MemoryStore is an in-process Provider backed by a fixed set of companies.
// It serves fixture-driven local runs and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[int64]Company
}

// NewMemoryStore creates a MemoryStore holding the given companies.
func NewMemoryStore(companies ...Company) *MemoryStore {
	s := &MemoryStore{companies: make(map[int64]Company, len(companies))}
	for _, c := range companies {
		s.companies[c.ID] = c
	}
	return s
}

// Put inserts or replaces a company.
func (s *MemoryStore) Put(c Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
}

// GetByOwner returns the lowest-id company owned by userID.
func (s *MemoryStore) GetByOwner(_ context.Context, userID int64) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *Company
	for _, c := range s.companies {
		if c.OwnerID != userID {
			continue
		}
		if found == nil || c.ID < found.ID {
			cp := c
			found = &cp
		}
	}
	return found, nil
}

// Get returns a company by id.
func (s *MemoryStore) Get(_ context.Context, id int64) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ListEligible returns eligible companies other than excludeID, ordered by id.
func (s *MemoryStore) ListEligible(_ context.Context, excludeID int64, statuses []string) ([]Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Company
	for id, c := range s.companies {
		if id == excludeID || !c.IsEligible(statuses) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fixtureFile is the on-disk layout of a directory snapshot.
type fixtureFile struct {
	Companies []Company `yaml:"companies"`
}

// LoadFixture reads a YAML directory snapshot into a MemoryStore.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "company: read fixture %s", path)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML directory snapshot. Company ids must be unique
// and positive.
func ParseFixture(data []byte) (*MemoryStore, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "company: decode fixture")
	}
	seen := make(map[int64]bool, len(f.Companies))
	for _, c := range f.Companies {
		if c.ID <= 0 {
			return nil, eris.Errorf("company: fixture company %q has no id", c.Name)
		}
		if seen[c.ID] {
			return nil, eris.Errorf("company: duplicate fixture company id %d", c.ID)
		}
		seen[c.ID] = true
	}
	return NewMemoryStore(f.Companies...), nil
}
