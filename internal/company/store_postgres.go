package company

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/symbiose/internal/db"
)

// PostgresStore implements Provider using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const companyColumns = `id, owner_id, name, COALESCE(sector, ''), COALESCE(address, ''),
	latitude, longitude, COALESCE(validation_status, '')`

// GetByOwner fetches the company owned by a user.
func (s *PostgresStore) GetByOwner(ctx context.Context, userID int64) (*Company, error) {
	c := &Company{}
	err := s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE owner_id=$1 ORDER BY id LIMIT 1`, userID).
		Scan(companyDests(c)...)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "company: get by owner %d", userID)
	}
	if err := s.loadResources(ctx, []*Company{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// Get fetches a company by ID.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Company, error) {
	c := &Company{}
	err := s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id).
		Scan(companyDests(c)...)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "company: get %d", id)
	}
	if err := s.loadResources(ctx, []*Company{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListEligible returns candidate companies for matching, ordered by id.
func (s *PostgresStore) ListEligible(ctx context.Context, excludeID int64, statuses []string) ([]Company, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(statuses) > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT `+companyColumns+`
			FROM companies
			WHERE id <> $1 AND validation_status = ANY($2)
			ORDER BY id`, excludeID, statuses)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+companyColumns+`
			FROM companies
			WHERE id <> $1
			ORDER BY id`, excludeID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "company: list eligible")
	}
	companies, err := scanCompanies(rows)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*Company, len(companies))
	for i := range companies {
		ptrs[i] = &companies[i]
	}
	if err := s.loadResources(ctx, ptrs); err != nil {
		return nil, err
	}
	return companies, nil
}

// loadResources fills outputs, inputs and type names for the given companies
// with one query per collection.
func (s *PostgresStore) loadResources(ctx context.Context, companies []*Company) error {
	if len(companies) == 0 {
		return nil
	}
	byID := make(map[int64]*Company, len(companies))
	ids := make([]int64, 0, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	outRows, err := s.pool.Query(ctx, `
		SELECT o.id, o.company_id, o.name, COALESCE(o.category, ''), COALESCE(f.name, ''),
		       COALESCE(o.unit_measure, ''), o.is_waste
		FROM company_outputs o
		LEFT JOIN families f ON f.id = o.family_id
		WHERE o.company_id = ANY($1)
		ORDER BY o.company_id, o.id`, ids)
	if err != nil {
		return eris.Wrap(err, "company: query outputs")
	}
	defer outRows.Close()
	for outRows.Next() {
		var (
			o         Output
			companyID int64
		)
		if err := outRows.Scan(&o.ID, &companyID, &o.Name, &o.Category, &o.Family, &o.Unit, &o.IsWaste); err != nil {
			return eris.Wrap(err, "company: scan output")
		}
		if c, ok := byID[companyID]; ok {
			c.Outputs = append(c.Outputs, o)
		}
	}
	if err := outRows.Err(); err != nil {
		return eris.Wrap(err, "company: iterate outputs")
	}

	inRows, err := s.pool.Query(ctx, `
		SELECT i.id, i.company_id, i.name, COALESCE(i.category, ''), COALESCE(f.name, ''),
		       COALESCE(i.unit_measure, '')
		FROM company_inputs i
		LEFT JOIN families f ON f.id = i.family_id
		WHERE i.company_id = ANY($1)
		ORDER BY i.company_id, i.id`, ids)
	if err != nil {
		return eris.Wrap(err, "company: query inputs")
	}
	defer inRows.Close()
	for inRows.Next() {
		var (
			in        Input
			companyID int64
		)
		if err := inRows.Scan(&in.ID, &companyID, &in.Name, &in.Category, &in.Family, &in.Unit); err != nil {
			return eris.Wrap(err, "company: scan input")
		}
		if c, ok := byID[companyID]; ok {
			c.Inputs = append(c.Inputs, in)
		}
	}
	if err := inRows.Err(); err != nil {
		return eris.Wrap(err, "company: iterate inputs")
	}

	typeRows, err := s.pool.Query(ctx, `
		SELECT ct.company_id, t.name
		FROM company_types ct
		JOIN types t ON t.id = ct.type_id
		WHERE ct.company_id = ANY($1)
		ORDER BY ct.company_id, t.id`, ids)
	if err != nil {
		return eris.Wrap(err, "company: query types")
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var (
			companyID int64
			name      string
		)
		if err := typeRows.Scan(&companyID, &name); err != nil {
			return eris.Wrap(err, "company: scan type")
		}
		if c, ok := byID[companyID]; ok {
			c.Types = append(c.Types, name)
		}
	}
	if err := typeRows.Err(); err != nil {
		return eris.Wrap(err, "company: iterate types")
	}
	return nil
}

func companyDests(c *Company) []any {
	return []any{
		&c.ID, &c.OwnerID, &c.Name, &c.Sector, &c.Address,
		&c.Latitude, &c.Longitude, &c.ValidationStatus,
	}
}

func scanCompanies(rows pgx.Rows) ([]Company, error) {
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(companyDests(&c)...); err != nil {
			return nil, eris.Wrap(err, "company: scan company")
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "company: iterate companies")
	}
	return companies, nil
}
