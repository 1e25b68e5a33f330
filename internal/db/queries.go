package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseflow/internal/model"
)

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

// Case represents a cases row
type Case struct {
	ID               string
	CompanyID        string
	CreatedBy        string
	Status           string
	ReceptionType    *string
	InternalAction   *string
	ComplaintDate    *time.Time
	ReceptionDate    *time.Time
	InvestigatorIDs  []string
	TimelineProgress map[string]bool
	ExternalTasks    []model.ExternalTask
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const caseColumns = `id, company_id, created_by, status, reception_type, internal_action,
	complaint_date, reception_date, investigator_ids, timeline_progress,
	external_tasks, created_at, updated_at`

func scanCase(row pgx.Row) (Case, error) {
	var c Case
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.CreatedBy, &c.Status, &c.ReceptionType, &c.InternalAction,
		&c.ComplaintDate, &c.ReceptionDate, &c.InvestigatorIDs, &c.TimelineProgress,
		&c.ExternalTasks, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

type CreateCaseParams struct {
	ID        string
	CompanyID string
	CreatedBy string
	Status    string
}

func (q *Queries) CreateCase(ctx context.Context, p CreateCaseParams) (Case, error) {
	return scanCase(q.Pool.QueryRow(ctx,
		`INSERT INTO cases (id, company_id, created_by, status, investigator_ids, timeline_progress, external_tasks)
		VALUES ($1, $2, $3, $4, '{}', '{}'::jsonb, '[]'::jsonb)
		RETURNING `+caseColumns,
		p.ID, p.CompanyID, p.CreatedBy, p.Status,
	))
}

func (q *Queries) GetCaseByID(ctx context.Context, id string) (Case, error) {
	return scanCase(q.Pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, id,
	))
}

type UpdateIntakeParams struct {
	ID             string
	ReceptionType  *string
	InternalAction *string
	ComplaintDate  *time.Time
	ReceptionDate  *time.Time
}

func (q *Queries) UpdateCaseIntake(ctx context.Context, p UpdateIntakeParams) (Case, error) {
	return scanCase(q.Pool.QueryRow(ctx,
		`UPDATE cases SET reception_type = $2, internal_action = $3,
			complaint_date = $4, reception_date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+caseColumns,
		p.ID, p.ReceptionType, p.InternalAction, p.ComplaintDate, p.ReceptionDate,
	))
}

func (q *Queries) UpdateCaseProgress(ctx context.Context, id string, progress map[string]bool) (Case, error) {
	return scanCase(q.Pool.QueryRow(ctx,
		`UPDATE cases SET timeline_progress = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+caseColumns,
		id, progress,
	))
}

func (q *Queries) UpdateCaseStatus(ctx context.Context, id, status string) (Case, error) {
	return scanCase(q.Pool.QueryRow(ctx,
		`UPDATE cases SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+caseColumns,
		id, status,
	))
}

func (q *Queries) UpdateCaseInvestigators(ctx context.Context, id string, investigatorIDs []string) (Case, error) {
	return scanCase(q.Pool.QueryRow(ctx,
		`UPDATE cases SET investigator_ids = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+caseColumns,
		id, investigatorIDs,
	))
}

func (q *Queries) UpdateCaseExternalTasks(ctx context.Context, id string, tasks []model.ExternalTask) (Case, error) {
	if tasks == nil {
		tasks = []model.ExternalTask{}
	}
	return scanCase(q.Pool.QueryRow(ctx,
		`UPDATE cases SET external_tasks = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+caseColumns,
		id, tasks,
	))
}

// ListCasesParams narrows the listing per the actor's list scope. AssignedTo
// and CreatedBy are mutually exclusive filters; both empty means the whole
// company.
type ListCasesParams struct {
	CompanyID  string
	AssignedTo string
	CreatedBy  string
	Limit      int
	Offset     int
}

func (q *Queries) ListCases(ctx context.Context, p ListCasesParams) ([]Case, error) {
	var rows pgx.Rows
	var err error

	switch {
	case p.AssignedTo != "":
		rows, err = q.Pool.Query(ctx,
			`SELECT `+caseColumns+` FROM cases
			WHERE company_id = $1 AND $2 = ANY(investigator_ids)
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4`,
			p.CompanyID, p.AssignedTo, p.Limit, p.Offset,
		)
	case p.CreatedBy != "":
		rows, err = q.Pool.Query(ctx,
			`SELECT `+caseColumns+` FROM cases
			WHERE company_id = $1 AND created_by = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4`,
			p.CompanyID, p.CreatedBy, p.Limit, p.Offset,
		)
	default:
		rows, err = q.Pool.Query(ctx,
			`SELECT `+caseColumns+` FROM cases
			WHERE company_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`,
			p.CompanyID, p.Limit, p.Offset,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := make([]Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// Holiday queries

type Holiday struct {
	ID        string
	CompanyID string
	Day       time.Time
	Name      string
}

func (q *Queries) ListHolidays(ctx context.Context, companyID string) ([]Holiday, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, company_id, day, name FROM holidays
		WHERE company_id = $1
		ORDER BY day ASC`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := make([]Holiday, 0)
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Day, &h.Name); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (q *Queries) CreateHoliday(ctx context.Context, id, companyID string, day time.Time, name string) (Holiday, error) {
	var h Holiday
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO holidays (id, company_id, day, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, company_id, day, name`,
		id, companyID, day, name,
	).Scan(&h.ID, &h.CompanyID, &h.Day, &h.Name)
	return h, err
}

func (q *Queries) DeleteHoliday(ctx context.Context, id string) error {
	result, err := q.Pool.Exec(ctx, "DELETE FROM holidays WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Role queries

type Role struct {
	ID          string
	CompanyID   string
	Name        string
	Permissions map[string]model.PermissionValue
}

func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.Pool.Query(ctx,
		"SELECT id, company_id, name, permissions FROM roles ORDER BY company_id, name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]Role, 0)
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Name, &r.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (q *Queries) GetRole(ctx context.Context, companyID, id string) (Role, error) {
	var r Role
	err := q.Pool.QueryRow(ctx,
		"SELECT id, company_id, name, permissions FROM roles WHERE company_id = $1 AND id = $2",
		companyID, id,
	).Scan(&r.ID, &r.CompanyID, &r.Name, &r.Permissions)
	return r, err
}

func (q *Queries) CreateRole(ctx context.Context, r Role) (Role, error) {
	var out Role
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO roles (id, company_id, name, permissions)
		VALUES ($1, $2, $3, $4)
		RETURNING id, company_id, name, permissions`,
		r.ID, r.CompanyID, r.Name, r.Permissions,
	).Scan(&out.ID, &out.CompanyID, &out.Name, &out.Permissions)
	return out, err
}

// Template queries

type Template struct {
	ID           string
	CompanyID    string
	Name         string
	TriggerPoint string
	Body         string
}

func (q *Queries) ListTemplates(ctx context.Context, companyID string) ([]Template, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, company_id, name, trigger_point, body FROM templates
		WHERE company_id = $1
		ORDER BY name`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.TriggerPoint, &t.Body); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (q *Queries) CreateTemplate(ctx context.Context, t Template) (Template, error) {
	var out Template
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO templates (id, company_id, name, trigger_point, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, company_id, name, trigger_point, body`,
		t.ID, t.CompanyID, t.Name, t.TriggerPoint, t.Body,
	).Scan(&out.ID, &out.CompanyID, &out.Name, &out.TriggerPoint, &out.Body)
	return out, err
}

// Audit queries

type AuditEntry struct {
	ID        string
	CaseID    string
	ActorID   string
	Action    string
	CreatedAt time.Time
}

func (q *Queries) InsertAuditEntries(ctx context.Context, entries []AuditEntry) error {
	for _, e := range entries {
		_, err := q.Pool.Exec(ctx,
			`INSERT INTO audit_log (id, case_id, actor_id, action, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.CaseID, e.ActorID, e.Action, e.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (q *Queries) ListAuditByCase(ctx context.Context, caseID string, limit, offset int) ([]AuditEntry, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT id, case_id, actor_id, action, created_at FROM audit_log
		WHERE case_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		caseID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.CaseID, &e.ActorID, &e.Action, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LatestAuditTime returns the most recent audit timestamp for a case, used
// by the inactivity reminder job.
func (q *Queries) LatestAuditTime(ctx context.Context, caseID string) (time.Time, error) {
	var t time.Time
	err := q.Pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(created_at), 'epoch'::timestamptz) FROM audit_log WHERE case_id = $1",
		caseID,
	).Scan(&t)
	return t, err
}
