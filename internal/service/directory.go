package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"caseflow/internal/authz"
	"caseflow/internal/calendar"
	"caseflow/internal/db"
	"caseflow/internal/model"
)

// HolidayService manages company holiday calendars
type HolidayService struct {
	queries *db.Queries
	log     *zap.Logger
}

func NewHolidayService(queries *db.Queries, log *zap.Logger) *HolidayService {
	return &HolidayService{queries: queries, log: log}
}

// Calendar builds the business calendar from the company's stored holidays.
func (s *HolidayService) Calendar(ctx context.Context, companyID string) (*calendar.BusinessCalendar, error) {
	rows, err := s.queries.ListHolidays(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	days := make([]time.Time, 0, len(rows))
	for _, h := range rows {
		days = append(days, h.Day)
	}
	return calendar.New(days), nil
}

func (s *HolidayService) List(ctx context.Context, companyID string) ([]db.Holiday, error) {
	return s.queries.ListHolidays(ctx, companyID)
}

func (s *HolidayService) Create(ctx context.Context, companyID string, day time.Time, name string) (db.Holiday, error) {
	id := ulid.Make().String()
	h, err := s.queries.CreateHoliday(ctx, id, companyID, calendar.Truncate(day), name)
	if err != nil {
		return db.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	s.log.Info("holiday created", zap.String("holiday_id", h.ID), zap.String("company_id", companyID))
	return h, nil
}

func (s *HolidayService) Delete(ctx context.Context, id string) error {
	return s.queries.DeleteHoliday(ctx, id)
}

// RoleService manages roles and builds permission evaluators from them
type RoleService struct {
	queries *db.Queries
	log     *zap.Logger
}

func NewRoleService(queries *db.Queries, log *zap.Logger) *RoleService {
	return &RoleService{queries: queries, log: log}
}

// Evaluator loads every stored role and builds a permission evaluator over
// them. Roles change rarely; callers build one per request.
func (s *RoleService) Evaluator(ctx context.Context) (*authz.Evaluator, error) {
	rows, err := s.queries.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	roles := make([]model.Role, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, model.Role{
			ID:          r.ID,
			CompanyID:   r.CompanyID,
			Name:        r.Name,
			Permissions: r.Permissions,
		})
	}
	return authz.NewEvaluator(roles, s.log), nil
}

func (s *RoleService) Get(ctx context.Context, companyID, id string) (db.Role, error) {
	return s.queries.GetRole(ctx, companyID, id)
}

func (s *RoleService) Create(ctx context.Context, companyID, name string, permissions map[string]model.PermissionValue) (db.Role, error) {
	r, err := s.queries.CreateRole(ctx, db.Role{
		ID:          ulid.Make().String(),
		CompanyID:   companyID,
		Name:        name,
		Permissions: permissions,
	})
	if err != nil {
		return db.Role{}, fmt.Errorf("failed to create role: %w", err)
	}
	s.log.Info("role created", zap.String("role_id", r.ID), zap.String("company_id", companyID))
	return r, nil
}

// TemplateService manages the communication template catalog
type TemplateService struct {
	queries *db.Queries
	log     *zap.Logger
}

func NewTemplateService(queries *db.Queries, log *zap.Logger) *TemplateService {
	return &TemplateService{queries: queries, log: log}
}

// Catalog returns the company's installed templates as trigger catalog
// entries.
func (s *TemplateService) Catalog(ctx context.Context, companyID string) ([]model.TriggerTemplate, error) {
	rows, err := s.queries.ListTemplates(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	catalog := make([]model.TriggerTemplate, 0, len(rows))
	for _, t := range rows {
		catalog = append(catalog, model.TriggerTemplate{
			ID:           t.ID,
			CompanyID:    t.CompanyID,
			Name:         t.Name,
			TriggerPoint: model.TriggerPoint(t.TriggerPoint),
			Body:         t.Body,
		})
	}
	return catalog, nil
}

func (s *TemplateService) Create(ctx context.Context, companyID, name string, point model.TriggerPoint, body string) (db.Template, error) {
	t, err := s.queries.CreateTemplate(ctx, db.Template{
		ID:           ulid.Make().String(),
		CompanyID:    companyID,
		Name:         name,
		TriggerPoint: string(point),
		Body:         body,
	})
	if err != nil {
		return db.Template{}, fmt.Errorf("failed to create template: %w", err)
	}
	s.log.Info("template created",
		zap.String("template_id", t.ID),
		zap.String("trigger_point", t.TriggerPoint))
	return t, nil
}
