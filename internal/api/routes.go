package api

import (
	"net/http"
	"os"

	"caseflow/internal/auth"
	"caseflow/internal/db"
	"caseflow/internal/pubsub"
	"caseflow/internal/service"
	"caseflow/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	DB        *db.Pool
	Bus       *pubsub.Bus
	Hub       *ws.Hub
	Log       *zap.Logger
	Cases     *service.CaseService
	Holidays  *service.HolidayService
	Roles     *service.RoleService
	Templates *service.TemplateService
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	// Add request logging middleware
	r.Use(RequestLogger(d.Log))

	// Add JWT authentication middleware
	jwtSecret := os.Getenv("JWT_SECRET")
	jwtConfig := auth.NewJWTConfig(jwtSecret)
	r.Use(jwtConfig.Middleware)

	// Case endpoints
	r.Post("/cases", d.createCase)
	r.Get("/cases", d.listCases)
	r.Get("/cases/{id}", d.getCase)
	r.Put("/cases/{id}/intake", d.setIntake)
	r.Get("/cases/{id}/timeline", d.getTimeline)
	r.Post("/cases/{id}/stages/{stageID}/toggle", d.toggleStage)
	r.Post("/cases/{id}/stages/{stageID}/substeps/{index}/toggle", d.toggleSubStep)
	r.Post("/cases/{id}/stages/{stageID}/confirm", d.confirmStage)
	r.Put("/cases/{id}/investigators", d.assignInvestigators)
	r.Post("/cases/{id}/close", d.closeCase)
	r.Post("/cases/{id}/tasks", d.addExternalTask)
	r.Post("/cases/{id}/tasks/{taskID}/complete", d.completeExternalTask)
	r.Get("/cases/{id}/audit", d.caseAudit)

	// Holiday calendar endpoints
	r.Get("/holidays", d.listHolidays)
	r.Post("/holidays", d.createHoliday)
	r.Delete("/holidays/{id}", d.deleteHoliday)

	// Role endpoints
	r.Post("/roles", d.createRole)
	r.Get("/roles/{id}", d.getRole)

	// Template endpoints
	r.Get("/templates", d.listTemplates)
	r.Post("/templates", d.createTemplate)

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}
