package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caseflow/internal/calendar"
	"caseflow/internal/db"
	"caseflow/internal/model"
	"caseflow/internal/planconfig"
	"caseflow/internal/pubsub"
	"caseflow/internal/timeline"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// inactivityWindow is how long a case may sit without audit activity before
// the reminder fires.
const inactivityWindow = 15 * 24 * time.Hour

type JobServer struct {
	server *asynq.Server
	client *asynq.Client
	db     *db.Pool
	plans  *planconfig.Loader
	bus    *pubsub.Bus
	log    *zap.Logger
}

func NewJobServer(redisAddr string, dbPool *db.Pool, plans *planconfig.Loader, bus *pubsub.Bus, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server: server,
		client: client,
		db:     dbPool,
		plans:  plans,
		bus:    bus,
		log:    log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()

	// Register job handlers
	mux.HandleFunc("stage:deadline_notify", js.handleStageDeadlineNotification)
	mux.HandleFunc("stage:overdue", js.handleStageOverdueCheck)
	mux.HandleFunc("case:inactivity", js.handleInactivityReminder)

	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

// stagePayload is the payload for the per-stage jobs.
type stagePayload struct {
	CaseID  string `json:"caseId"`
	StageID string `json:"stageId"`
}

type casePayload struct {
	CaseID string `json:"caseId"`
}

// Job handlers. Each re-checks the current case state: stale jobs from an
// earlier intake are silently dropped.

func (js *JobServer) handleStageDeadlineNotification(ctx context.Context, t *asynq.Task) error {
	var p stagePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	c, st, err := js.resolveStage(ctx, p.CaseID, p.StageID)
	if err != nil {
		return err
	}
	if st == nil || st.IsCompleted || c.Status == model.CaseStatusClosed || c.Status == model.CaseStatusArchived {
		return nil
	}

	_ = js.bus.PublishCompany(c.CompanyID, map[string]interface{}{
		"type":    "stage.deadline_approaching",
		"caseId":  c.ID,
		"stageId": st.StageID,
		"endDate": st.EndDate.Format("2006-01-02"),
	})

	js.log.Info("Stage deadline notification sent",
		zap.String("case_id", c.ID), zap.String("stage_id", st.StageID))
	return nil
}

func (js *JobServer) handleStageOverdueCheck(ctx context.Context, t *asynq.Task) error {
	var p stagePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	c, st, err := js.resolveStage(ctx, p.CaseID, p.StageID)
	if err != nil {
		return err
	}
	if st == nil || !st.IsOverdue || c.Status == model.CaseStatusClosed || c.Status == model.CaseStatusArchived {
		return nil
	}

	_ = js.bus.PublishCompany(c.CompanyID, map[string]interface{}{
		"type":    "stage.overdue",
		"caseId":  c.ID,
		"stageId": st.StageID,
		"endDate": st.EndDate.Format("2006-01-02"),
	})

	js.log.Info("Stage overdue", zap.String("case_id", c.ID), zap.String("stage_id", st.StageID))
	return nil
}

func (js *JobServer) handleInactivityReminder(ctx context.Context, t *asynq.Task) error {
	var p casePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	row, err := js.db.Queries.GetCaseByID(ctx, p.CaseID)
	if err != nil {
		return fmt.Errorf("failed to get case: %w", err)
	}
	if row.Status == string(model.CaseStatusClosed) || row.Status == string(model.CaseStatusArchived) {
		return nil
	}

	lastActivity, err := js.db.Queries.LatestAuditTime(ctx, p.CaseID)
	if err != nil {
		return fmt.Errorf("failed to get last activity: %w", err)
	}

	// Activity happened since this reminder was scheduled: push it out
	// instead of firing.
	if next := lastActivity.Add(inactivityWindow); next.After(time.Now()) {
		return ScheduleInactivityReminder(js.client, p.CaseID, next)
	}

	_ = js.bus.PublishCompany(row.CompanyID, map[string]interface{}{
		"type":         "case.inactive",
		"caseId":       p.CaseID,
		"lastActivity": lastActivity.Format(time.RFC3339),
	})

	js.log.Info("Inactivity reminder sent", zap.String("case_id", p.CaseID))
	return nil
}

// resolveStage loads the case and resolves its timeline, returning the named
// stage. A case without recorded intake, or without that stage, returns nil.
func (js *JobServer) resolveStage(ctx context.Context, caseID, stageID string) (model.Case, *timeline.ResolvedStage, error) {
	row, err := js.db.Queries.GetCaseByID(ctx, caseID)
	if err != nil {
		return model.Case{}, nil, fmt.Errorf("failed to get case: %w", err)
	}
	c := dbCaseToModel(row)

	variant, ok := timeline.SelectVariant(c.ReceptionType, c.InternalAction)
	if !ok {
		return c, nil, nil
	}
	plan, err := js.plans.Plan(variant)
	if err != nil {
		return c, nil, fmt.Errorf("failed to load plan: %w", err)
	}

	holidays, err := js.db.Queries.ListHolidays(ctx, c.CompanyID)
	if err != nil {
		return c, nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	days := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		days = append(days, h.Day)
	}

	stages, err := timeline.Resolve(c, plan, calendar.New(days), time.Now())
	if err != nil {
		return c, nil, fmt.Errorf("failed to resolve timeline: %w", err)
	}
	for i := range stages {
		if stages[i].StageID == stageID {
			return c, &stages[i], nil
		}
	}
	return c, nil, nil
}

func dbCaseToModel(row db.Case) model.Case {
	c := model.Case{
		ID:               row.ID,
		CompanyID:        row.CompanyID,
		CreatedBy:        row.CreatedBy,
		CreatedAt:        row.CreatedAt,
		ComplaintDate:    row.ComplaintDate,
		ReceptionDate:    row.ReceptionDate,
		InvestigatorIDs:  row.InvestigatorIDs,
		TimelineProgress: row.TimelineProgress,
		ExternalTasks:    row.ExternalTasks,
		Status:           model.CaseStatus(row.Status),
	}
	if row.ReceptionType != nil {
		v := model.ReceptionType(*row.ReceptionType)
		c.ReceptionType = &v
	}
	if row.InternalAction != nil {
		v := model.InternalAction(*row.InternalAction)
		c.InternalAction = &v
	}
	if c.TimelineProgress == nil {
		c.TimelineProgress = map[string]bool{}
	}
	return c
}

// Schedule jobs

func ScheduleStageDeadlineNotification(client *asynq.Client, caseID, stageID string, notifyAt time.Time) error {
	if notifyAt.Before(time.Now()) {
		return nil // Already past notification time
	}

	payload, err := json.Marshal(stagePayload{CaseID: caseID, StageID: stageID})
	if err != nil {
		return err
	}
	task := asynq.NewTask("stage:deadline_notify", payload)
	_, err = client.Enqueue(task, asynq.ProcessIn(time.Until(notifyAt)))
	return err
}

func ScheduleStageOverdueCheck(client *asynq.Client, caseID, stageID string, checkAt time.Time) error {
	if checkAt.Before(time.Now()) {
		return nil // Deadline already passed when scheduled
	}

	payload, err := json.Marshal(stagePayload{CaseID: caseID, StageID: stageID})
	if err != nil {
		return err
	}
	task := asynq.NewTask("stage:overdue", payload)
	_, err = client.Enqueue(task, asynq.ProcessIn(time.Until(checkAt)))
	return err
}

func ScheduleInactivityReminder(client *asynq.Client, caseID string, remindAt time.Time) error {
	if remindAt.Before(time.Now()) {
		return nil
	}

	payload, err := json.Marshal(casePayload{CaseID: caseID})
	if err != nil {
		return err
	}
	task := asynq.NewTask("case:inactivity", payload)
	_, err = client.Enqueue(task, asynq.ProcessIn(time.Until(remindAt)), asynq.Queue("low"))
	return err
}
