package service

import (
	"time"

	"caseflow/internal/jobs"

	"github.com/hibiken/asynq"
)

// JobClient interface for scheduling background jobs
type JobClient interface {
	ScheduleStageDeadlineNotification(caseID, stageID string, deadlineAt time.Time) error
	ScheduleStageOverdueCheck(caseID, stageID string, deadlineAt time.Time) error
	ScheduleInactivityReminder(caseID string, remindAt time.Time) error
}

// AsynqJobClient implements JobClient using asynq
type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(client *asynq.Client) *AsynqJobClient {
	return &AsynqJobClient{client: client}
}

func (c *AsynqJobClient) ScheduleStageDeadlineNotification(caseID, stageID string, deadlineAt time.Time) error {
	return jobs.ScheduleStageDeadlineNotification(c.client, caseID, stageID, deadlineAt)
}

func (c *AsynqJobClient) ScheduleStageOverdueCheck(caseID, stageID string, deadlineAt time.Time) error {
	return jobs.ScheduleStageOverdueCheck(c.client, caseID, stageID, deadlineAt)
}

func (c *AsynqJobClient) ScheduleInactivityReminder(caseID string, remindAt time.Time) error {
	return jobs.ScheduleInactivityReminder(c.client, caseID, remindAt)
}
