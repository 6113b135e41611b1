// Package scheduler enqueues and runs delayed follow-up reminders on asynq.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpReminder = "leads.followup.reminder"

type FollowUpReminderPayload struct {
	LeadID string `json:"leadId"`
	// DueAt is the follow-up time the reminder was enqueued for. The worker
	// skips reminders whose lead has since been rescheduled.
	DueAt time.Time `json:"dueAt"`
}

func NewFollowUpReminderTask(payload FollowUpReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpReminder, data), nil
}

func ParseFollowUpReminderPayload(task *asynq.Task) (FollowUpReminderPayload, error) {
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpReminderPayload{}, err
	}
	return payload, nil
}
