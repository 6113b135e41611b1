package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	redisURL string
}

func (c testConfig) GetRedisURL() string      { return c.redisURL }
func (c testConfig) GetAsynqQueueName() string { return "followups" }
func (c testConfig) GetAsynqConcurrency() int  { return 1 }

func TestScheduleFollowUpEnqueuesTask(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	leadID := uuid.New()
	at := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	if err := client.ScheduleFollowUp(context.Background(), leadID, at); err != nil {
		t.Fatalf("ScheduleFollowUp: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("followups")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("want 1 scheduled task, got %d", len(scheduled))
	}
	if scheduled[0].Type != TaskFollowUpReminder {
		t.Fatalf("task type = %q", scheduled[0].Type)
	}

	var payload FollowUpReminderPayload
	if err := json.Unmarshal(scheduled[0].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.LeadID != leadID.String() {
		t.Fatalf("payload lead = %q, want %q", payload.LeadID, leadID)
	}
	if !payload.DueAt.Equal(at) {
		t.Fatalf("payload due = %v, want %v", payload.DueAt, at)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatal("want error without redis url")
	}
}
