package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadbroker_backend/internal/events"
	leadrepo "leadbroker_backend/internal/leads/repository"
	platformevents "leadbroker_backend/platform/events"
	"leadbroker_backend/platform/logger"
)

type fakeSender struct {
	assigned  []string
	reminders []string
}

func (f *fakeSender) SendLeadAssignedEmail(_ context.Context, toEmail, _, _, _ string) error {
	f.assigned = append(f.assigned, toEmail)
	return nil
}

func (f *fakeSender) SendFollowUpReminderEmail(_ context.Context, toEmail, _, _ string) error {
	f.reminders = append(f.reminders, toEmail)
	return nil
}

type fakeLeads struct {
	lead        leadrepo.Lead
	assignments []leadrepo.Assignment
}

func (f *fakeLeads) GetByID(context.Context, uuid.UUID) (leadrepo.Lead, error) {
	return f.lead, nil
}

func (f *fakeLeads) ListAssignments(context.Context, uuid.UUID) ([]leadrepo.Assignment, error) {
	return f.assignments, nil
}

type fakeAgents struct {
	name, email string
}

func (f *fakeAgents) EmailOf(context.Context, uuid.UUID) (string, string, error) {
	return f.name, f.email, nil
}

func TestLeadAssignedSendsAgentEmail(t *testing.T) {
	bus := platformevents.NewInMemoryBus(logger.New("development"))
	sender := &fakeSender{}
	leads := &fakeLeads{lead: leadrepo.Lead{
		ID: uuid.New(), HomeownerName: "Jo Park", PropertyAddress: "12 Main St 4000",
	}}
	NewModule(bus, sender, leads, &fakeAgents{}, logger.New("development"))

	err := bus.PublishSync(context.Background(), events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leads.lead.ID,
		AgentEmail: "dana@riverside.example",
		AgentName:  "Dana Wu",
	})
	if err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if len(sender.assigned) != 1 || sender.assigned[0] != "dana@riverside.example" {
		t.Fatalf("assigned emails = %v", sender.assigned)
	}
}

func TestFollowUpDueRemindsLatestAssignee(t *testing.T) {
	bus := platformevents.NewInMemoryBus(logger.New("development"))
	sender := &fakeSender{}
	leadID := uuid.New()
	leads := &fakeLeads{
		lead: leadrepo.Lead{ID: leadID, HomeownerName: "Jo Park"},
		assignments: []leadrepo.Assignment{
			{ID: uuid.New(), LeadID: leadID, AgentID: uuid.New(), AssignedAt: time.Now().Add(-time.Hour)},
			{ID: uuid.New(), LeadID: leadID, AgentID: uuid.New(), AssignedAt: time.Now()},
		},
	}
	agents := &fakeAgents{name: "Dana Wu", email: "dana@riverside.example"}
	NewModule(bus, sender, leads, agents, logger.New("development"))

	err := bus.PublishSync(context.Background(), events.FollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
	})
	if err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if len(sender.reminders) != 1 {
		t.Fatalf("reminders = %v", sender.reminders)
	}
}

func TestFollowUpDueSkipsUnassignedLead(t *testing.T) {
	bus := platformevents.NewInMemoryBus(logger.New("development"))
	sender := &fakeSender{}
	leads := &fakeLeads{lead: leadrepo.Lead{ID: uuid.New()}}
	NewModule(bus, sender, leads, &fakeAgents{}, logger.New("development"))

	err := bus.PublishSync(context.Background(), events.FollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leads.lead.ID,
	})
	if err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if len(sender.reminders) != 0 {
		t.Fatalf("unassigned lead must not trigger a reminder")
	}
}
