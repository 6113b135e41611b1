package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadbroker_backend/internal/events"
	"leadbroker_backend/internal/leads/bulkimport"
	"leadbroker_backend/internal/leads/domain"
	"leadbroker_backend/internal/leads/ports"
	"leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/internal/leads/routing"
	"leadbroker_backend/internal/leads/transport"
	"leadbroker_backend/internal/leads/visibility"
	"leadbroker_backend/platform/apperr"
	"leadbroker_backend/platform/httpkit"
	"leadbroker_backend/platform/logger"
)

type memRepo struct {
	leads       map[uuid.UUID]repository.Lead
	notes       map[uuid.UUID][]repository.Note
	assignments map[uuid.UUID][]repository.Assignment
}

func newMemRepo() *memRepo {
	return &memRepo{
		leads:       map[uuid.UUID]repository.Lead{},
		notes:       map[uuid.UUID][]repository.Note{},
		assignments: map[uuid.UUID][]repository.Assignment{},
	}
}

func (m *memRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:              uuid.New(),
		HomeownerName:   params.HomeownerName,
		HomeownerEmail:  params.HomeownerEmail,
		HomeownerPhone:  params.HomeownerPhone,
		PropertyAddress: params.PropertyAddress,
		Postcode:        params.Postcode,
		PropertyType:    params.PropertyType,
		PropertyValue:   params.PropertyValue,
		Status:          string(domain.StatusNew),
		Source:          params.Source,
		OwningAgencyID:  params.OwningAgencyID,
		CreatedBy:       params.CreatedBy,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *memRepo) List(_ context.Context, scope visibility.Scope, filters repository.ListFilters) ([]repository.Lead, error) {
	var out []repository.Lead
	if scope.DenyAll {
		return out, nil
	}
	for _, lead := range m.leads {
		if !scope.All {
			continue
		}
		if filters.Status != nil && lead.Status != *filters.Status {
			continue
		}
		if filters.PropertyType != nil && lead.PropertyType != *filters.PropertyType {
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.Status != nil {
		lead.Status = *params.Status
	}
	if params.HomeownerName != nil {
		lead.HomeownerName = *params.HomeownerName
	}
	if params.PostcodeSet {
		lead.Postcode = params.Postcode
	}
	m.leads[id] = lead
	return lead, nil
}

func (m *memRepo) StampAssignment(_ context.Context, id, agencyID, assigneeID uuid.UUID, name string) (repository.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.OwningAgencyID = &agencyID
	lead.AssignedAgentID = &assigneeID
	lead.AssignedAgentName = &name
	m.leads[id] = lead
	return lead, nil
}

func (m *memRepo) SetFollowUp(_ context.Context, id uuid.UUID, at *time.Time, notes *string) (repository.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.FollowUpAt = at
	lead.FollowUpNotes = notes
	m.leads[id] = lead
	return lead, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *memRepo) ListByHomeownerEmail(_ context.Context, email string) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, lead := range m.leads {
		if lead.HomeownerEmail == email {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (m *memRepo) AddNote(_ context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (repository.Note, error) {
	note := repository.Note{ID: uuid.New(), LeadID: leadID, AuthorID: authorID, Body: body, CreatedAt: time.Now()}
	m.notes[leadID] = append(m.notes[leadID], note)
	return note, nil
}

func (m *memRepo) ListNotes(_ context.Context, leadID uuid.UUID) ([]repository.Note, error) {
	return m.notes[leadID], nil
}

func (m *memRepo) CreateAssignment(_ context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) (repository.Assignment, error) {
	a := repository.Assignment{
		ID: uuid.New(), LeadID: leadID, AgentID: agentID, AssignedBy: assignedBy,
		Status: string(domain.AssignmentPending), AssignedAt: time.Now(),
	}
	m.assignments[leadID] = append(m.assignments[leadID], a)
	return a, nil
}

func (m *memRepo) ListAssignments(_ context.Context, leadID uuid.UUID) ([]repository.Assignment, error) {
	return m.assignments[leadID], nil
}

func (m *memRepo) GetAssignment(_ context.Context, id uuid.UUID) (repository.Assignment, error) {
	for _, list := range m.assignments {
		for _, a := range list {
			if a.ID == id {
				return a, nil
			}
		}
	}
	return repository.Assignment{}, repository.ErrNotFound
}

func (m *memRepo) UpdateAssignmentStatus(_ context.Context, id uuid.UUID, status string, notes *string) (repository.Assignment, error) {
	for leadID, list := range m.assignments {
		for i, a := range list {
			if a.ID != id {
				continue
			}
			a.Status = status
			if notes != nil {
				a.Notes = notes
			}
			m.assignments[leadID][i] = a
			return a, nil
		}
	}
	return repository.Assignment{}, repository.ErrNotFound
}

func (m *memRepo) ListAssignmentsForAgent(_ context.Context, agentID uuid.UUID) ([]repository.Assignment, error) {
	var out []repository.Assignment
	for _, list := range m.assignments {
		for _, a := range list {
			if a.AgentID == agentID {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

type stubAgencies struct {
	postcodes map[uuid.UUID][]string
}

func (s *stubAgencies) FindByPostcode(context.Context, string) ([]ports.Agency, error) {
	return nil, nil
}

func (s *stubAgencies) FindFallback(context.Context) (ports.Agency, error) {
	return ports.Agency{}, errors.New("no fallback agency")
}

func (s *stubAgencies) PostcodesOf(_ context.Context, agencyID uuid.UUID) ([]string, error) {
	return s.postcodes[agencyID], nil
}

func (s *stubAgencies) Serves(_ context.Context, agencyID uuid.UUID, code string) (bool, error) {
	for _, c := range s.postcodes[agencyID] {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

type fakeRouter struct {
	repo          *memRepo
	fail          *routing.Failure
	result        routing.Result
	calls         int
	actorIn       []*uuid.UUID
	agencyTargets []uuid.UUID
	agentTargets  []uuid.UUID
}

func (f *fakeRouter) Assign(ctx context.Context, in routing.Input, assignedBy *uuid.UUID) (routing.Result, error) {
	f.calls++
	f.actorIn = append(f.actorIn, assignedBy)
	if f.fail != nil {
		return routing.Result{}, f.fail
	}
	if f.repo != nil {
		if _, err := f.repo.StampAssignment(ctx, in.LeadID, f.result.AgencyID, f.result.AssigneeID, f.result.AgentName); err != nil {
			return routing.Result{}, err
		}
		if _, err := f.repo.CreateAssignment(ctx, in.LeadID, f.result.AgentID, assignedBy); err != nil {
			return routing.Result{}, err
		}
	}
	return f.result, nil
}

func (f *fakeRouter) AssignFallback(_ context.Context, _ uuid.UUID, _ *uuid.UUID) (routing.Result, error) {
	if f.fail != nil {
		return routing.Result{}, f.fail
	}
	return f.result, nil
}

func (f *fakeRouter) AssignToAgency(ctx context.Context, leadID, agencyID uuid.UUID, assignedBy *uuid.UUID) (routing.Result, error) {
	f.agencyTargets = append(f.agencyTargets, agencyID)
	if f.fail != nil {
		return routing.Result{}, f.fail
	}
	if f.repo != nil {
		if _, err := f.repo.StampAssignment(ctx, leadID, agencyID, f.result.AssigneeID, f.result.AgentName); err != nil {
			return routing.Result{}, err
		}
		if _, err := f.repo.CreateAssignment(ctx, leadID, f.result.AgentID, assignedBy); err != nil {
			return routing.Result{}, err
		}
	}
	return f.result, nil
}

func (f *fakeRouter) AssignToAgent(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) (routing.Result, error) {
	f.agentTargets = append(f.agentTargets, agentID)
	if f.fail != nil {
		return routing.Result{}, f.fail
	}
	if f.repo != nil {
		if _, err := f.repo.StampAssignment(ctx, leadID, f.result.AgencyID, agentID, f.result.AgentName); err != nil {
			return routing.Result{}, err
		}
		if _, err := f.repo.CreateAssignment(ctx, leadID, agentID, assignedBy); err != nil {
			return routing.Result{}, err
		}
	}
	return f.result, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

type fakeScheduler struct {
	scheduled []uuid.UUID
	err       error
}

func (f *fakeScheduler) ScheduleFollowUp(_ context.Context, leadID uuid.UUID, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, leadID)
	return nil
}

func newTestServiceWith(repo *memRepo, agencies *stubAgencies, router Router, sched FollowUpScheduler) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(repo, agencies, router, sched, bus, logger.New("development"))
	return svc, bus
}

func newTestService(repo *memRepo, router Router, sched FollowUpScheduler) (*Service, *recordingBus) {
	return newTestServiceWith(repo, &stubAgencies{}, router, sched)
}

func admin() httpkit.Principal {
	return httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleSystemAdmin, Email: "root@x.example"}
}

func createReq() transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		HomeownerName:   "Jo Park",
		HomeownerEmail:  "jo@x.example",
		HomeownerPhone:  "0400 000 001",
		PropertyAddress: "12 Main St 4000",
		PropertyType:    "house",
	}
}

func TestCreateRoutesAndReturnsAssignedLead(t *testing.T) {
	repo := newMemRepo()
	agencyID := uuid.New()
	agentID := uuid.New()
	router := &fakeRouter{repo: repo, result: routing.Result{
		AgencyID: agencyID, AgentID: agentID, AssigneeID: agentID, AgentName: "Dana Wu",
	}}
	svc, bus := newTestService(repo, router, nil)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.OwningAgencyID == nil || *lead.OwningAgencyID != agencyID {
		t.Fatalf("lead not stamped with agency: %+v", lead)
	}
	if lead.Postcode == nil || *lead.Postcode != "4000" {
		t.Fatalf("postcode not derived from address: %+v", lead.Postcode)
	}
	if len(repo.assignments[lead.ID]) != 1 {
		t.Fatalf("want one assignment row, got %d", len(repo.assignments[lead.ID]))
	}
	if repo.assignments[lead.ID][0].Status != string(domain.AssignmentPending) {
		t.Fatalf("assignment status = %q", repo.assignments[lead.ID][0].Status)
	}

	var sawCreated, sawAssigned bool
	for _, e := range bus.published {
		switch e.(type) {
		case events.LeadCreated:
			sawCreated = true
		case events.LeadAssigned:
			sawAssigned = true
		}
	}
	if !sawCreated || !sawAssigned {
		t.Fatalf("events published: created=%v assigned=%v", sawCreated, sawAssigned)
	}
}

func TestCreateSwallowsRoutingFailure(t *testing.T) {
	repo := newMemRepo()
	router := &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoAgencyMatch}}
	svc, _ := newTestService(repo, router, nil)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("routing failure must not fail creation: %v", err)
	}
	if lead.OwningAgencyID != nil || lead.AssignedAgentID != nil {
		t.Fatalf("failed routing must leave the lead unassigned: %+v", lead)
	}
	if len(repo.assignments[lead.ID]) != 0 {
		t.Fatalf("no assignment row may exist after failed routing")
	}
}

func TestCreateNormalizesPhone(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoPostcode}}, nil)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.HomeownerPhone != "+61400000001" {
		t.Fatalf("phone = %q, want E.164", lead.HomeownerPhone)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoPostcode}}, nil)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), admin(), lead.ID, "Archived")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("want validation error, got %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), admin(), lead.ID, string(domain.StatusClosed))
	if err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
	if updated.Status != string(domain.StatusClosed) {
		t.Fatalf("status = %q", updated.Status)
	}
}

func TestGetByIDHidesInvisibleLeads(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoPostcode}}, nil)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stranger := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleAgent, Email: "a@x.example"}
	_, err = svc.GetByID(context.Background(), stranger, lead.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("invisible lead must read as not found, got %v", err)
	}

	if _, err := svc.GetByID(context.Background(), admin(), lead.ID); err != nil {
		t.Fatalf("system admin must see every lead: %v", err)
	}
}

func TestListMineMatchesHomeownerEmail(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoPostcode}}, nil)

	if _, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic); err != nil {
		t.Fatalf("Create: %v", err)
	}

	seller := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleSeller, Email: "jo@x.example"}
	mine, err := svc.ListMine(context.Background(), seller)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("want 1 lead, got %d", len(mine))
	}

	other := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleSeller, Email: "other@x.example"}
	none, err := svc.ListMine(context.Background(), other)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("want no leads for other email, got %d", len(none))
	}
}

func TestScheduleFollowUpSurvivesEnqueueFailure(t *testing.T) {
	repo := newMemRepo()
	sched := &fakeScheduler{err: errors.New("redis down")}
	svc, _ := newTestService(repo, &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoPostcode}}, sched)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Now().Add(24 * time.Hour)
	updated, err := svc.ScheduleFollowUp(context.Background(), admin(), lead.ID, transport.ScheduleFollowUpRequest{FollowUpAt: at})
	if err != nil {
		t.Fatalf("enqueue failure must not fail scheduling: %v", err)
	}
	if updated.FollowUpAt == nil || !updated.FollowUpAt.Equal(at) {
		t.Fatalf("follow-up not stored: %+v", updated.FollowUpAt)
	}
}

func TestReassignSurfacesRoutingFailure(t *testing.T) {
	repo := newMemRepo()
	router := &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoActiveAgent}}
	svc, _ := newTestService(repo, router, nil)

	router.fail = nil
	router.repo = repo
	router.result = routing.Result{AgencyID: uuid.New(), AgentID: uuid.New(), AssigneeID: uuid.New(), AgentName: "Dana Wu"}
	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	router.fail = &routing.Failure{Reason: routing.ReasonNoActiveAgent}
	_, err = svc.Reassign(context.Background(), admin(), lead.ID, transport.ReassignRequest{})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("manual reassignment must surface routing failures, got %v", err)
	}
}

func importRecord() bulkimport.Record {
	return bulkimport.Record{
		HomeownerName:   "Jo Park",
		HomeownerEmail:  "jo@x.example",
		HomeownerPhone:  "0400 000 001",
		PropertyAddress: "12 Main St 4000",
		PropertyType:    "house",
	}
}

func TestImportedLeadKeepsUploaderAgency(t *testing.T) {
	repo := newMemRepo()
	agencyID := uuid.New()
	agentID := uuid.New()
	router := &fakeRouter{repo: repo, result: routing.Result{
		AgencyID: agencyID, AgentID: agentID, AssigneeID: agentID, AgentName: "Dana Wu",
	}}
	svc, _ := newTestService(repo, router, nil)

	uploader := uuid.New()
	ic := bulkimport.Context{AgencyID: &agencyID, CreatedBy: &uploader, Source: domain.SourceAgencyUpload}
	if err := svc.CreateFromImport(context.Background(), importRecord(), ic); err != nil {
		t.Fatalf("CreateFromImport: %v", err)
	}

	if router.calls != 0 {
		t.Fatalf("postcode matching ran %d times for a preset-agency lead", router.calls)
	}
	if len(router.agencyTargets) != 1 || router.agencyTargets[0] != agencyID {
		t.Fatalf("routing must stay within the uploader's agency, targets=%v", router.agencyTargets)
	}
	for _, lead := range repo.leads {
		if lead.OwningAgencyID == nil || *lead.OwningAgencyID != agencyID {
			t.Fatalf("imported lead must be owned by the uploading agency: %+v", lead.OwningAgencyID)
		}
	}
}

func TestImportedLeadStaysOwnedWhenRoutingFails(t *testing.T) {
	repo := newMemRepo()
	agencyID := uuid.New()
	router := &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoActiveAgent}}
	svc, _ := newTestService(repo, router, nil)

	ic := bulkimport.Context{AgencyID: &agencyID, Source: domain.SourceAgencyUpload}
	if err := svc.CreateFromImport(context.Background(), importRecord(), ic); err != nil {
		t.Fatalf("routing failure must not fail the import row: %v", err)
	}

	for _, lead := range repo.leads {
		if lead.OwningAgencyID == nil || *lead.OwningAgencyID != agencyID {
			t.Fatalf("ownership must survive a failed routing attempt: %+v", lead.OwningAgencyID)
		}
		if lead.AssignedAgentID != nil {
			t.Fatalf("failed routing must leave the lead unassigned")
		}
	}
}

func TestReassignTargetsSpecificAgent(t *testing.T) {
	repo := newMemRepo()
	agentID := uuid.New()
	router := &fakeRouter{repo: repo, result: routing.Result{
		AgencyID: uuid.New(), AgentID: agentID, AssigneeID: agentID, AgentName: "Dana Wu",
	}}
	svc, _ := newTestService(repo, router, nil)

	router.fail = &routing.Failure{Reason: routing.ReasonNoPostcode}
	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	router.fail = nil
	updated, err := svc.Reassign(context.Background(), admin(), lead.ID, transport.ReassignRequest{AgentID: &agentID})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if len(router.agentTargets) != 1 || router.agentTargets[0] != agentID {
		t.Fatalf("router not asked for the requested agent, targets=%v", router.agentTargets)
	}
	if updated.AssignedAgentID == nil || *updated.AssignedAgentID != agentID {
		t.Fatalf("lead not stamped with the requested agent: %+v", updated.AssignedAgentID)
	}
}

func TestReassignAgencyAdminTerritoryRules(t *testing.T) {
	repo := newMemRepo()
	agencyID := uuid.New()
	otherAgency := uuid.New()
	agentID := uuid.New()
	agencies := &stubAgencies{postcodes: map[uuid.UUID][]string{agencyID: {"4000"}}}
	router := &fakeRouter{repo: repo, result: routing.Result{
		AgencyID: agencyID, AgentID: agentID, AssigneeID: agentID, AgentName: "Dana Wu",
	}}
	svc, _ := newTestServiceWith(repo, agencies, router, nil)

	router.fail = &routing.Failure{Reason: routing.ReasonNoAgencyMatch}
	inside, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	outsideReq := createReq()
	outsideReq.PropertyAddress = "9 High St 2000"
	outside, err := svc.Create(context.Background(), outsideReq, nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	router.fail = nil

	agencyAdmin := httpkit.Principal{
		UserID: uuid.New(), Role: httpkit.RoleAgencyAdmin, AgencyID: &agencyID, Email: "aa@x.example",
	}

	if _, err := svc.Reassign(context.Background(), agencyAdmin, inside.ID, transport.ReassignRequest{AgencyID: &agencyID}); err != nil {
		t.Fatalf("in-territory claim refused: %v", err)
	}

	_, err = svc.Reassign(context.Background(), agencyAdmin, outside.ID, transport.ReassignRequest{AgencyID: &agencyID})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("out-of-territory claim must be forbidden, got %v", err)
	}

	_, err = svc.Reassign(context.Background(), agencyAdmin, inside.ID, transport.ReassignRequest{Fallback: true})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("fallback routing must stay admin-only, got %v", err)
	}

	_, err = svc.Reassign(context.Background(), agencyAdmin, inside.ID, transport.ReassignRequest{AgencyID: &otherAgency})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("cross-agency targeting must be forbidden, got %v", err)
	}
}

func TestReassignAgencyAdminKeepsOwnedLead(t *testing.T) {
	repo := newMemRepo()
	agencyID := uuid.New()
	otherAgency := uuid.New()
	agentID := uuid.New()
	router := &fakeRouter{repo: repo, result: routing.Result{
		AgencyID: agencyID, AgentID: agentID, AssigneeID: agentID, AgentName: "Dana Wu",
	}}
	svc, _ := newTestService(repo, router, nil)

	lead, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	owner := httpkit.Principal{
		UserID: uuid.New(), Role: httpkit.RoleAgencyAdmin, AgencyID: &agencyID, Email: "aa@x.example",
	}
	if _, err := svc.Reassign(context.Background(), owner, lead.ID, transport.ReassignRequest{AgentID: &agentID}); err != nil {
		t.Fatalf("owning agency admin refused: %v", err)
	}

	rival := httpkit.Principal{
		UserID: uuid.New(), Role: httpkit.RoleAgencyAdmin, AgencyID: &otherAgency, Email: "rival@x.example",
	}
	_, err = svc.Reassign(context.Background(), rival, lead.ID, transport.ReassignRequest{AgentID: &agentID})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("another agency's admin must be forbidden, got %v", err)
	}
}

func TestUpdateAssignmentStatusLifecycle(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{}, nil)

	leadID := uuid.New()
	agentID := uuid.New()
	assignment, err := repo.CreateAssignment(context.Background(), leadID, agentID, nil)
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	agent := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleAgent, AgentID: &agentID, Email: "a@x.example"}

	_, err = svc.UpdateAssignmentStatus(context.Background(), agent, assignment.ID, transport.UpdateAssignmentStatusRequest{Status: "escalated"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}

	notes := "spoke to the homeowner"
	updated, err := svc.UpdateAssignmentStatus(context.Background(), agent, assignment.ID, transport.UpdateAssignmentStatusRequest{
		Status: string(domain.AssignmentContacted), Notes: &notes,
	})
	if err != nil {
		t.Fatalf("UpdateAssignmentStatus: %v", err)
	}
	if updated.Status != string(domain.AssignmentContacted) {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.Notes == nil || *updated.Notes != notes {
		t.Fatalf("notes not stored: %+v", updated.Notes)
	}

	otherAgentID := uuid.New()
	stranger := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleAgent, AgentID: &otherAgentID, Email: "b@x.example"}
	_, err = svc.UpdateAssignmentStatus(context.Background(), stranger, assignment.ID, transport.UpdateAssignmentStatusRequest{
		Status: string(domain.AssignmentClosed),
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("another agent's assignment must read as not found, got %v", err)
	}

	if _, err := svc.UpdateAssignmentStatus(context.Background(), admin(), assignment.ID, transport.UpdateAssignmentStatusRequest{
		Status: string(domain.AssignmentClosed),
	}); err != nil {
		t.Fatalf("system admin must reach every assignment: %v", err)
	}
}

func TestListMyAssignmentsScopedToLinkedAgent(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{}, nil)

	mine := uuid.New()
	other := uuid.New()
	if _, err := repo.CreateAssignment(context.Background(), uuid.New(), mine, nil); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	if _, err := repo.CreateAssignment(context.Background(), uuid.New(), other, nil); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	unlinked := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleAgent, Email: "x@x.example"}
	if _, err := svc.ListMyAssignments(context.Background(), unlinked); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("unlinked principal must be refused, got %v", err)
	}

	agent := httpkit.Principal{UserID: uuid.New(), Role: httpkit.RoleAgent, AgentID: &mine, Email: "a@x.example"}
	assignments, err := svc.ListMyAssignments(context.Background(), agent)
	if err != nil {
		t.Fatalf("ListMyAssignments: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("want 1 assignment, got %d", len(assignments))
	}
	if assignments[0].AgentID != mine {
		t.Fatalf("listing leaked another agent's assignment")
	}
}

func TestListAppliesStatusAndTypeFilters(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &fakeRouter{fail: &routing.Failure{Reason: routing.ReasonNoPostcode}}, nil)

	house, err := svc.Create(context.Background(), createReq(), nil, domain.SourcePublic)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	unitReq := createReq()
	unitReq.PropertyType = "apartment"
	if _, err := svc.Create(context.Background(), unitReq, nil, domain.SourcePublic); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), admin(), house.ID, string(domain.StatusClosed)); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	closed := string(domain.StatusClosed)
	leads, err := svc.List(context.Background(), admin(), repository.ListFilters{Status: &closed})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != house.ID {
		t.Fatalf("status filter returned %d leads", len(leads))
	}

	apartment := "apartment"
	leads, err = svc.List(context.Background(), admin(), repository.ListFilters{PropertyType: &apartment})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(leads) != 1 || leads[0].PropertyType != "apartment" {
		t.Fatalf("property type filter returned %d leads", len(leads))
	}

	bogus := "Archived"
	if _, err := svc.List(context.Background(), admin(), repository.ListFilters{Status: &bogus}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown status filter must be rejected, got %v", err)
	}
}
