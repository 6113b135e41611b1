package service

import (
	"context"
	"testing"

	"leadbroker_backend/internal/agents/repository"

	"github.com/google/uuid"
)

type fakeRepo struct {
	agents       map[uuid.UUID]repository.Agent
	principals   map[string]uuid.UUID
	linkedAgent  uuid.UUID
	linkedTo     uuid.UUID
	linkWrites   int
	lookupCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agents:     make(map[uuid.UUID]repository.Agent),
		principals: make(map[string]uuid.UUID),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateAgentParams) (repository.Agent, error) {
	agent := repository.Agent{ID: uuid.New(), AgencyID: params.AgencyID, Name: params.Name, Email: params.Email, Active: true, Role: params.Role}
	f.agents[agent.ID] = agent
	return agent, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return repository.Agent{}, repository.ErrNotFound
	}
	return agent, nil
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Agent, error) { return nil, nil }

func (f *fakeRepo) ListByAgency(_ context.Context, _ uuid.UUID) ([]repository.Agent, error) {
	return nil, nil
}

func (f *fakeRepo) FirstActiveByAgency(_ context.Context, _ uuid.UUID) (repository.Agent, error) {
	return repository.Agent{}, repository.ErrNotFound
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, _ repository.UpdateAgentParams) (repository.Agent, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakeRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeRepo) SetPrincipalID(_ context.Context, id, principalID uuid.UUID) error {
	f.linkWrites++
	f.linkedAgent = id
	f.linkedTo = principalID
	agent := f.agents[id]
	agent.PrincipalID = &principalID
	f.agents[id] = agent
	return nil
}

func (f *fakeRepo) IncrementAssignedLeadCount(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeRepo) FindPrincipalIDByEmail(_ context.Context, email string) (*uuid.UUID, error) {
	f.lookupCalls++
	id, ok := f.principals[email]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func TestResolvePrincipalID_MemoizesByEmail(t *testing.T) {
	repo := newFakeRepo()
	principalID := uuid.New()
	repo.principals["jane@example.com"] = principalID

	agent := repository.Agent{ID: uuid.New(), Email: "jane@example.com"}
	repo.agents[agent.ID] = agent

	svc := New(repo)

	resolved, err := svc.ResolvePrincipalID(context.Background(), agent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved == nil || *resolved != principalID {
		t.Fatalf("expected principal %s, got %v", principalID, resolved)
	}
	if repo.linkWrites != 1 || repo.linkedAgent != agent.ID || repo.linkedTo != principalID {
		t.Fatalf("expected one write-back linking agent to principal")
	}

	// Second resolution uses the memoized link: no further lookups.
	lookupsBefore := repo.lookupCalls
	resolved, err = svc.ResolvePrincipalID(context.Background(), repo.agents[agent.ID])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved == nil || *resolved != principalID {
		t.Fatalf("expected memoized principal %s, got %v", principalID, resolved)
	}
	if repo.lookupCalls != lookupsBefore {
		t.Fatalf("expected no additional email lookups after memoization")
	}
}

func TestResolvePrincipalID_NoPrincipalIsNotAnError(t *testing.T) {
	repo := newFakeRepo()
	agent := repository.Agent{ID: uuid.New(), Email: "unlinked@example.com"}
	repo.agents[agent.ID] = agent

	svc := New(repo)

	resolved, err := svc.ResolvePrincipalID(context.Background(), agent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != nil {
		t.Fatalf("expected nil principal for unlinked agent, got %v", resolved)
	}
	if repo.linkWrites != 0 {
		t.Fatalf("expected no write-back when no principal matches")
	}
}
