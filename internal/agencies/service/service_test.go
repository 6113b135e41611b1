package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadbroker_backend/internal/agencies/repository"

	"github.com/google/uuid"
)

type fakeRepo struct {
	agencies []repository.Agency
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateAgencyParams) (repository.Agency, error) {
	agency := repository.Agency{
		ID:        uuid.New(),
		Name:      params.Name,
		Email:     params.Email,
		Postcodes: params.Postcodes,
		CreatedAt: time.Now(),
	}
	f.agencies = append(f.agencies, agency)
	return agency, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Agency, error) {
	for _, agency := range f.agencies {
		if agency.ID == id {
			return agency, nil
		}
	}
	return repository.Agency{}, repository.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Agency, error) {
	return f.agencies, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, _ repository.UpdateAgencyParams) (repository.Agency, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakeRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeRepo) FindByPostcode(_ context.Context, code string) ([]repository.Agency, error) {
	matches := make([]repository.Agency, 0)
	for _, agency := range f.agencies {
		for _, postcode := range agency.Postcodes {
			if postcode == code {
				matches = append(matches, agency)
				break
			}
		}
	}
	return matches, nil
}

func (f *fakeRepo) First(_ context.Context) (repository.Agency, error) {
	if len(f.agencies) == 0 {
		return repository.Agency{}, repository.ErrNotFound
	}
	first := f.agencies[0]
	for _, agency := range f.agencies[1:] {
		if agency.CreatedAt.Before(first.CreatedAt) {
			first = agency
		}
	}
	return first, nil
}

type fixedRoutingConfig struct {
	defaultAgencyID uuid.UUID
}

func (c fixedRoutingConfig) GetDefaultAgencyID() uuid.UUID { return c.defaultAgencyID }

func TestFindByPostcode_ExactMatchOnly(t *testing.T) {
	repo := &fakeRepo{agencies: []repository.Agency{
		{ID: uuid.New(), Name: "North", Postcodes: []string{"4000", "4001"}},
		{ID: uuid.New(), Name: "South", Postcodes: []string{"4005"}},
		{ID: uuid.New(), Name: "Overlap", Postcodes: []string{"4000"}},
	}}
	svc := New(repo, fixedRoutingConfig{})

	matches, err := svc.FindByPostcode(context.Background(), "4000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matching agencies, got %d", len(matches))
	}

	matches, err = svc.FindByPostcode(context.Background(), "9999")
	if err != nil {
		t.Fatalf("miss must not error, got: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for 9999, got %d", len(matches))
	}
}

func TestFindFallback_PrefersConfiguredDefault(t *testing.T) {
	older := repository.Agency{ID: uuid.New(), Name: "Older", CreatedAt: time.Now().Add(-time.Hour)}
	preferred := repository.Agency{ID: uuid.New(), Name: "Preferred", CreatedAt: time.Now()}
	repo := &fakeRepo{agencies: []repository.Agency{older, preferred}}
	svc := New(repo, fixedRoutingConfig{defaultAgencyID: preferred.ID})

	agency, err := svc.FindFallback(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agency.ID != preferred.ID {
		t.Fatalf("expected configured default agency, got %s", agency.Name)
	}
}

func TestFindFallback_EarliestCreatedWhenNoDefault(t *testing.T) {
	older := repository.Agency{ID: uuid.New(), Name: "Older", CreatedAt: time.Now().Add(-time.Hour)}
	newer := repository.Agency{ID: uuid.New(), Name: "Newer", CreatedAt: time.Now()}
	repo := &fakeRepo{agencies: []repository.Agency{newer, older}}
	svc := New(repo, fixedRoutingConfig{})

	agency, err := svc.FindFallback(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agency.ID != older.ID {
		t.Fatalf("expected earliest-created agency, got %s", agency.Name)
	}
}

func TestFindFallback_NoAgencies(t *testing.T) {
	svc := New(&fakeRepo{}, fixedRoutingConfig{})

	_, err := svc.FindFallback(context.Background())
	if !errors.Is(err, ErrNoFallbackAgency) {
		t.Fatalf("expected ErrNoFallbackAgency, got %v", err)
	}
}

func TestServesPostcode(t *testing.T) {
	agency := repository.Agency{ID: uuid.New(), Postcodes: []string{"4000", "4001"}}
	svc := New(&fakeRepo{agencies: []repository.Agency{agency}}, fixedRoutingConfig{})

	ok, err := svc.ServesPostcode(context.Background(), agency.ID, "4001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected agency to serve 4001")
	}

	ok, _ = svc.ServesPostcode(context.Background(), agency.ID, "4002")
	if ok {
		t.Fatalf("expected agency not to serve 4002")
	}
}
