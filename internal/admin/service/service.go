// Package service aggregates platform-wide counts for the admin dashboard.
package service

import (
	"context"

	"leadbroker_backend/internal/admin/transport"
)

// Repository defines the count queries the overview needs.
type Repository interface {
	CountLeadsByStatus(ctx context.Context) (map[string]int64, error)
	CountAgencies(ctx context.Context) (int64, error)
	CountAgents(ctx context.Context) (int64, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Overview returns lead counts per status plus agency and agent totals.
func (s *Service) Overview(ctx context.Context) (transport.OverviewResponse, error) {
	byStatus, err := s.repo.CountLeadsByStatus(ctx)
	if err != nil {
		return transport.OverviewResponse{}, err
	}

	leads := map[string]int64{"total": 0}
	for status, count := range byStatus {
		leads[status] = count
		leads["total"] += count
	}

	agencies, err := s.repo.CountAgencies(ctx)
	if err != nil {
		return transport.OverviewResponse{}, err
	}
	agents, err := s.repo.CountAgents(ctx)
	if err != nil {
		return transport.OverviewResponse{}, err
	}

	return transport.OverviewResponse{
		Leads:         leads,
		AgenciesCount: agencies,
		AgentsCount:   agents,
	}, nil
}
