package service

import (
	"context"
	"testing"
)

type stubCounts struct {
	byStatus map[string]int64
	agencies int64
	agents   int64
}

func (s *stubCounts) CountLeadsByStatus(context.Context) (map[string]int64, error) {
	return s.byStatus, nil
}

func (s *stubCounts) CountAgencies(context.Context) (int64, error) { return s.agencies, nil }
func (s *stubCounts) CountAgents(context.Context) (int64, error)   { return s.agents, nil }

func TestOverviewAggregatesCounts(t *testing.T) {
	svc := New(&stubCounts{
		byStatus: map[string]int64{"New": 3, "Contacted": 2, "Closed": 1},
		agencies: 4,
		agents:   9,
	})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Leads["total"] != 6 {
		t.Fatalf("total = %d, want 6", overview.Leads["total"])
	}
	if overview.Leads["New"] != 3 || overview.Leads["Contacted"] != 2 || overview.Leads["Closed"] != 1 {
		t.Fatalf("per-status counts wrong: %+v", overview.Leads)
	}
	if overview.AgenciesCount != 4 || overview.AgentsCount != 9 {
		t.Fatalf("agencies=%d agents=%d", overview.AgenciesCount, overview.AgentsCount)
	}
}

func TestOverviewEmptyPlatform(t *testing.T) {
	svc := New(&stubCounts{byStatus: map[string]int64{}})

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Leads["total"] != 0 {
		t.Fatalf("total = %d, want 0", overview.Leads["total"])
	}
	if len(overview.Leads) != 1 {
		t.Fatalf("empty platform must report only the total key: %+v", overview.Leads)
	}
}
