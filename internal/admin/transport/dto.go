package transport

// OverviewResponse is the platform-wide dashboard summary. Leads carries a
// "total" key plus one count per lead status present in the table.
type OverviewResponse struct {
	Leads         map[string]int64 `json:"leads"`
	AgenciesCount int64            `json:"agenciesCount"`
	AgentsCount   int64            `json:"agentsCount"`
}
