// Package domain holds the lead aggregate's pure domain rules: the lifecycle
// status set, source classification, and postcode extraction.
package domain

// Status is the lead contact-lifecycle status. The set is closed but
// transitions are deliberately unconstrained: any status may move to any
// other.
type Status string

const (
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusScheduled Status = "Scheduled"
	StatusClosed    Status = "Closed"
)

// ValidStatus reports whether s is one of the four lifecycle statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusContacted, StatusScheduled, StatusClosed:
		return true
	}
	return false
}

// Source classifies where a lead entered the system.
type Source string

const (
	// SourcePublic marks a homeowner's own appraisal request.
	SourcePublic Source = "public"
	// SourceAgencyUpload marks a lead from an agency bulk CSV import.
	SourceAgencyUpload Source = "agency_upload"
	// SourceAgentCreated marks a lead entered by an agent directly.
	SourceAgentCreated Source = "agent_created"
)

// ValidSource reports whether s is a known source classification.
func ValidSource(s Source) bool {
	switch s {
	case SourcePublic, SourceAgencyUpload, SourceAgentCreated:
		return true
	}
	return false
}

// AssignmentStatus is the contact-progress status on an assignment record.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentContacted AssignmentStatus = "contacted"
	AssignmentClosed    AssignmentStatus = "closed"
	AssignmentLost      AssignmentStatus = "lost"
)

// ValidAssignmentStatus reports whether s is a known contact-progress status.
func ValidAssignmentStatus(s AssignmentStatus) bool {
	switch s {
	case AssignmentPending, AssignmentContacted, AssignmentClosed, AssignmentLost:
		return true
	}
	return false
}
