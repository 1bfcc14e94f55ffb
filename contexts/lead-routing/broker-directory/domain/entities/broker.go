package entities

import "time"

// Broker is a human agent who can receive distributed leads and visits.
// Rating is 0.0-5.0; CompletedAssignments is the workload counter the
// distribution engine bumps on every completed queue.
type Broker struct {
	ID                   string
	Name                 string
	Active               bool
	Neighborhoods        []string
	Builders             []string
	Rating               float64
	CompletedAssignments int
	WhatsAppAddress      string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// EligibilityCriteria mirrors the distribution request's matchable tags.
type EligibilityCriteria struct {
	NeighborhoodID string
	BuilderID      string
}
