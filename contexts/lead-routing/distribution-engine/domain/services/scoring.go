package services

import (
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
)

const (
	neighborhoodMatchScore = 1000
	builderMatchScore      = 500
	ratingWeight           = 20
	workloadCeiling        = 50
)

// Score computes the ranking value of one candidate against the request
// criteria. Neighborhood specialization dominates builder specialization;
// rating and a light-workload bonus break the remaining distance.
func Score(candidate entities.Candidate, criteria entities.Criteria) float64 {
	base := 0.0
	if criteria.NeighborhoodID != "" && contains(candidate.Neighborhoods, criteria.NeighborhoodID) {
		base = neighborhoodMatchScore
	} else if criteria.BuilderID != "" && contains(candidate.Builders, criteria.BuilderID) {
		base = builderMatchScore
	}
	workload := candidate.CompletedAssignments
	if workload > workloadCeiling {
		workload = workloadCeiling
	}
	return base + candidate.Rating*ratingWeight + float64(workloadCeiling-workload)
}

// SelectBest returns the highest-scoring active candidate that has not been
// attempted yet, or false when the remaining set is empty. Ties resolve by
// candidate id ascending so the choice is deterministic.
func SelectBest(
	candidates []entities.Candidate,
	criteria entities.Criteria,
	attempted map[string]bool,
) (entities.Candidate, bool) {
	var best entities.Candidate
	bestScore := -1.0
	found := false
	for _, candidate := range candidates {
		if !candidate.Active || attempted[candidate.ID] {
			continue
		}
		score := Score(candidate, criteria)
		if !found || score > bestScore || (score == bestScore && candidate.ID < best.ID) {
			best = candidate
			bestScore = score
			found = true
		}
	}
	return best, found
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
