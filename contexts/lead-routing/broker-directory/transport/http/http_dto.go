package httptransport

type BrokerResponse struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Active               bool     `json:"active"`
	Neighborhoods        []string `json:"neighborhoods"`
	Builders             []string `json:"builders"`
	Rating               float64  `json:"rating"`
	CompletedAssignments int      `json:"completed_assignments"`
}

type BrokerListResponse struct {
	Brokers []BrokerResponse `json:"brokers"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
