package models

// Features lists the capabilities the classification service advertises on start.
type Features struct {
	AdaptiveQuestioning bool `json:"adaptive_questioning"`
	RAGExplanations     bool `json:"rag_explanations"`
	TraitBasedMatching  bool `json:"trait_based_matching"`
}

// SessionMetadata is everything the start call returns besides the session id and first question.
type SessionMetadata struct {
	TotalDepartments   int      `json:"total_departments"`
	EstimatedQuestions string   `json:"estimated_questions"`
	Message            string   `json:"message,omitempty"`
	Features           Features `json:"features"`
}

// StartSessionResponse is the payload of POST /classification/start.
type StartSessionResponse struct {
	SessionID          string    `json:"session_id"`
	FirstQuestion      *Question `json:"first_question"`
	TotalDepartments   int       `json:"total_departments"`
	EstimatedQuestions string    `json:"estimated_questions"`
	Message            string    `json:"message,omitempty"`
	Features           Features  `json:"features"`
}

// Metadata extracts the session metadata from the start payload.
func (r *StartSessionResponse) Metadata() SessionMetadata {
	return SessionMetadata{
		TotalDepartments:   r.TotalDepartments,
		EstimatedQuestions: r.EstimatedQuestions,
		Message:            r.Message,
		Features:           r.Features,
	}
}

// SessionStatus is the free-form status document for a live session.
type SessionStatus map[string]interface{}

// ServiceStats is the free-form statistics document of the service.
type ServiceStats map[string]interface{}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status     string                 `json:"status"`
	Components map[string]interface{} `json:"components,omitempty"`
	Timestamp  string                 `json:"timestamp,omitempty"`
}

// IsHealthy reports whether the service described itself as healthy.
// An empty status is treated as healthy since a 2xx was already observed.
func (h *HealthStatus) IsHealthy() bool {
	switch h.Status {
	case "", "ok", "healthy", "up":
		return true
	}
	return false
}
