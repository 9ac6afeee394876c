package models

// Explanation is the narrative the service generates for a classification.
type Explanation struct {
	Overview         string        `json:"overview"`
	WhyGoodFit       string        `json:"why_good_fit"`
	Responsibilities string        `json:"responsibilities"`
	SkillsGained     string        `json:"skills_gained"`
	NextSteps        string        `json:"next_steps"`
	Alternatives     []Alternative `json:"alternatives,omitempty"`
}

// Alternative is a runner-up department in an explanation.
type Alternative struct {
	Department  string  `json:"id"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Description string  `json:"description"`
}

// ExplanationRequest is the body of POST /classification/explanation.
type ExplanationRequest struct {
	SessionID         string `json:"session_id"`
	DepartmentID      string `json:"department_id,omitempty"`
	IncludeComparison bool   `json:"include_comparison"`
}

// ExplanationResponse is the payload of POST /classification/explanation.
type ExplanationResponse struct {
	SessionID                string        `json:"session_id"`
	DepartmentID             string        `json:"department_id"`
	DepartmentName           string        `json:"department_name"`
	Explanation              Explanation   `json:"explanation"`
	ClassificationConfidence float64       `json:"classification_confidence"`
	UserTopTraits            []TraitScore  `json:"user_top_traits,omitempty"`
	AlternativeDepartments   []Alternative `json:"alternative_departments"`
	GeneratedAt              string        `json:"generated_at,omitempty"`
	GenerationMethod         string        `json:"generation_method"`
}

// ToExplanation folds the alternatives list into the explanation body.
func (r *ExplanationResponse) ToExplanation() *Explanation {
	out := r.Explanation
	out.Alternatives = append([]Alternative(nil), r.AlternativeDepartments...)
	return &out
}

// Clone returns a deep copy of the explanation.
func (e *Explanation) Clone() *Explanation {
	if e == nil {
		return nil
	}
	out := *e
	out.Alternatives = append([]Alternative(nil), e.Alternatives...)
	return &out
}
