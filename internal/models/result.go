package models

import (
	"encoding/json"
	"fmt"
)

// ConfidenceLevel is the service's coarse confidence bucket.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// TraitScore is a (trait, score) pair. On the wire it is a two element array.
type TraitScore struct {
	Trait string
	Score float64
}

func (t TraitScore) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{t.Trait, t.Score})
}

func (t *TraitScore) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("trait score must be a [trait, score] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("trait score must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.Trait); err != nil {
		return fmt.Errorf("trait name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &t.Score); err != nil {
		return fmt.Errorf("trait score: %w", err)
	}
	return nil
}

// ClassificationResult is the service's running verdict after each answer.
type ClassificationResult struct {
	SessionID            string             `json:"session_id,omitempty"`
	TopDepartment        string             `json:"top_department"`
	TopProbability       float64            `json:"top_probability"`
	SecondaryDepartment  *string            `json:"secondary_department,omitempty"`
	SecondaryProbability *float64           `json:"secondary_probability,omitempty"`
	AllProbabilities     map[string]float64 `json:"all_probabilities"`
	QuestionsAsked       int                `json:"questions_asked"`
	ConfidenceLevel      ConfidenceLevel    `json:"confidence_level"`
	ShouldContinue       bool               `json:"should_continue"`
	IsComplete           bool               `json:"is_complete"`
	TopTraits            []TraitScore       `json:"current_top_traits"`
	Reasoning            string             `json:"reasoning"`
}

// Clone returns a deep copy of the result.
func (r *ClassificationResult) Clone() *ClassificationResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.SecondaryDepartment != nil {
		v := *r.SecondaryDepartment
		out.SecondaryDepartment = &v
	}
	if r.SecondaryProbability != nil {
		v := *r.SecondaryProbability
		out.SecondaryProbability = &v
	}
	if r.AllProbabilities != nil {
		out.AllProbabilities = make(map[string]float64, len(r.AllProbabilities))
		for k, v := range r.AllProbabilities {
			out.AllProbabilities[k] = v
		}
	}
	out.TopTraits = append([]TraitScore(nil), r.TopTraits...)
	return &out
}
