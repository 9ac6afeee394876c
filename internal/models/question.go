package models

import "fmt"

// QuestionStage tells where a question came from.
type QuestionStage string

const (
	StageSeed     QuestionStage = "seed"
	StageAdaptive QuestionStage = "adaptive"
)

const (
	MinResponse   = 1
	MaxResponse   = 5
	MinConfidence = 0.1
	MaxConfidence = 1.0

	// DefaultConfidence is applied when an answer leaves confidence unset.
	DefaultConfidence = 1.0
)

// Question is one quiz item issued by the classification service.
type Question struct {
	ID                string        `json:"id"`
	Text              string        `json:"text"`
	Type              string        `json:"type,omitempty"`
	Options           []string      `json:"options,omitempty"`
	Category          string        `json:"category"`
	PrimaryTrait      string        `json:"primary_trait"`
	SecondaryTraits   []string      `json:"secondary_traits"`
	InformationValue  float64       `json:"information_value"`
	TargetDepartments []string      `json:"target_departments"`
	Stage             QuestionStage `json:"question_stage"`
}

// Clone returns a deep copy so callers can never mutate the controller's question.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	out := *q
	out.Options = append([]string(nil), q.Options...)
	out.SecondaryTraits = append([]string(nil), q.SecondaryTraits...)
	out.TargetDepartments = append([]string(nil), q.TargetDepartments...)
	return &out
}

// Answer is a single Likert response to a question.
type Answer struct {
	QuestionID string  `json:"question_id"`
	Response   int     `json:"response"`
	Confidence float64 `json:"confidence"`
}

// Normalize fills the default confidence when it was left at zero.
func (a Answer) Normalize() Answer {
	if a.Confidence == 0 {
		a.Confidence = DefaultConfidence
	}
	return a
}

// Validate checks the answer ranges accepted by the service.
func (a Answer) Validate() error {
	if a.QuestionID == "" {
		return fmt.Errorf("question_id is required")
	}
	if a.Response < MinResponse || a.Response > MaxResponse {
		return fmt.Errorf("response must be between %d and %d, got %d", MinResponse, MaxResponse, a.Response)
	}
	// Written as a negated range so NaN fails too.
	if !(a.Confidence >= MinConfidence && a.Confidence <= MaxConfidence) {
		return fmt.Errorf("confidence must be between %.1f and %.1f, got %v", MinConfidence, MaxConfidence, a.Confidence)
	}
	return nil
}

// AnswerRequest is the body of POST /classification/answer.
type AnswerRequest struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Response   int     `json:"response"`
	Confidence float64 `json:"confidence"`
}

// AnswerResponse is the payload of POST /classification/answer.
type AnswerResponse struct {
	NextQuestion         *Question             `json:"next_question,omitempty"`
	ClassificationResult *ClassificationResult `json:"classification_result"`
	Message              string                `json:"message,omitempty"`
}
