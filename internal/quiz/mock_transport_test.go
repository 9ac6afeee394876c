package quiz

import (
	"context"
	"sync"
	"time"

	"taqneeq-quiz/internal/models"

	"github.com/stretchr/testify/mock"
)

// ==========================
// Mock Transport
// ==========================

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Health(ctx context.Context) (*models.HealthStatus, error) {
	args := m.Called(ctx)
	if h := args.Get(0); h != nil {
		return h.(*models.HealthStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransport) StartSession(ctx context.Context) (*models.StartSessionResponse, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*models.StartSessionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransport) SubmitAnswer(ctx context.Context, sessionID string, answer models.Answer) (*models.AnswerResponse, error) {
	args := m.Called(ctx, sessionID, answer)
	if r := args.Get(0); r != nil {
		return r.(*models.AnswerResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransport) FetchExplanation(ctx context.Context, req models.ExplanationRequest) (*models.ExplanationResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*models.ExplanationResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// ==========================
// Recorders
// ==========================

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, e := range l.events {
		out[i] = e.Kind
	}
	return out
}

func (l *eventLog) last() Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

type fakeRecorder struct {
	mu       sync.Mutex
	rounds   []string
	outcomes []string
}

func (r *fakeRecorder) RecordRound(_ context.Context, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, stage)
}

func (r *fakeRecorder) RecordSession(_ context.Context, _ time.Duration, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

// ==========================
// Fixtures
// ==========================

func newQuestion(id string, stage models.QuestionStage) *models.Question {
	return &models.Question{
		ID:                id,
		Text:              "Question " + id,
		Category:          "general",
		PrimaryTrait:      "analytical",
		SecondaryTraits:   []string{"logical"},
		InformationValue:  0.5,
		TargetDepartments: []string{"tech"},
		Stage:             stage,
	}
}

func startResponse(sessionID string, first *models.Question) *models.StartSessionResponse {
	return &models.StartSessionResponse{
		SessionID:          sessionID,
		FirstQuestion:      first,
		TotalDepartments:   8,
		EstimatedQuestions: "8-12",
		Message:            "started",
		Features:           models.Features{AdaptiveQuestioning: true, RAGExplanations: true},
	}
}

func classification(asked int, shouldContinue, complete bool) *models.ClassificationResult {
	secondary := "design"
	secondaryProb := 0.2
	return &models.ClassificationResult{
		SessionID:            "s1",
		TopDepartment:        "tech",
		TopProbability:       0.7,
		SecondaryDepartment:  &secondary,
		SecondaryProbability: &secondaryProb,
		AllProbabilities:     map[string]float64{"tech": 0.7, "design": 0.2},
		QuestionsAsked:       asked,
		ConfidenceLevel:      models.ConfidenceMedium,
		ShouldContinue:       shouldContinue,
		IsComplete:           complete,
		TopTraits:            []models.TraitScore{{Trait: "analytical", Score: 0.9}},
		Reasoning:            "fixture",
	}
}

func continueResponse(asked int, next *models.Question) *models.AnswerResponse {
	return &models.AnswerResponse{
		NextQuestion:         next,
		ClassificationResult: classification(asked, true, false),
	}
}

func finalResponse(asked int) *models.AnswerResponse {
	return &models.AnswerResponse{
		ClassificationResult: classification(asked, false, true),
	}
}

func explanationResponse() *models.ExplanationResponse {
	return &models.ExplanationResponse{
		SessionID:      "s1",
		DepartmentID:   "tech",
		DepartmentName: "Technical",
		Explanation: models.Explanation{
			Overview:   "overview",
			WhyGoodFit: "fit",
		},
		AlternativeDepartments: []models.Alternative{{Department: "design", Name: "Design", Probability: 0.2}},
		GenerationMethod:       "rag",
	}
}

func defaultSettings() Settings {
	return Settings{
		HardCap:            DefaultHardCap,
		ExplanationTimeout: time.Second,
		IncludeComparison:  true,
	}
}
