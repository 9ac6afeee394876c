package quiz

import (
	"context"
	"fmt"
	"time"

	"taqneeq-quiz/internal/common/errors"
	"taqneeq-quiz/internal/common/logger"
	"taqneeq-quiz/internal/models"
)

// ExplanationSource is the slice of the transport the fetcher needs.
type ExplanationSource interface {
	FetchExplanation(ctx context.Context, req models.ExplanationRequest) (*models.ExplanationResponse, error)
}

// ExplanationFetcher makes the single best-effort explanation call of a session.
type ExplanationFetcher struct {
	source            ExplanationSource
	timeout           time.Duration
	includeComparison bool
	logger            logger.Logger
}

func NewExplanationFetcher(source ExplanationSource, timeout time.Duration, includeComparison bool, log logger.Logger) *ExplanationFetcher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ExplanationFetcher{
		source:            source,
		timeout:           timeout,
		includeComparison: includeComparison,
		logger:            log,
	}
}

// Fetch asks for the explanation of result. Any failure comes back as an
// EXPLANATION_DEGRADED error; the result itself is never touched.
func (f *ExplanationFetcher) Fetch(ctx context.Context, sessionID string, result *models.ClassificationResult) (*models.Explanation, *errors.StandardError) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req := models.ExplanationRequest{
		SessionID:         sessionID,
		IncludeComparison: f.includeComparison,
	}
	if result != nil {
		req.DepartmentID = result.TopDepartment
	}

	resp, err := f.source.FetchExplanation(ctx, req)
	if err != nil {
		return nil, errors.NewExplanationDegradedError(err)
	}
	if resp == nil {
		return nil, errors.NewExplanationDegradedError(fmt.Errorf("empty explanation response"))
	}

	f.logger.Debug("Explanation fetched", map[string]interface{}{
		"sessionId":        sessionID,
		"departmentId":     resp.DepartmentID,
		"generationMethod": resp.GenerationMethod,
	})
	return resp.ToExplanation(), nil
}
