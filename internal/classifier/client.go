// Package classifier is the transport client for the remote adaptive classification service.
package classifier

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taqneeq-quiz/internal/common/config"
	"taqneeq-quiz/internal/common/errors"
	commonhttp "taqneeq-quiz/internal/common/http"
	"taqneeq-quiz/internal/common/logger"
	"taqneeq-quiz/internal/common/metrics"
	"taqneeq-quiz/internal/common/validation"
	"taqneeq-quiz/internal/models"
)

// Endpoint labels. Path parameters are templated to keep metric cardinality bounded.
const (
	EndpointHealth      = "/health"
	EndpointStart       = "/classification/start"
	EndpointAnswer      = "/classification/answer"
	EndpointExplanation = "/classification/explanation"
	EndpointStatus      = "/classification/status/{id}"
	EndpointDepartments = "/departments"
	EndpointDepartment  = "/departments/{id}"
	EndpointSimilar     = "/departments/{id}/similar"
	EndpointStats       = "/stats"
)

const DefaultSimilarLimit = 3

const (
	outcomeSuccess     = "success"
	outcomeUnreachable = "unreachable"
	outcomeRejected    = "rejected"
	outcomeMalformed   = "malformed"
	outcomeInvalid     = "invalid_request"
)

// Client performs exactly one request per call and never retries.
type Client struct {
	http   *commonhttp.Client
	logger logger.Logger
}

// New builds a client from the classifier config section.
func New(cfg config.ClassifierConfig, log logger.Logger, opts ...commonhttp.Option) *Client {
	if cfg.UserAgent != "" {
		opts = append([]commonhttp.Option{commonhttp.WithUserAgent(cfg.UserAgent)}, opts...)
	}
	return &Client{
		http:   commonhttp.NewClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.RequestTimeout(), opts...),
		logger: log,
	}
}

// Health probes the service before a session is started.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.call(ctx, http.MethodGet, EndpointHealth, "/health", nil, nil, validation.SchemaHealth, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartSession opens a new classification session.
func (c *Client) StartSession(ctx context.Context) (*models.StartSessionResponse, error) {
	var out models.StartSessionResponse
	body := map[string]interface{}{}
	if err := c.call(ctx, http.MethodPost, EndpointStart, "/classification/start", nil, body, validation.SchemaStartSession, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAnswer sends one answer for the given session.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, answer models.Answer) (*models.AnswerResponse, error) {
	req := models.AnswerRequest{
		SessionID:  sessionID,
		QuestionID: answer.QuestionID,
		Response:   answer.Response,
		Confidence: answer.Confidence,
	}
	var out models.AnswerResponse
	if err := c.call(ctx, http.MethodPost, EndpointAnswer, "/classification/answer", nil, req, validation.SchemaAnswer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchExplanation requests the narrative explanation for a finished session.
func (c *Client) FetchExplanation(ctx context.Context, req models.ExplanationRequest) (*models.ExplanationResponse, error) {
	var out models.ExplanationResponse
	if err := c.call(ctx, http.MethodPost, EndpointExplanation, "/classification/explanation", nil, req, validation.SchemaExplanation, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionStatus returns the service's free-form view of a session.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (models.SessionStatus, error) {
	out := models.SessionStatus{}
	path := "/classification/status/" + url.PathEscape(sessionID)
	if err := c.call(ctx, http.MethodGet, EndpointStatus, path, nil, nil, validation.SchemaObject, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Departments lists departments, optionally filtered by a search term.
func (c *Client) Departments(ctx context.Context, q models.DepartmentQuery) (*models.DepartmentList, error) {
	query := url.Values{}
	if q.IncludeTraits {
		query.Set("include_traits", "true")
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	var out models.DepartmentList
	if err := c.call(ctx, http.MethodGet, EndpointDepartments, "/departments", query, nil, validation.SchemaDepartments, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Department fetches a single department by id.
func (c *Client) Department(ctx context.Context, id string, includeTraits bool) (*models.Department, error) {
	query := url.Values{}
	if includeTraits {
		query.Set("include_traits", "true")
	}
	var out models.Department
	path := "/departments/" + url.PathEscape(id)
	if err := c.call(ctx, http.MethodGet, EndpointDepartment, path, query, nil, validation.SchemaDepartment, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SimilarDepartments lists departments related to id. A non-positive limit uses DefaultSimilarLimit.
func (c *Client) SimilarDepartments(ctx context.Context, id string, limit int) (*models.SimilarDepartments, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	var out models.SimilarDepartments
	path := "/departments/" + url.PathEscape(id) + "/similar"
	if err := c.call(ctx, http.MethodGet, EndpointSimilar, path, query, nil, validation.SchemaSimilarDepartments, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the service's free-form statistics.
func (c *Client) Stats(ctx context.Context) (models.ServiceStats, error) {
	out := models.ServiceStats{}
	if err := c.call(ctx, http.MethodGet, EndpointStats, "/stats", nil, nil, validation.SchemaObject, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, endpoint, path string, query url.Values, body interface{}, schema string, out interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(ctx, method, path, query, body)
	metrics.ClassifierRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if stderrors.Is(err, commonhttp.ErrInvalidRequest) {
		c.record(endpoint, outcomeInvalid)
		c.logger.Error("Classification request could not be built", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return errors.NewInternalError(err).WithMetadata("endpoint", endpoint)
	}
	if err != nil {
		c.record(endpoint, outcomeUnreachable)
		c.logger.Warn("Classification service unreachable", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return errors.NewUnreachableError(endpoint, err)
	}

	fields := map[string]interface{}{
		"endpoint":   endpoint,
		"status":     resp.StatusCode,
		"requestId":  resp.RequestID,
		"durationMs": resp.Duration.Milliseconds(),
	}

	if !resp.OK() {
		c.record(endpoint, outcomeRejected)
		detail := extractDetail(resp.Body, resp.StatusCode)
		fields["detail"] = detail
		c.logger.Warn("Classification service rejected request", fields)
		return errors.NewRejectedRequestError(endpoint, resp.StatusCode, detail).
			WithMetadata("requestId", resp.RequestID)
	}

	result, err := validation.ValidateResponse(schema, resp.Body)
	if err != nil {
		c.record(endpoint, outcomeMalformed)
		c.logger.Error("Classification response is not JSON", fields)
		return errors.NewMalformedResponseError(endpoint, "response body is not valid JSON", err)
	}
	if !result.Valid {
		c.record(endpoint, outcomeMalformed)
		fields["violations"] = result.Summary()
		c.logger.Error("Classification response failed schema validation", fields)
		return errors.NewMalformedResponseError(endpoint, result.Summary(), nil)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		c.record(endpoint, outcomeMalformed)
		c.logger.Error("Classification response could not be decoded", fields)
		return errors.NewMalformedResponseError(endpoint, err.Error(), err)
	}

	c.record(endpoint, outcomeSuccess)
	c.logger.Debug("Classification call completed", fields)
	return nil
}

func (c *Client) record(endpoint, outcome string) {
	metrics.ClassifierRequests.WithLabelValues(endpoint, outcome).Inc()
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string        `json:"msg"`
	Loc []interface{} `json:"loc,omitempty"`
}

// extractDetail reads the service's {"detail": ...} error envelope. The detail is
// either a string or a list of validation items.
func extractDetail(body []byte, status int) string {
	fallback := fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return fallback
}
