// Package quiz drives one adaptive classification session against the remote service.
package quiz

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"taqneeq-quiz/internal/common/config"
	"taqneeq-quiz/internal/common/errors"
	"taqneeq-quiz/internal/common/logger"
	"taqneeq-quiz/internal/common/metrics"
	"taqneeq-quiz/internal/models"
)

// DefaultHardCap bounds the number of answered rounds in a session.
const DefaultHardCap = 15

// Endpoint names used when the controller itself classifies a failure.
const (
	endpointHealth = "/health"
	endpointStart  = "/classification/start"
	endpointAnswer = "/classification/answer"
)

// ErrResultDiscarded is returned when a network result arrives after Restart or
// after the caller's context was cancelled.
var ErrResultDiscarded = stderrors.New("quiz: result discarded")

// Transport is the subset of the classification client the controller calls.
type Transport interface {
	ExplanationSource
	Health(ctx context.Context) (*models.HealthStatus, error)
	StartSession(ctx context.Context) (*models.StartSessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID string, answer models.Answer) (*models.AnswerResponse, error)
}

// Recorder receives session-level measurements.
type Recorder interface {
	RecordRound(ctx context.Context, stage string)
	RecordSession(ctx context.Context, duration time.Duration, outcome string)
}

// Settings tune a controller.
type Settings struct {
	HardCap            int
	HealthPreflight    bool
	ExplanationTimeout time.Duration
	IncludeComparison  bool
}

// SettingsFromConfig maps the classifier config section onto controller settings.
func SettingsFromConfig(cfg config.ClassifierConfig) Settings {
	return Settings{
		HardCap:            cfg.HardCap,
		HealthPreflight:    cfg.HealthPreflight,
		ExplanationTimeout: cfg.ExplanationDeadline(),
		IncludeComparison:  cfg.IncludeComparison,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver sets the handle that receives lifecycle events.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithTracer replaces the default in-memory tracer.
func WithTracer(t *Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets where round and session measurements go.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type pendingTrace struct {
	sessionID string
	message   string
	data      map[string]interface{}
}

type pendingEvent struct {
	kind     EventKind
	snapshot Snapshot
}

// Controller is the session state machine. It serves exactly one user session
// at a time and never holds its lock across a network call.
type Controller struct {
	transport  Transport
	settings   Settings
	explainer  *ExplanationFetcher
	observer   Observer
	tracer     *Tracer
	logger     logger.Logger
	errHandler *errors.ErrorHandler
	recorder   Recorder
	now        func() time.Time

	mu sync.Mutex
	// flushMu orders trace flushes against the tracer reset in Restart.
	// It is only taken while mu is held.
	flushMu    sync.Mutex
	generation uint64
	pending    []pendingTrace
	events     []pendingEvent

	phase               Phase
	sessionID           string
	question            *models.Question
	questionsAsked      int
	rounds              int
	result              *models.ClassificationResult
	explanation         *models.Explanation
	explanationDegraded bool
	explanationErr      *errors.StandardError
	err                 *errors.StandardError
	anomalies           []Anomaly
	metadata            *models.SessionMetadata
	startedAt           time.Time
}

var _ Session = (*Controller)(nil)

// NewController returns an idle controller. A non-positive HardCap uses DefaultHardCap.
func NewController(transport Transport, settings Settings, opts ...Option) *Controller {
	if settings.HardCap <= 0 {
		settings.HardCap = DefaultHardCap
	}

	c := &Controller{
		transport: transport,
		settings:  settings,
		observer:  nopObserver{},
		logger:    logger.NewNoOpLogger(),
		now:       time.Now,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = NewTracer(c.logger)
	}
	c.errHandler = errors.NewErrorHandler(c.logger)
	c.explainer = NewExplanationFetcher(transport, settings.ExplanationTimeout, settings.IncludeComparison, c.logger)
	return c
}

// Tracer returns the controller's diagnostic tracer.
func (c *Controller) Tracer() *Tracer {
	return c.tracer
}

// Snapshot returns a copy of the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start opens a new session. It is only accepted in the idle phase.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case PhaseIdle:
	case PhaseStarting:
		phase := c.phase
		c.mu.Unlock()
		return c.reject(errors.NewConcurrentCallError("start", string(phase)))
	default:
		phase := c.phase
		c.mu.Unlock()
		return c.reject(errors.NewInvalidStateError("start", string(phase)))
	}

	gen := c.generation
	c.startedAt = c.now()
	c.transitionLocked(PhaseStarting)
	c.unlock(ctx)

	if c.settings.HealthPreflight {
		if err := c.preflight(ctx, gen); err != nil {
			if cancelled(ctx) {
				return c.discard(ctx, gen, PhaseIdle, ctx.Err())
			}
			return c.fail(ctx, gen, timedOut(ctx, endpointHealth, err), true)
		}
		if c.retired(gen) {
			return ErrResultDiscarded
		}
	}

	c.trace(ctx, gen, "request sent", map[string]interface{}{"call": "start_session"})
	resp, err := c.transport.StartSession(ctx)
	if cancelled(ctx) {
		return c.discard(ctx, gen, PhaseIdle, ctx.Err())
	}
	if err != nil {
		return c.fail(ctx, gen, timedOut(ctx, endpointStart, err), false)
	}
	if resp.FirstQuestion == nil {
		return c.fail(ctx, gen, errors.NewMalformedResponseError(endpointStart, "first_question is missing", nil), false)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrResultDiscarded
	}
	meta := resp.Metadata()
	c.sessionID = resp.SessionID
	c.metadata = &meta
	c.question = resp.FirstQuestion.Clone()
	c.questionsAsked = 0
	c.queueTraceLocked("response received", map[string]interface{}{
		"call":               "start_session",
		"questionId":         resp.FirstQuestion.ID,
		"estimatedQuestions": resp.EstimatedQuestions,
	})
	c.transitionLocked(PhaseQuestioning)
	c.queueEventLocked(EventStarted)
	c.queueEventLocked(EventQuestionReady)
	c.unlock(ctx)

	c.logger.Info("Classification session started", map[string]interface{}{
		"sessionId":  resp.SessionID,
		"questionId": resp.FirstQuestion.ID,
	})
	return nil
}

func (c *Controller) preflight(ctx context.Context, gen uint64) error {
	c.trace(ctx, gen, "request sent", map[string]interface{}{"call": "health"})
	health, err := c.transport.Health(ctx)
	if err != nil {
		return err
	}
	if !health.IsHealthy() {
		return errors.NewUnreachableError(endpointHealth, fmt.Errorf("service reported status %q", health.Status))
	}
	c.trace(ctx, gen, "response received", map[string]interface{}{"call": "health", "status": health.Status})
	return nil
}

// SubmitAnswer sends the answer to the current question. An empty QuestionID is
// filled with the current question id and a zero Confidence defaults to 1.0.
func (c *Controller) SubmitAnswer(ctx context.Context, answer models.Answer) error {
	c.mu.Lock()
	switch {
	case c.phase == PhaseQuestioning:
	case c.phase.InFlight():
		phase := c.phase
		c.mu.Unlock()
		return c.reject(errors.NewConcurrentCallError("submit_answer", string(phase)))
	default:
		phase := c.phase
		c.mu.Unlock()
		return c.reject(errors.NewInvalidStateError("submit_answer", string(phase)))
	}

	current := c.question
	answer = answer.Normalize()
	if answer.QuestionID == "" {
		answer.QuestionID = current.ID
	}
	if answer.QuestionID != current.ID {
		c.mu.Unlock()
		return c.reject(errors.NewInvalidAnswerError(
			fmt.Sprintf("answer is for question %s but current question is %s", answer.QuestionID, current.ID)))
	}
	if err := answer.Validate(); err != nil {
		c.mu.Unlock()
		return c.reject(errors.NewInvalidAnswerError(err.Error()))
	}

	gen := c.generation
	sessionID := c.sessionID
	c.queueTraceLocked("request sent", map[string]interface{}{
		"call":       "submit_answer",
		"questionId": answer.QuestionID,
		"response":   answer.Response,
		"confidence": answer.Confidence,
	})
	c.transitionLocked(PhaseSubmitting)
	c.unlock(ctx)

	resp, err := c.transport.SubmitAnswer(ctx, sessionID, answer)
	if cancelled(ctx) {
		return c.discard(ctx, gen, PhaseQuestioning, ctx.Err())
	}
	if err != nil {
		return c.fail(ctx, gen, timedOut(ctx, endpointAnswer, err), false)
	}
	if resp.ClassificationResult == nil {
		return c.fail(ctx, gen, errors.NewMalformedResponseError(endpointAnswer, "classification_result is missing", nil), false)
	}

	if c.recorder != nil {
		c.recorder.RecordRound(ctx, string(current.Stage))
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrResultDiscarded
	}

	result := resp.ClassificationResult
	c.rounds++
	c.queueTraceLocked("response received", map[string]interface{}{
		"call":           "submit_answer",
		"questionsAsked": result.QuestionsAsked,
		"isComplete":     result.IsComplete,
		"shouldContinue": result.ShouldContinue,
		"topDepartment":  result.TopDepartment,
		"hasNext":        resp.NextQuestion != nil,
	})

	if result.QuestionsAsked < c.questionsAsked {
		c.recordAnomalyLocked(AnomalyCounterRegression, answer.QuestionID,
			fmt.Sprintf("questions_asked went from %d to %d", c.questionsAsked, result.QuestionsAsked))
	} else {
		c.questionsAsked = result.QuestionsAsked
	}

	terminal := c.isTerminalLocked(result)
	c.queueTraceLocked("termination evaluated", map[string]interface{}{
		"terminal":       terminal,
		"questionsAsked": c.questionsAsked,
		"rounds":         c.rounds,
		"hardCap":        c.settings.HardCap,
	})

	if !terminal && resp.NextQuestion == nil {
		c.recordAnomalyLocked(AnomalyMissingNextQuestion, answer.QuestionID,
			"service continued without a next question")
		terminal = true
	}

	if !terminal {
		if resp.NextQuestion.ID == answer.QuestionID {
			c.recordAnomalyLocked(AnomalyRepeatedQuestion, answer.QuestionID,
				"service asked the just-answered question again")
		}
		c.question = resp.NextQuestion.Clone()
		c.transitionLocked(PhaseQuestioning)
		c.queueEventLocked(EventQuestionReady)
		c.unlock(ctx)
		return nil
	}

	adopted := result.Clone()
	adopted.QuestionsAsked = c.questionsAsked
	c.result = adopted
	c.question = nil
	c.transitionLocked(PhaseCompleting)
	c.unlock(ctx)

	return c.complete(ctx, gen, sessionID, adopted)
}

// isTerminalLocked evaluates the termination disjunction once. The cap counts
// both the adopted questions_asked and the rounds answered locally.
func (c *Controller) isTerminalLocked(result *models.ClassificationResult) bool {
	asked := c.questionsAsked
	if c.rounds > asked {
		asked = c.rounds
	}
	return IsTerminal(result, asked, c.settings.HardCap)
}

// IsTerminal is the session termination predicate.
func IsTerminal(result *models.ClassificationResult, questionsAsked, hardCap int) bool {
	return result.IsComplete || !result.ShouldContinue || questionsAsked >= hardCap
}

func (c *Controller) complete(ctx context.Context, gen uint64, sessionID string, result *models.ClassificationResult) error {
	c.trace(ctx, gen, "request sent", map[string]interface{}{
		"call":         "fetch_explanation",
		"departmentId": result.TopDepartment,
	})
	explanation, degraded := c.explainer.Fetch(ctx, sessionID, result)

	if degraded != nil {
		c.errHandler.Handle(degraded, map[string]interface{}{"sessionId": sessionID})
		c.countError(degraded)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrResultDiscarded
	}
	if degraded != nil {
		c.explanationDegraded = true
		c.explanationErr = degraded
		c.queueTraceLocked("explanation degraded", map[string]interface{}{"error": degraded.Details})
	} else {
		c.transitionLocked(PhaseExplaining)
		c.explanation = explanation
		c.queueTraceLocked("response received", map[string]interface{}{"call": "fetch_explanation"})
	}
	c.transitionLocked(PhaseDone)
	c.queueEventLocked(EventCompleted)
	duration := c.now().Sub(c.startedAt)
	c.unlock(ctx)

	metrics.SessionsFinished.WithLabelValues(string(PhaseDone)).Inc()
	if c.recorder != nil {
		c.recorder.RecordSession(ctx, duration, string(PhaseDone))
	}
	c.logger.Info("Classification session completed", map[string]interface{}{
		"sessionId":           sessionID,
		"topDepartment":       result.TopDepartment,
		"topProbability":      result.TopProbability,
		"questionsAsked":      result.QuestionsAsked,
		"explanationDegraded": degraded != nil,
	})
	return nil
}

// Restart discards all session state and returns to idle. With autoStart it
// immediately starts a new session. Results still in flight are dropped.
func (c *Controller) Restart(ctx context.Context, autoStart bool) error {
	c.mu.Lock()
	c.generation++
	from := c.phase
	c.transitionLocked(PhaseIdle)
	c.resetLocked()
	c.flushMu.Lock()
	c.mu.Unlock()
	c.tracer.Reset()
	c.flushMu.Unlock()

	c.logger.Debug("Session restarted", map[string]interface{}{
		"from":      string(from),
		"autoStart": autoStart,
	})

	if autoStart {
		return c.Start(ctx)
	}
	return nil
}

func (c *Controller) resetLocked() {
	c.pending = nil
	c.events = nil
	c.phase = PhaseIdle
	c.sessionID = ""
	c.question = nil
	c.questionsAsked = 0
	c.rounds = 0
	c.result = nil
	c.explanation = nil
	c.explanationDegraded = false
	c.explanationErr = nil
	c.err = nil
	c.anomalies = nil
	c.metadata = nil
	c.startedAt = time.Time{}
}

// fail moves the session to Offline or Failed. forceOffline is used for health
// pre-flight failures, which never count as a structured rejection.
func (c *Controller) fail(ctx context.Context, gen uint64, err error, forceOffline bool) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	stdErr, outcome := c.errHandler.Handle(err, map[string]interface{}{"sessionId": sessionID})
	c.countError(stdErr)

	target, kind := PhaseFailed, EventFailed
	if forceOffline || outcome == errors.OutcomeOffline {
		target, kind = PhaseOffline, EventOffline
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrResultDiscarded
	}
	c.err = stdErr
	c.question = nil
	c.queueTraceLocked("call failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
	c.transitionLocked(target)
	c.queueEventLocked(kind)
	duration := c.now().Sub(c.startedAt)
	c.unlock(ctx)

	metrics.SessionsFinished.WithLabelValues(string(target)).Inc()
	if c.recorder != nil {
		c.recorder.RecordSession(ctx, duration, string(target))
	}
	return stdErr
}

// discard drops a result whose caller gave up, returning the session to the
// phase it was in before the call.
func (c *Controller) discard(ctx context.Context, gen uint64, back Phase, cause error) error {
	c.mu.Lock()
	if gen == c.generation {
		if back == PhaseIdle {
			c.resetLocked()
			c.phase = PhaseStarting
		}
		c.queueTraceLocked("result discarded", map[string]interface{}{"reason": cause.Error()})
		c.transitionLocked(back)
	}
	c.unlock(ctx)

	c.logger.Warn("Network result discarded", map[string]interface{}{"reason": cause.Error()})
	return fmt.Errorf("%w: %v", ErrResultDiscarded, cause)
}

func (c *Controller) reject(stdErr *errors.StandardError) error {
	c.errHandler.Handle(stdErr, nil)
	c.countError(stdErr)
	return stdErr
}

func (c *Controller) countError(stdErr *errors.StandardError) {
	metrics.SessionErrors.WithLabelValues(string(stdErr.Code), errors.GetErrorCategory(stdErr.Code)).Inc()
}

func (c *Controller) recordAnomalyLocked(kind, questionID, detail string) {
	c.anomalies = append(c.anomalies, Anomaly{
		Kind:       kind,
		Detail:     detail,
		QuestionID: questionID,
		At:         c.now().UTC(),
	})
	c.queueTraceLocked("anomaly detected", map[string]interface{}{
		"kind":       kind,
		"questionId": questionID,
		"detail":     detail,
	})
	metrics.ProtocolAnomalies.WithLabelValues(kind).Inc()
	c.logger.Warn("Protocol anomaly", map[string]interface{}{
		"sessionId":  c.sessionID,
		"kind":       kind,
		"questionId": questionID,
		"detail":     detail,
	})
}

func (c *Controller) transitionLocked(to Phase) {
	from := c.phase
	if from == to {
		return
	}
	metrics.PhaseTransitions.WithLabelValues(string(from), string(to)).Inc()
	switch {
	case !from.active() && to.active():
		metrics.SessionsActive.Inc()
	case from.active() && !to.active():
		metrics.SessionsActive.Dec()
	}
	c.phase = to
	c.queueTraceLocked("transition", map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
}

func (c *Controller) queueTraceLocked(message string, data map[string]interface{}) {
	c.pending = append(c.pending, pendingTrace{sessionID: c.sessionID, message: message, data: data})
}

func (c *Controller) queueEventLocked(kind EventKind) {
	c.events = append(c.events, pendingEvent{kind: kind, snapshot: c.snapshotLocked()})
}

// unlock releases the lock, then flushes queued trace records and events so that
// sinks and observers run without it.
func (c *Controller) unlock(ctx context.Context) {
	pending, events := c.pending, c.events
	c.pending, c.events = nil, nil
	c.flushMu.Lock()
	c.mu.Unlock()

	for _, p := range pending {
		c.tracer.Record(ctx, p.sessionID, p.message, p.data)
	}
	c.flushMu.Unlock()

	for _, e := range events {
		c.observer.OnEvent(Event{Kind: e.kind, Snapshot: e.snapshot})
	}
}

// trace records outside a locked section. Records from a generation that
// Restart has already retired are dropped.
func (c *Controller) trace(ctx context.Context, gen uint64, message string, data map[string]interface{}) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.queueTraceLocked(message, data)
	c.unlock(ctx)
}

func (c *Controller) retired(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.generation
}

// cancelled reports whether the caller gave up on the call. A passed deadline
// is a timeout, not a cancellation.
func cancelled(ctx context.Context) bool {
	return ctx.Err() == context.Canceled
}

// timedOut classifies a failure under an expired deadline as unreachable.
func timedOut(ctx context.Context, endpoint string, err error) error {
	if ctx.Err() == context.DeadlineExceeded && errors.CodeOf(err) != errors.ErrCodeUnreachable {
		return errors.NewUnreachableError(endpoint, ctx.Err())
	}
	return err
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:               c.phase,
		SessionID:           c.sessionID,
		Question:            c.question.Clone(),
		QuestionsAsked:      c.questionsAsked,
		Result:              c.result.Clone(),
		Explanation:         c.explanation.Clone(),
		ExplanationDegraded: c.explanationDegraded,
		ExplanationError:    c.explanationErr,
		Err:                 c.err,
	}
	if len(c.anomalies) > 0 {
		s.Anomalies = append([]Anomaly(nil), c.anomalies...)
	}
	if c.metadata != nil {
		meta := *c.metadata
		s.Metadata = &meta
	}
	return s
}
