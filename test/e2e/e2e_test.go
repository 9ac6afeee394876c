// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taqneeq-quiz/internal/classifier"
	"taqneeq-quiz/internal/common/config"
	"taqneeq-quiz/internal/common/database"
	"taqneeq-quiz/internal/common/logger"
	"taqneeq-quiz/internal/models"
	"taqneeq-quiz/internal/quiz"
)

// These tests talk to a running classification service. They are skipped
// unless TAQNEEQ_E2E_URL is set, e.g. TAQNEEQ_E2E_URL=http://localhost:8000/api/v1.

var (
	baseURL string
	zapLog  *zap.Logger
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("TAQNEEQ_E2E_URL")
	zapLog, _ = zap.NewDevelopment()

	code := m.Run()

	_ = zapLog.Sync()
	os.Exit(code)
}

func newClient(t *testing.T) *classifier.Client {
	t.Helper()
	if baseURL == "" {
		t.Skip("TAQNEEQ_E2E_URL not set")
	}
	return classifier.New(config.ClassifierConfig{BaseURL: baseURL, Timeout: 30000}, logger.NewZapAdapter(zapLog))
}

func TestFullE2E(t *testing.T) {
	client := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var sinks []quiz.TraceSink
	var redis *database.RedisClient
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		var err error
		redis, err = database.NewRedis(config.RedisConfig{Address: addr})
		require.NoError(t, err)
		defer redis.Close()
		sinks = append(sinks, quiz.NewRedisSink(redis, "quiz:e2e:", 10*time.Minute))
	}

	log := logger.NewZapAdapter(zapLog)
	ctrl := quiz.NewController(client, quiz.Settings{
		HardCap:            quiz.DefaultHardCap,
		HealthPreflight:    true,
		ExplanationTimeout: 30 * time.Second,
		IncludeComparison:  true,
	}, quiz.WithLogger(log), quiz.WithTracer(quiz.NewTracer(log, sinks...)))

	require.NoError(t, ctrl.Start(ctx))

	// Alternate agreeable and neutral answers until the service stops asking.
	for round := 0; ; round++ {
		snap := ctrl.Snapshot()
		if snap.Phase != quiz.PhaseQuestioning {
			break
		}
		require.Less(t, round, quiz.DefaultHardCap, "quiz did not terminate")

		response := 4
		if round%2 == 1 {
			response = 3
		}
		err := ctrl.SubmitAnswer(ctx, models.Answer{QuestionID: snap.Question.ID, Response: response, Confidence: 0.8})
		require.NoError(t, err, "round %d", round)
	}

	snap := ctrl.Snapshot()
	require.Equal(t, quiz.PhaseDone, snap.Phase, "session ended with %v", snap.Err)
	require.NotNil(t, snap.Result)
	assert.Nil(t, snap.Question)
	assert.NotEmpty(t, snap.Result.TopDepartment)
	assert.LessOrEqual(t, snap.QuestionsAsked, quiz.DefaultHardCap)
	if !snap.ExplanationDegraded {
		assert.NotNil(t, snap.Explanation)
	}

	status, err := client.SessionStatus(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, status)

	if redis != nil {
		records, err := redis.ReadTrace(ctx, fmt.Sprintf("quiz:e2e:%s", snap.SessionID))
		require.NoError(t, err)
		assert.NotEmpty(t, records)
	}
}

func TestDepartmentsE2E(t *testing.T) {
	client := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := client.Departments(ctx, models.DepartmentQuery{IncludeTraits: true})
	require.NoError(t, err)
	require.NotEmpty(t, list.Departments)

	first := list.Departments[0]
	dept, err := client.Department(ctx, first.ID, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, dept.ID)

	similar, err := client.SimilarDepartments(ctx, first.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, similar.TargetDepartment.ID)
	assert.LessOrEqual(t, len(similar.SimilarDepartments), 2)
}

func TestUnknownSessionRejectedE2E(t *testing.T) {
	client := newClient(t)

	_, err := client.SubmitAnswer(context.Background(), "no-such-session", models.Answer{QuestionID: "seed_001", Response: 3, Confidence: 1})
	require.Error(t, err)
}
