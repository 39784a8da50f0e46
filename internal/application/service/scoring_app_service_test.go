package service

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	domainService "github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/internal/ml"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// Mock implementations for dependencies

type MockPredictionRepo struct {
	mock.Mock
}

func (m *MockPredictionRepo) Save(ctx context.Context, record *models.PredictionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPredictionRepo) CountSince(ctx context.Context, since time.Time) (int64, int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockPredictionRepo) TierCountsByLocation(ctx context.Context, since time.Time) (map[string]map[string]int64, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]map[string]int64), args.Error(1)
}

type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) Publish(ctx context.Context, alert models.FraudAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertPublisher) PublishTraining(ctx context.Context, event models.TrainingCompleted) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAlertPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// syntheticDataset builds a labeled tabular dataset with a clean separation
// between normal daytime purchases and large night-time transactions at
// risky merchants and locations.
func syntheticDataset(normal, fraud int) *models.TrainingDataset {
	dataset := &models.TrainingDataset{
		Columns: []string{"amount", "merchant", "category", "location", "user_id", "device_id", "timestamp", "is_fraud"},
	}
	for i := 0; i < normal; i++ {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"amount":    fmt.Sprintf("%.2f", 20.0+float64(i%60)),
			"merchant":  "corner grocery store",
			"category":  "grocery",
			"location":  "new york",
			"user_id":   fmt.Sprintf("user-%03d", i%40),
			"device_id": fmt.Sprintf("device-%03d", i%40),
			"timestamp": fmt.Sprintf("2025-06-0%dT1%d:15:00Z", 2+i%5, i%8),
			"is_fraud":  "0",
		})
	}
	for i := 0; i < fraud; i++ {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"amount":    fmt.Sprintf("%.2f", 5000.0+float64(i)*250),
			"merchant":  "casino royale online",
			"category":  "online",
			"location":  "lagos",
			"user_id":   fmt.Sprintf("mule-%03d", i%10),
			"device_id": "device-burner",
			"timestamp": fmt.Sprintf("2025-06-0%dT03:0%d:00Z", 2+i%5, i%9),
			"is_fraud":  "1",
		})
	}
	return dataset
}

type scoringFixture struct {
	svc     ScoringAppService
	handle  *ml.Handle
	risk    *domainService.EntityRiskCache
	repo    *MockPredictionRepo
	alerts  *MockAlertPublisher
	metrics *monitoring.Metrics
}

func newScoringFixture(t *testing.T, trained bool) *scoringFixture {
	t.Helper()
	log := logger.NewNoop()

	// Training uses an isolated risk cache so the fixture's profile counts
	// start from zero.
	handle := ml.NewHandle()
	if trained {
		trainCache := domainService.NewEntityRiskCache(domainService.DefaultHeuristics(), nil, domainService.DefaultCacheOptions(), log)
		trainPipeline := domainService.NewFeaturePipeline(trainCache, log)
		matrix, labels, err := trainPipeline.BulkTransform(context.Background(), syntheticDataset(240, 60))
		require.NoError(t, err)

		trainer := ml.NewTrainer(ml.TrainerConfig{
			ForestTrees:       30,
			BoostingRounds:    40,
			AutoencoderEpochs: 10,
			HoldoutFraction:   0.2,
			MinRows:           50,
			Seed:              17,
		})
		state, err := trainer.Fit(context.Background(), matrix, labels)
		require.NoError(t, err)
		handle.Publish(state)
	}

	risk := domainService.NewEntityRiskCache(domainService.DefaultHeuristics(), nil, domainService.DefaultCacheOptions(), log)
	pipeline := domainService.NewFeaturePipeline(risk, log)
	repo := new(MockPredictionRepo)
	alerts := new(MockAlertPublisher)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	svc := NewScoringAppService(pipeline, risk, handle, repo, alerts, metrics, log)
	return &scoringFixture{
		svc:     svc,
		handle:  handle,
		risk:    risk,
		repo:    repo,
		alerts:  alerts,
		metrics: metrics,
	}
}

func normalRequest() *dto.PredictRequest {
	return &dto.PredictRequest{
		Amount:    42.5,
		Merchant:  "corner grocery store",
		Category:  "grocery",
		Location:  "new york",
		UserID:    "user-001",
		DeviceID:  "device-001",
		Timestamp: "2025-06-03T14:15:00Z",
	}
}

func fraudRequest() *dto.PredictRequest {
	return &dto.PredictRequest{
		Amount:    9500,
		Merchant:  "casino royale online",
		Category:  "online",
		Location:  "lagos",
		UserID:    "mule-001",
		DeviceID:  "device-burner",
		Timestamp: "2025-06-03T03:05:00Z",
	}
}

func TestPredict_ModelNotReady(t *testing.T) {
	f := newScoringFixture(t, false)

	result, err := f.svc.Predict(context.Background(), normalRequest())

	assert.Nil(t, result)
	assert.True(t, stdErrors.Is(err, errors.ErrModelNotReady))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPredict_ReturnsCompleteResult(t *testing.T) {
	f := newScoringFixture(t, true)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.alerts.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	result, err := f.svc.Predict(context.Background(), normalRequest())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ID, "TXN-"))
	assert.Equal(t, ml.ModelEnsemble, result.ModelUsed)
	assert.GreaterOrEqual(t, result.FraudScore, 0.0)
	assert.LessOrEqual(t, result.FraudScore, 1.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)
	assert.Len(t, result.SubScores, 4)
	assert.NotEmpty(t, result.Attribution)
	assert.False(t, result.Timestamp.IsZero())

	// The scored transaction is folded into the user profile.
	assert.Equal(t, 1, f.svc.ProfileCount(context.Background()))
	f.repo.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPredict_SeparatesFraudFromNormal(t *testing.T) {
	f := newScoringFixture(t, true)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.alerts.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	normal, err := f.svc.Predict(context.Background(), normalRequest())
	require.NoError(t, err)
	fraud, err := f.svc.Predict(context.Background(), fraudRequest())
	require.NoError(t, err)

	assert.Greater(t, fraud.FraudScore, normal.FraudScore)
}

func TestPredict_PersistenceFailureDoesNotFailScoring(t *testing.T) {
	f := newScoringFixture(t, true)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(stdErrors.New("db down"))
	f.alerts.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	result, err := f.svc.Predict(context.Background(), normalRequest())

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestPredict_NilRepositorySkipsPersistence(t *testing.T) {
	f := newScoringFixture(t, true)
	f.alerts.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	log := logger.NewNoop()
	risk := domainService.NewEntityRiskCache(domainService.DefaultHeuristics(), nil, domainService.DefaultCacheOptions(), log)
	pipeline := domainService.NewFeaturePipeline(risk, log)
	svc := NewScoringAppService(pipeline, risk, f.handle, nil, f.alerts,
		monitoring.NewMetrics(prometheus.NewRegistry()), log)

	result, err := svc.Predict(context.Background(), normalRequest())

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestPredictBatch_PreservesOrderAndCount(t *testing.T) {
	f := newScoringFixture(t, true)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.alerts.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	req := &dto.BatchPredictRequest{
		Transactions: []dto.PredictRequest{*normalRequest(), *fraudRequest(), *normalRequest()},
	}
	resp, err := f.svc.PredictBatch(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.BatchID, "BATCH-"))
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Results, 3)
	for _, r := range resp.Results {
		assert.True(t, strings.HasPrefix(r.ID, "TXN-"))
	}
}

func TestPredictBatch_NotReadyFailsWhole(t *testing.T) {
	f := newScoringFixture(t, false)

	resp, err := f.svc.PredictBatch(context.Background(), &dto.BatchPredictRequest{
		Transactions: []dto.PredictRequest{*normalRequest()},
	})

	assert.Nil(t, resp)
	assert.True(t, stdErrors.Is(err, errors.ErrModelNotReady))
}

func TestModelMetrics(t *testing.T) {
	f := newScoringFixture(t, true)

	resp, err := f.svc.ModelMetrics(context.Background())

	require.NoError(t, err)
	assert.Len(t, resp.Models, 5)
	assert.False(t, resp.TrainedAt.IsZero())
	assert.Greater(t, resp.TrainingRows, 0)
}

func TestModelMetrics_NotReady(t *testing.T) {
	f := newScoringFixture(t, false)

	resp, err := f.svc.ModelMetrics(context.Background())

	assert.Nil(t, resp)
	assert.True(t, stdErrors.Is(err, errors.ErrModelNotReady))
}

func TestReady(t *testing.T) {
	f := newScoringFixture(t, false)
	assert.False(t, f.svc.Ready())

	g := newScoringFixture(t, true)
	assert.True(t, g.svc.Ready())
}

func TestPublishAlert_ShapesEvent(t *testing.T) {
	f := newScoringFixture(t, true)
	impl := f.svc.(*scoringAppServiceImpl)

	var captured models.FraudAlert
	f.alerts.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(models.FraudAlert)
	}).Return(nil)

	tx := fraudRequest().Transaction()
	result := &models.PredictionResult{
		ID:         "TXN-test",
		FraudScore: 0.91,
		RiskTier:   "high",
		Timestamp:  time.Date(2025, 6, 3, 3, 5, 0, 0, time.UTC),
	}
	impl.publishAlert(context.Background(), result, tx, "mule-001")

	assert.Equal(t, "TXN-test", captured.PredictionID)
	assert.Equal(t, "mule-001", captured.UserID)
	assert.Equal(t, "casino royale online", captured.Merchant)
	assert.Equal(t, "lagos", captured.Location)
	assert.InDelta(t, 0.91, captured.FraudScore, 1e-12)
	assert.Equal(t, "high", captured.RiskTier)
	f.alerts.AssertExpectations(t)
}

func TestPublishAlert_ErrorIsSwallowed(t *testing.T) {
	f := newScoringFixture(t, true)
	impl := f.svc.(*scoringAppServiceImpl)
	f.alerts.On("Publish", mock.Anything, mock.Anything).Return(stdErrors.New("broker down"))

	impl.publishAlert(context.Background(), &models.PredictionResult{ID: "TXN-x"},
		fraudRequest().Transaction(), "mule-001")

	f.alerts.AssertExpectations(t)
}
