package service

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	domainService "github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/internal/ml"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

func datasetCSV(normal, fraud int) string {
	var b strings.Builder
	b.WriteString("amount,merchant,category,location,user_id,device_id,timestamp,is_fraud\n")
	for i := 0; i < normal; i++ {
		fmt.Fprintf(&b, "%.2f,corner grocery store,grocery,new york,user-%03d,device-%03d,2025-06-0%dT1%d:15:00Z,0\n",
			20.0+float64(i%60), i%40, i%40, 2+i%5, i%8)
	}
	for i := 0; i < fraud; i++ {
		fmt.Fprintf(&b, "%.2f,casino royale online,online,lagos,mule-%03d,device-burner,2025-06-0%dT03:0%d:00Z,1\n",
			5000.0+float64(i)*250, i%10, 2+i%5, i%9)
	}
	return b.String()
}

type trainingFixture struct {
	svc    TrainingAppService
	handle *ml.Handle
	alerts *MockAlertPublisher
}

func newTrainingFixture(t *testing.T) *trainingFixture {
	t.Helper()
	log := logger.NewNoop()
	risk := domainService.NewEntityRiskCache(domainService.DefaultHeuristics(), nil, domainService.DefaultCacheOptions(), log)
	pipeline := domainService.NewFeaturePipeline(risk, log)
	handle := ml.NewHandle()
	trainer := ml.NewTrainer(ml.TrainerConfig{
		ForestTrees:       30,
		BoostingRounds:    40,
		AutoencoderEpochs: 10,
		HoldoutFraction:   0.2,
		MinRows:           50,
		Seed:              17,
	})
	alerts := new(MockAlertPublisher)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	return &trainingFixture{
		svc:    NewTrainingAppService(pipeline, trainer, handle, alerts, metrics, log),
		handle: handle,
		alerts: alerts,
	}
}

func TestRetrain_PublishesState(t *testing.T) {
	f := newTrainingFixture(t)
	f.alerts.On("PublishTraining", mock.Anything, mock.Anything).Return(nil)

	require.False(t, f.handle.Ready())
	resp, err := f.svc.Retrain(context.Background(), "csv", strings.NewReader(datasetCSV(240, 60)))

	require.NoError(t, err)
	assert.Equal(t, "trained", resp.Status)
	assert.Equal(t, 300, resp.Rows)
	assert.Len(t, resp.Models, 5)
	assert.True(t, f.handle.Ready())
	f.alerts.AssertExpectations(t)
}

func TestRetrain_EmitsTrainingEvent(t *testing.T) {
	f := newTrainingFixture(t)

	var captured models.TrainingCompleted
	f.alerts.On("PublishTraining", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(models.TrainingCompleted)
	}).Return(nil)

	_, err := f.svc.Retrain(context.Background(), "csv", strings.NewReader(datasetCSV(240, 60)))

	require.NoError(t, err)
	assert.Equal(t, 300, captured.Rows)
	assert.Greater(t, captured.EnsembleAUC, 0.0)
	assert.False(t, captured.TrainedAt.IsZero())
}

func TestRetrain_EventPublishFailureDoesNotFailRetrain(t *testing.T) {
	f := newTrainingFixture(t)
	f.alerts.On("PublishTraining", mock.Anything, mock.Anything).Return(stdErrors.New("broker down"))

	resp, err := f.svc.Retrain(context.Background(), "csv", strings.NewReader(datasetCSV(240, 60)))

	require.NoError(t, err)
	assert.Equal(t, "trained", resp.Status)
	assert.True(t, f.handle.Ready())
}

func TestRetrain_TooFewRowsLeavesServingStateUntouched(t *testing.T) {
	f := newTrainingFixture(t)
	f.alerts.On("PublishTraining", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Retrain(context.Background(), "csv", strings.NewReader(datasetCSV(240, 60)))
	require.NoError(t, err)
	previous, err := f.handle.Current()
	require.NoError(t, err)

	resp, err := f.svc.Retrain(context.Background(), "csv", strings.NewReader(datasetCSV(10, 2)))

	assert.Nil(t, resp)
	assert.True(t, stdErrors.Is(err, errors.ErrInvalidDataset))
	current, err := f.handle.Current()
	require.NoError(t, err)
	assert.Same(t, previous, current)
}

func TestRetrain_MissingColumns(t *testing.T) {
	f := newTrainingFixture(t)

	resp, err := f.svc.Retrain(context.Background(), "csv",
		strings.NewReader("amount,merchant\n10.0,store\n"))

	assert.Nil(t, resp)
	assert.True(t, stdErrors.Is(err, errors.ErrInvalidDataset))
	assert.False(t, f.handle.Ready())
}

func TestRetrain_UnsupportedFormat(t *testing.T) {
	f := newTrainingFixture(t)

	resp, err := f.svc.Retrain(context.Background(), "xml", strings.NewReader("<rows/>"))

	assert.Nil(t, resp)
	assert.True(t, stdErrors.Is(err, errors.ErrInvalidInput))
}
