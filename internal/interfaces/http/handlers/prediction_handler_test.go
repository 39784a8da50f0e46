package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// MockScoringAppService is a mock for the ScoringAppService.
type MockScoringAppService struct {
	mock.Mock
}

func (m *MockScoringAppService) Predict(ctx context.Context, req *dto.PredictRequest) (*models.PredictionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionResult), args.Error(1)
}

func (m *MockScoringAppService) PredictBatch(ctx context.Context, req *dto.BatchPredictRequest) (*dto.BatchPredictionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BatchPredictionResponse), args.Error(1)
}

func (m *MockScoringAppService) ModelMetrics(ctx context.Context) (*dto.MetricsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MetricsResponse), args.Error(1)
}

func (m *MockScoringAppService) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockScoringAppService) ProfileCount(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPredictionHandler_Predict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockScoring := new(MockScoringAppService)
	handler := NewPredictionHandler(mockScoring)

	router := gin.New()
	router.POST("/predict", handler.Predict)

	t.Run("successful prediction", func(t *testing.T) {
		mockScoring.On("Predict", mock.Anything, mock.Anything).Return(&models.PredictionResult{
			ID:         "TXN-1",
			FraudScore: 0.12,
			RiskTier:   constants.RiskTierLow,
			Confidence: 0.9,
		}, nil).Once()

		w := performJSON(t, router, http.MethodPost, "/predict", &dto.PredictRequest{
			Amount:   42.5,
			Merchant: "corner store",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "TXN-1", data["id"])
		assert.Equal(t, "low", data["riskLevel"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
	})

	t.Run("negative amount rejected by binding", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/predict", &dto.PredictRequest{Amount: -5})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("model not ready", func(t *testing.T) {
		mockScoring.On("Predict", mock.Anything, mock.Anything).
			Return(nil, errors.ErrModelNotReady).Once()

		w := performJSON(t, router, http.MethodPost, "/predict", &dto.PredictRequest{Amount: 10})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, string(constants.ErrCodeModelNotReady), resp.Error.Code)
	})
}

func TestPredictionHandler_PredictBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockScoring := new(MockScoringAppService)
	handler := NewPredictionHandler(mockScoring)

	router := gin.New()
	router.POST("/predict/batch", handler.PredictBatch)

	t.Run("successful batch", func(t *testing.T) {
		mockScoring.On("PredictBatch", mock.Anything, mock.Anything).Return(&dto.BatchPredictionResponse{
			BatchID: "BATCH-1",
			Results: []*models.PredictionResult{{ID: "TXN-1"}, {ID: "TXN-2"}},
			Count:   2,
		}, nil).Once()

		w := performJSON(t, router, http.MethodPost, "/predict/batch", &dto.BatchPredictRequest{
			Transactions: []dto.PredictRequest{{Amount: 10}, {Amount: 20}},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "BATCH-1", data["batchId"])
		assert.Equal(t, float64(2), data["count"])
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		w := performJSON(t, router, http.MethodPost, "/predict/batch", &dto.BatchPredictRequest{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockScoring := new(MockScoringAppService)
	mockScoring.On("Ready").Return(true)
	mockScoring.On("ProfileCount", mock.Anything).Return(7)
	handler := NewHealthHandler(mockScoring)

	router := gin.New()
	router.GET("/", handler.Root)
	router.GET("/health", handler.Health)
	router.GET("/live", handler.Live)
	router.GET("/ready", handler.Ready)

	t.Run("root reports service identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, constants.ServiceName, data["service"])
		assert.Equal(t, "running", data["status"])
	})

	t.Run("health reports model readiness", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "healthy", data["status"])
		assert.Equal(t, true, data["modelReady"])
		assert.Equal(t, float64(7), data["trackedProfiles"])
	})

	t.Run("probes follow model readiness", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		notReady := new(MockScoringAppService)
		notReady.On("Ready").Return(false)
		coldRouter := gin.New()
		coldRouter.GET("/ready", NewHealthHandler(notReady).Ready)

		w = httptest.NewRecorder()
		coldRouter.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
