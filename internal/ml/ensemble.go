package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// Sub-model names used in sub-score maps and metric reports.
const (
	ModelIsolationForest = "isolation_forest"
	ModelOneClass        = "one_class_boundary"
	ModelGradientBoost   = "gradient_boost"
	ModelAutoencoder     = "autoencoder"
	ModelEnsemble        = "ensemble"
)

// FusionWeights are the fixed coefficients applied to the four sub-scores.
type FusionWeights struct {
	IsolationForest float64 `json:"isolation_forest"`
	OneClass        float64 `json:"one_class_boundary"`
	GradientBoost   float64 `json:"gradient_boost"`
	Autoencoder     float64 `json:"autoencoder"`
}

// DefaultFusionWeights returns the standard weight set.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		IsolationForest: constants.WeightIsolationForest,
		OneClass:        constants.WeightOneClass,
		GradientBoost:   constants.WeightGradientBoost,
		Autoencoder:     constants.WeightAutoencoder,
	}
}

// Validate checks the weights sum to 1.0 within float tolerance, so the
// ensemble score stays bounded in [0, 1] given bounded sub-scores.
func (w FusionWeights) Validate() error {
	sum := w.IsolationForest + w.OneClass + w.GradientBoost + w.Autoencoder
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("fusion weights sum to %f, want 1.0", sum)
	}
	return nil
}

// Fuse combines sub-scores into the ensemble score. With non-negative
// weights the result is non-decreasing in every sub-score when the others
// are held fixed. Validation keeps it in [0,1]; clamp anyway so a future
// weight change cannot leak an out-of-range score.
func (w FusionWeights) Fuse(sub map[string]float64) float64 {
	ensemble := w.IsolationForest*sub[ModelIsolationForest] +
		w.OneClass*sub[ModelOneClass] +
		w.GradientBoost*sub[ModelGradientBoost] +
		w.Autoencoder*sub[ModelAutoencoder]
	return clamp(ensemble, 0, 1)
}

// EnsembleState holds the four fitted sub-models plus the scaling transform,
// the reconstruction-error threshold and the fusion weights. It is created
// empty, populated atomically by one full training pass, and read-only while
// serving; retraining replaces the whole state.
type EnsembleState struct {
	Scaler         *StandardScaler          `json:"scaler"`
	Forest         *IsolationForest         `json:"forest"`
	Boundary       *OneClassBoundary        `json:"boundary"`
	Booster        *GradientBoostClassifier `json:"booster"`
	Autoencoder    *Autoencoder             `json:"autoencoder"`
	ReconThreshold float64                  `json:"recon_threshold"`
	Weights        FusionWeights            `json:"weights"`
	Metrics        []models.ModelMetrics    `json:"metrics"`
	TrainedAt      time.Time                `json:"trained_at"`
	TrainingRows   int                      `json:"training_rows"`
}

// Handle is the atomically-swappable reference to the serving EnsembleState.
// Scoring always reads the latest published state; a retraining pass builds
// a new state off to the side and publishes it only on success, so in-flight
// scoring never observes a partially-trained state.
type Handle struct {
	state atomic.Pointer[EnsembleState]
}

// NewHandle returns an empty handle; scoring through it fails with
// ErrModelNotReady until the first Publish.
func NewHandle() *Handle {
	return &Handle{}
}

// Current returns the serving state, or ErrModelNotReady before the first
// successful training pass.
func (h *Handle) Current() (*EnsembleState, error) {
	s := h.state.Load()
	if s == nil {
		return nil, errors.ErrModelNotReady
	}
	return s, nil
}

// Ready reports whether a state has been published.
func (h *Handle) Ready() bool {
	return h.state.Load() != nil
}

// Publish atomically swaps in a fully-trained state.
func (h *Handle) Publish(s *EnsembleState) {
	h.state.Store(s)
}

// TrainerConfig carries the training hyperparameters.
type TrainerConfig struct {
	ForestTrees       int
	BoostingRounds    int
	AutoencoderEpochs int
	HoldoutFraction   float64
	MinRows           int
	Seed              int64
}

// DefaultTrainerConfig mirrors the service defaults.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		ForestTrees:       100,
		BoostingRounds:    100,
		AutoencoderEpochs: 50,
		HoldoutFraction:   constants.HoldoutFraction,
		MinRows:           50,
		Seed:              42,
	}
}

// Trainer fits a complete EnsembleState from a feature matrix and labels.
type Trainer struct {
	cfg TrainerConfig
}

// NewTrainer creates a trainer with the given config.
func NewTrainer(cfg TrainerConfig) *Trainer {
	return &Trainer{cfg: cfg}
}

// Fit runs the full training pass. Any step failure aborts the whole pass
// and returns an error without producing a state, preserving atomic-swap
// semantics for the caller. Steps in order: scaler on the full matrix, then
// the four sub-models on the scaled rows (forest and booster on all rows,
// boundary and autoencoder on the normal class only), then the p95
// reconstruction threshold over the normal rows.
func (t *Trainer) Fit(ctx context.Context, matrix [][]float64, labels []int) (*EnsembleState, error) {
	if len(matrix) != len(labels) {
		return nil, errors.ErrTrainingFailed.WithMessage("got %d rows and %d labels", len(matrix), len(labels))
	}
	if len(matrix) < t.cfg.MinRows {
		return nil, errors.ErrInvalidDataset.WithMessage("need at least %d rows, got %d", t.cfg.MinRows, len(matrix))
	}

	weights := DefaultFusionWeights()
	if err := weights.Validate(); err != nil {
		return nil, errors.ErrTrainingFailed.WithError(err)
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))

	// Holdout split for metric evaluation; the models train on the rest.
	trainX, trainY, holdX, holdY := holdoutSplit(matrix, labels, t.cfg.HoldoutFraction, rng)

	scaler, err := FitScaler(trainX)
	if err != nil {
		return nil, errors.ErrTrainingFailed.WithError(err)
	}
	scaled := scaler.TransformMatrix(trainX)

	var normal [][]float64
	for i, row := range scaled {
		if trainY[i] == 0 {
			normal = append(normal, row)
		}
	}
	if len(normal) < 2 {
		return nil, errors.ErrInvalidDataset.WithMessage("need at least 2 normal-class rows, got %d", len(normal))
	}

	state := &EnsembleState{
		Scaler:       scaler,
		Weights:      weights,
		TrainedAt:    time.Now().UTC(),
		TrainingRows: len(matrix),
	}

	// The sub-model fits are independent once the scaler is fixed. Each gets
	// its own seeded source so results stay reproducible regardless of
	// scheduling.
	g, _ := errgroup.WithContext(ctx)
	forestSeed, aeSeed := rng.Int63(), rng.Int63()

	g.Go(func() error {
		forest, err := FitIsolationForest(scaled, t.cfg.ForestTrees, constants.ContaminationRate, rand.New(rand.NewSource(forestSeed)))
		if err != nil {
			return err
		}
		state.Forest = forest
		return nil
	})
	g.Go(func() error {
		boundary, err := FitOneClassBoundary(normal, constants.ContaminationRate)
		if err != nil {
			return err
		}
		state.Boundary = boundary
		return nil
	})
	g.Go(func() error {
		booster, err := FitGradientBoost(scaled, trainY, t.cfg.BoostingRounds)
		if err != nil {
			return err
		}
		state.Booster = booster
		return nil
	})
	g.Go(func() error {
		ae := NewAutoencoder(len(scaled[0]), rand.New(rand.NewSource(aeSeed)))
		if err := ae.Fit(normal, t.cfg.AutoencoderEpochs, rand.New(rand.NewSource(aeSeed+1))); err != nil {
			return err
		}
		state.Autoencoder = ae
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.ErrTrainingFailed.WithError(err)
	}

	// Reconstruction threshold: p95 of normal-row MSE. Computed after the
	// autoencoder finishes; it normalizes future errors into sub-score range.
	mses := make([]float64, len(normal))
	for i, row := range normal {
		mses[i] = state.Autoencoder.MSE(row)
	}
	sort.Float64s(mses)
	state.ReconThreshold = quantileSorted(mses, constants.ReconstructionPercentile/100)
	if state.ReconThreshold <= 0 || math.IsNaN(state.ReconThreshold) {
		return nil, errors.ErrTrainingFailed.WithMessage("degenerate reconstruction threshold: %f", state.ReconThreshold)
	}

	state.Metrics = EvaluateModels(state, holdX, holdY)
	return state, nil
}

// holdoutSplit shuffles and splits rows into train and holdout partitions.
func holdoutSplit(matrix [][]float64, labels []int, fraction float64, rng *rand.Rand) ([][]float64, []int, [][]float64, []int) {
	order := rng.Perm(len(matrix))
	holdN := int(float64(len(matrix)) * fraction)
	if holdN < 1 {
		holdN = 1
	}
	if holdN >= len(matrix) {
		holdN = len(matrix) - 1
	}

	trainX := make([][]float64, 0, len(matrix)-holdN)
	trainY := make([]int, 0, len(matrix)-holdN)
	holdX := make([][]float64, 0, holdN)
	holdY := make([]int, 0, holdN)
	for i, idx := range order {
		if i < holdN {
			holdX = append(holdX, matrix[idx])
			holdY = append(holdY, labels[idx])
		} else {
			trainX = append(trainX, matrix[idx])
			trainY = append(trainY, labels[idx])
		}
	}
	return trainX, trainY, holdX, holdY
}

// Score holds one scoring outcome before it is wrapped into the API shape.
type Score struct {
	Ensemble   float64
	Tier       constants.RiskTier
	IsFraud    bool
	Confidence float64
	SubScores  map[string]float64
}

// ScoreVector scores one feature vector against the fitted state.
func (s *EnsembleState) ScoreVector(values []float64) (*Score, error) {
	row := s.Scaler.Transform(values)

	sub := map[string]float64{
		ModelIsolationForest: binaryOutlier(s.Forest.DecisionFunction(row)),
		ModelOneClass:        binaryOutlier(s.Boundary.DecisionFunction(row)),
		ModelGradientBoost:   s.Booster.PredictProba(row),
		ModelAutoencoder:     math.Min(s.Autoencoder.MSE(row)/s.ReconThreshold, 1.0),
	}
	for name, v := range sub {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return nil, errors.ErrInternal.WithMessage("sub-score %s out of [0,1]: %f", name, v)
		}
	}

	ensemble := s.Weights.Fuse(sub)

	tier, isFraud := classify(ensemble)
	return &Score{
		Ensemble:   ensemble,
		Tier:       tier,
		IsFraud:    isFraud,
		Confidence: confidenceOf(sub),
		SubScores:  sub,
	}, nil
}

// ScoreBatch scores rows independently in input order; each row's result is
// identical to a single ScoreVector call.
func (s *EnsembleState) ScoreBatch(rows [][]float64) ([]*Score, error) {
	out := make([]*Score, len(rows))
	for i, row := range rows {
		score, err := s.ScoreVector(row)
		if err != nil {
			return nil, err
		}
		out[i] = score
	}
	return out, nil
}

// classify maps an ensemble score to a tier. Only "high" sets the fraud
// flag; the 0.7 boundary itself is medium.
func classify(score float64) (constants.RiskTier, bool) {
	switch {
	case score > constants.HighRiskThreshold:
		return constants.RiskTierHigh, true
	case score > constants.MediumRiskThreshold:
		return constants.RiskTierMedium, false
	default:
		return constants.RiskTierLow, false
	}
}

// binaryOutlier converts a decision-function value to the 0/1 sub-score
// convention: negative decision means outlier.
func binaryOutlier(decision float64) float64 {
	if decision < 0 {
		return 1
	}
	return 0
}

// confidenceOf derives confidence from sub-model agreement: one minus the
// normalized dispersion of the four sub-scores, floored at 0.5. Deterministic
// for a given input.
func confidenceOf(sub map[string]float64) float64 {
	var mean float64
	for _, v := range sub {
		mean += v
	}
	mean /= float64(len(sub))

	var variance float64
	for _, v := range sub {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sub))

	// Max possible stddev for values in [0,1] is 0.5.
	confidence := 1 - math.Sqrt(variance)/0.5
	if confidence < 0.5 {
		confidence = 0.5
	}
	return confidence
}
