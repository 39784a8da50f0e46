package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// Autoencoder is a feed-forward reconstruction network with a narrowing
// encoder and widening decoder (input -> 64 -> 32 -> 16 -> 32 -> 64 ->
// input), ReLU hidden activations and a linear output. Trained on
// normal-class rows only, it reconstructs normal traffic well; the per-row
// mean squared reconstruction error is the anomaly signal.
type Autoencoder struct {
	Layers []denseLayer `json:"layers"`
}

type denseLayer struct {
	Weights [][]float64 `json:"w"` // [out][in]
	Biases  []float64   `json:"b"`
	Linear  bool        `json:"linear"` // output layer skips ReLU
}

const (
	aeLearningRate  = 0.01
	aeBatchSize     = 32
	aeValidationCut = 0.2
)

// NewAutoencoder builds the bottleneck architecture around inputDim.
func NewAutoencoder(inputDim int, rng *rand.Rand) *Autoencoder {
	widths := []int{inputDim, 64, 32, 16, 32, 64, inputDim}
	ae := &Autoencoder{Layers: make([]denseLayer, 0, len(widths)-1)}
	for i := 1; i < len(widths); i++ {
		ae.Layers = append(ae.Layers, newDenseLayer(widths[i-1], widths[i], i == len(widths)-1, rng))
	}
	return ae
}

func newDenseLayer(in, out int, linear bool, rng *rand.Rand) denseLayer {
	// Xavier-style init keeps early activations in range.
	scale := math.Sqrt(2.0 / float64(in))
	w := make([][]float64, out)
	for o := range w {
		w[o] = make([]float64, in)
		for i := range w[o] {
			w[o][i] = rng.NormFloat64() * scale
		}
	}
	return denseLayer{Weights: w, Biases: make([]float64, out), Linear: linear}
}

// Fit trains the network with mini-batch gradient descent for the given
// number of epochs, holding out a validation split to monitor convergence.
// Returns an error when the loss diverges to a non-finite value.
func (ae *Autoencoder) Fit(rows [][]float64, epochs int, rng *rand.Rand) error {
	if len(rows) < 2 {
		return fmt.Errorf("autoencoder: need at least 2 rows, got %d", len(rows))
	}
	if epochs <= 0 {
		return fmt.Errorf("autoencoder: epochs must be positive, got %d", epochs)
	}

	cut := len(rows) - int(float64(len(rows))*aeValidationCut)
	if cut < 1 {
		cut = 1
	}
	order := rng.Perm(len(rows))
	train := make([][]float64, 0, cut)
	val := make([][]float64, 0, len(rows)-cut)
	for i, idx := range order {
		if i < cut {
			train = append(train, rows[idx])
		} else {
			val = append(val, rows[idx])
		}
	}

	for epoch := 0; epoch < epochs; epoch++ {
		perm := rng.Perm(len(train))
		for start := 0; start < len(perm); start += aeBatchSize {
			end := start + aeBatchSize
			if end > len(perm) {
				end = len(perm)
			}
			for _, idx := range perm[start:end] {
				ae.step(train[idx])
			}
		}

		if len(val) > 0 {
			var valLoss float64
			for _, row := range val {
				valLoss += ae.MSE(row)
			}
			valLoss /= float64(len(val))
			if math.IsNaN(valLoss) || math.IsInf(valLoss, 0) {
				return fmt.Errorf("autoencoder: training diverged at epoch %d", epoch)
			}
		}
	}
	return nil
}

// step runs one forward/backward pass on a single row (SGD).
func (ae *Autoencoder) step(row []float64) {
	// Forward, keeping pre-activation inputs per layer.
	inputs := make([][]float64, len(ae.Layers))
	act := row
	for l := range ae.Layers {
		inputs[l] = act
		act = ae.Layers[l].forward(act)
	}

	// Output gradient of 0.5*MSE against the input row.
	grad := make([]float64, len(act))
	for i := range grad {
		grad[i] = (act[i] - row[i]) / float64(len(act))
	}

	// Backward.
	for l := len(ae.Layers) - 1; l >= 0; l-- {
		grad = ae.Layers[l].backward(inputs[l], grad)
	}
}

func (d *denseLayer) forward(in []float64) []float64 {
	out := make([]float64, len(d.Weights))
	for o, wRow := range d.Weights {
		sum := d.Biases[o]
		for i, w := range wRow {
			sum += w * in[i]
		}
		if !d.Linear && sum < 0 {
			sum = 0 // ReLU
		}
		out[o] = sum
	}
	return out
}

// backward updates the layer's parameters for the given upstream gradient
// and returns the gradient with respect to the layer input. The ReLU mask is
// recomputed from the forward pass.
func (d *denseLayer) backward(in []float64, upstream []float64) []float64 {
	// Recompute pre-activations to apply the ReLU mask.
	masked := upstream
	if !d.Linear {
		masked = make([]float64, len(upstream))
		for o, wRow := range d.Weights {
			sum := d.Biases[o]
			for i, w := range wRow {
				sum += w * in[i]
			}
			if sum > 0 {
				masked[o] = upstream[o]
			}
		}
	}

	downstream := make([]float64, len(in))
	for o, g := range masked {
		if g == 0 {
			continue
		}
		wRow := d.Weights[o]
		for i := range wRow {
			downstream[i] += wRow[i] * g
			wRow[i] -= aeLearningRate * g * in[i]
		}
		d.Biases[o] -= aeLearningRate * g
	}
	return downstream
}

// Reconstruct runs a forward pass.
func (ae *Autoencoder) Reconstruct(row []float64) []float64 {
	act := row
	for l := range ae.Layers {
		act = ae.Layers[l].forward(act)
	}
	return act
}

// MSE returns the mean squared reconstruction error of one row.
func (ae *Autoencoder) MSE(row []float64) float64 {
	recon := ae.Reconstruct(row)
	var sum float64
	for i := range row {
		d := row[i] - recon[i]
		sum += d * d
	}
	return sum / float64(len(row))
}
