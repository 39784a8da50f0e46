package ml

import (
	"encoding/json"
	"io"

	"github.com/fraudguard/fraudguard/pkg/errors"
)

// EncodeState serializes a fitted ensemble state as JSON. The layout is an
// implementation detail, only DecodeState is expected to read it back.
func EncodeState(w io.Writer, state *EnsembleState) error {
	if state == nil {
		return errors.ErrInvalidInput.WithMessage("nil ensemble state")
	}
	if err := json.NewEncoder(w).Encode(state); err != nil {
		return errors.ErrInternal.WithMessage("encoding ensemble state").WithError(err)
	}
	return nil
}

// DecodeState reads a serialized ensemble state and validates that it is
// complete enough to serve scoring requests.
func DecodeState(r io.Reader) (*EnsembleState, error) {
	var state EnsembleState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, errors.ErrInvalidInput.WithMessage("decoding ensemble state").WithError(err)
	}

	if state.Scaler == nil || state.Forest == nil || state.Boundary == nil ||
		state.Booster == nil || state.Autoencoder == nil {
		return nil, errors.ErrInvalidInput.WithMessage("incomplete ensemble state")
	}
	if state.ReconThreshold <= 0 {
		return nil, errors.ErrInvalidInput.WithMessage("invalid reconstruction threshold")
	}
	if err := state.Weights.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}
