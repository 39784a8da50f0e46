package ml

import (
	"bytes"
	stdErrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/fraudguard/pkg/errors"
)

func TestEncodeDecodeState_RoundTrip(t *testing.T) {
	state := trainTestState(t)

	var buf bytes.Buffer
	require.NoError(t, EncodeState(&buf, state))

	restored, err := DecodeState(&buf)
	require.NoError(t, err)

	probe := fraudProbe()
	original, err := state.ScoreVector(probe)
	require.NoError(t, err)
	roundTripped, err := restored.ScoreVector(probe)
	require.NoError(t, err)

	assert.InDelta(t, original.Ensemble, roundTripped.Ensemble, 1e-12)
	assert.Equal(t, original.Tier, roundTripped.Tier)
	assert.Equal(t, state.TrainingRows, restored.TrainingRows)
	assert.Len(t, restored.Metrics, len(state.Metrics))
}

func TestEncodeState_Nil(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeState(&buf, nil)
	assert.True(t, stdErrors.Is(err, errors.ErrInvalidInput))
}

func TestDecodeState_MalformedJSON(t *testing.T) {
	_, err := DecodeState(strings.NewReader("{broken"))
	assert.True(t, stdErrors.Is(err, errors.ErrInvalidInput))
}

func TestDecodeState_IncompleteState(t *testing.T) {
	_, err := DecodeState(strings.NewReader(`{"scaler":{"mean":[0],"std":[1]}}`))
	assert.True(t, stdErrors.Is(err, errors.ErrInvalidInput))
}
