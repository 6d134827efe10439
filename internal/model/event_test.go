package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementResultWireShape(t *testing.T) {
	ok, err := json.Marshal(Ok(0.25))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"value":0.25}`, string(ok))

	failed, err := json.Marshal(Failed("synthetic_failure"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"synthetic_failure"}`, string(failed))
}

func TestMeasurementResultRoundTrip(t *testing.T) {
	for _, r := range []MeasurementResult{Ok(-0.9), Ok(0), Failed("unknown_property:mass")} {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var back MeasurementResult
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, r, back)
	}
}

func TestMeasurementResultOkRequiresValue(t *testing.T) {
	var r MeasurementResult
	err := json.Unmarshal([]byte(`{"ok":true}`), &r)
	require.Error(t, err)
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	tests := []struct {
		step    StepKind
		payload any
	}{
		{StepHypothesis, HypothesisPayload{
			ID:          "h1",
			Statement:   "some candidates satisfy the constraints",
			Candidates:  []string{"Li1Na2O3"},
			Assumptions: []string{"measurements are noisy but informative"},
		}},
		{StepDesign, DesignPayload{
			ID:             "d1",
			HypothesisID:   "h1",
			TargetProperty: PropStability,
			Candidates:     []string{"Li1Na2O3"},
			Rationale:      "measure stability to reduce uncertainty",
		}},
		{StepExecute, ExecutePayload{
			Tool:     "oracle.query_property",
			Property: PropStability,
			Results: map[string]MeasurementResult{
				"Li1Na2O3": Ok(0.4),
				"K2Mg1S6":  Failed("synthetic_failure"),
			},
		}},
		{StepInterpret, InterpretPayload{
			ID:             "i1",
			HypothesisID:   "h1",
			UpdatedBeliefs: map[string]float64{"Li1Na2O3": 0.12},
		}},
		{StepUpdate, UpdatePayload{
			Status: "done",
			Reason: ReasonBudgetExhausted,
			Budget: Budget{MaxToolCalls: 4, ToolCallsUsed: 4},
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			raw, err := json.Marshal(tt.payload)
			require.NoError(t, err)

			decoded, err := DecodePayload(tt.step, raw)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, decoded)
		})
	}
}

func TestDecodePayloadUnknownStep(t *testing.T) {
	_, err := DecodePayload(StepKind("OBSERVE"), json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodePayloadMissingFields(t *testing.T) {
	tests := []struct {
		name string
		step StepKind
		raw  string
	}{
		{"hypothesis without id", StepHypothesis, `{"statement":"x"}`},
		{"design without hypothesis_id", StepDesign, `{"id":"d1"}`},
		{"execute without results", StepExecute, `{"tool":"oracle.query_property","property":"stability"}`},
		{"interpret without beliefs", StepInterpret, `{"id":"i1","hypothesis_id":"h1"}`},
		{"update without reason", StepUpdate, `{"status":"done"}`},
		{"not json at all", StepHypothesis, `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.step, json.RawMessage(tt.raw))
			require.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestConstraintsValidate(t *testing.T) {
	require.NoError(t, DefaultConstraints().Validate())

	bad := DefaultConstraints()
	bad.BeliefDecay = 0
	require.Error(t, bad.Validate())

	bad = DefaultConstraints()
	bad.BeliefDecay = 1.5
	require.Error(t, bad.Validate())

	bad = DefaultConstraints()
	bad.BatchSize = 0
	require.Error(t, bad.Validate())

	bad = DefaultConstraints()
	bad.BandgapMin, bad.BandgapMax = 2.0, 1.0
	require.Error(t, bad.Validate())
}

func TestBudgetExhausted(t *testing.T) {
	assert.False(t, Budget{MaxToolCalls: 2, ToolCallsUsed: 1}.Exhausted())
	assert.True(t, Budget{MaxToolCalls: 2, ToolCallsUsed: 2}.Exhausted())
}
