package oracle

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shirabe/internal/model"
)

func TestSyntheticDeterministicAcrossBatchesAndOrder(t *testing.T) {
	ctx := context.Background()
	src := NewSynthetic(42, 0.3, 0.3)

	full, err := src.Query(ctx, []string{"a", "b", "c", "d"}, model.PropStability)
	require.NoError(t, err)

	// Same candidates, reversed order, split across two batches.
	part1, err := src.Query(ctx, []string{"d", "c"}, model.PropStability)
	require.NoError(t, err)
	part2, err := src.Query(ctx, []string{"b", "a"}, model.PropStability)
	require.NoError(t, err)

	for c, want := range full {
		got, ok := part1[c]
		if !ok {
			got, ok = part2[c]
		}
		require.True(t, ok, "candidate %s missing", c)
		assert.Equal(t, want, got, "candidate %s differs across batch compositions", c)
	}
}

func TestSyntheticSameSeedSameDraws(t *testing.T) {
	ctx := context.Background()
	a := NewSynthetic(7, 0.1, 0.1)
	b := NewSynthetic(7, 0.1, 0.1)

	ra, err := a.Query(ctx, []string{"Li1Na2O3", "K2Mg1S6"}, model.PropBandgap)
	require.NoError(t, err)
	rb, err := b.Query(ctx, []string{"Li1Na2O3", "K2Mg1S6"}, model.PropBandgap)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)

	c := NewSynthetic(8, 0.1, 0.1)
	rc, err := c.Query(ctx, []string{"Li1Na2O3", "K2Mg1S6"}, model.PropBandgap)
	require.NoError(t, err)
	assert.NotEqual(t, ra, rc, "different seeds should produce different draws")
}

func TestSyntheticAlwaysFails(t *testing.T) {
	ctx := context.Background()
	src := NewSynthetic(1, 1.0, 0.0)

	results, err := src.Query(ctx, []string{"a", "b", "c"}, model.PropStability)
	require.NoError(t, err)
	for c, r := range results {
		assert.False(t, r.OK, "candidate %s", c)
		assert.Equal(t, "synthetic_failure", r.Error)
	}
}

func TestSyntheticValueRangesWithoutCorruption(t *testing.T) {
	ctx := context.Background()
	src := NewSynthetic(5, 0.0, 0.0)

	candidates := make([]string, 50)
	for i := range candidates {
		candidates[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}

	stability, err := src.Query(ctx, candidates, model.PropStability)
	require.NoError(t, err)
	bandgap, err := src.Query(ctx, candidates, model.PropBandgap)
	require.NoError(t, err)

	for _, c := range candidates {
		s := stability[c]
		require.True(t, s.OK)
		assert.GreaterOrEqual(t, s.Value, -1.0)
		assert.LessOrEqual(t, s.Value, 1.0)

		b := bandgap[c]
		require.True(t, b.OK)
		// Both properties derive from the same base draw.
		assert.InDelta(t, 2.5*math.Abs(s.Value), b.Value, 1e-12, "candidate %s", c)
	}
}

func TestSyntheticUnknownProperty(t *testing.T) {
	ctx := context.Background()
	src := NewSynthetic(3, 0.0, 0.0)

	results, err := src.Query(ctx, []string{"a"}, "conductivity")
	require.NoError(t, err)
	assert.Equal(t, model.Failed("unknown_property:conductivity"), results["a"])
}

func TestSyntheticFailureBeatsUnknownProperty(t *testing.T) {
	ctx := context.Background()
	src := NewSynthetic(3, 1.0, 0.0)

	results, err := src.Query(ctx, []string{"a"}, "conductivity")
	require.NoError(t, err)
	assert.Equal(t, model.Failed("synthetic_failure"), results["a"])
}

func TestSyntheticCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSynthetic(3, 0.0, 0.0)
	_, err := src.Query(ctx, []string{"a"}, model.PropStability)
	require.Error(t, err)
}
