package txnsign

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedContext() *Context {
	return &Context{
		KeyBytes:       []int{12, 45, 200, 7, 88, 3, 250, 19, 33, 210, 91, 14, 67},
		AnimationKey:   "abc123def456",
		RowIndex:       0,
		KeyByteIndices: []int{1, 2, 3},
	}
}

func TestGenerateIsDeterministicGivenFixedInputs(t *testing.T) {
	fixedNow := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedByte := byte(0x42)

	build := func() *Generator {
		return NewWithContext(DefaultConfig(), fixedContext()).
			WithClock(func() time.Time { return fixedNow }).
			WithRandomByte(func() (byte, error) { return fixedByte, nil })
	}

	g1 := build()
	g2 := build()

	id1, err := g1.Generate(context.Background(), "GET", "/i/api/graphql/abc/SearchTimeline")
	require.NoError(t, err)
	id2, err := g2.Generate(context.Background(), "GET", "/i/api/graphql/abc/SearchTimeline")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}

func TestGenerateVariesWithMethodAndPath(t *testing.T) {
	fixedNow := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewWithContext(DefaultConfig(), fixedContext()).
		WithClock(func() time.Time { return fixedNow }).
		WithRandomByte(func() (byte, error) { return 0x7, nil })

	idA, err := g.Generate(context.Background(), "GET", "/i/api/graphql/abc/SearchTimeline")
	require.NoError(t, err)
	idB, err := g.Generate(context.Background(), "POST", "/i/api/graphql/abc/SearchTimeline")
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
}

func TestGenerateVariesWithRandomByte(t *testing.T) {
	fixedNow := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	build := func(b byte) *Generator {
		return NewWithContext(DefaultConfig(), fixedContext()).
			WithClock(func() time.Time { return fixedNow }).
			WithRandomByte(func() (byte, error) { return b, nil })
	}

	id1, err := build(0x01).Generate(context.Background(), "GET", "/p")
	require.NoError(t, err)
	id2, err := build(0x02).Generate(context.Background(), "GET", "/p")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestStaleReportsTrueBeforeFirstBuild(t *testing.T) {
	g := New(DefaultConfig())
	assert.True(t, g.Stale())
}

func TestStaleHonorsContextTTL(t *testing.T) {
	fixedNow := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.ContextTTL = time.Hour

	g := NewWithContext(cfg, fixedContext()).WithClock(func() time.Time { return fixedNow })
	assert.False(t, g.Stale())

	g.WithClock(func() time.Time { return fixedNow.Add(2 * time.Hour) })
	assert.True(t, g.Stale())
}

func TestJsRoundMatchesJavaScriptHalfUp(t *testing.T) {
	assert.Equal(t, 1.0, jsRound(0.5))
	assert.Equal(t, -1.0, jsRound(-1.5))
	assert.Equal(t, 2.0, jsRound(1.5))
}

func TestFloatToHexIntegerOnly(t *testing.T) {
	assert.Equal(t, "ff", floatToHex(255))
	assert.Equal(t, "0", floatToHex(0))
}

func TestFloatToHexFraction(t *testing.T) {
	hex := floatToHex(1.5)
	assert.Equal(t, "1.8", hex)
}

func TestEvaluateCubicBezierWithinRange(t *testing.T) {
	v := evaluateCubicBezier([]float64{0.25, 0.1, 0.25, 1}, 0.5)
	assert.InDelta(t, 0.5, v, 0.3)
}

func TestEvaluateCubicBezierExtrapolatesOutsideRange(t *testing.T) {
	v := evaluateCubicBezier([]float64{0.25, 0.1, 0.25, 1}, -1)
	assert.LessOrEqual(t, v, 0.0)
}
