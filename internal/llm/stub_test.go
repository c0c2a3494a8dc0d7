package llm

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubEmbedDeterministic(t *testing.T) {
	s := NewStub()

	a, err := s.Embed(context.Background(), "aspirin delivery today")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "aspirin delivery today")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, stubDimensions)
	assert.Equal(t, stubDimensions, s.Dimensions())
}

func TestStubEmbedUnitLength(t *testing.T) {
	s := NewStub()

	vec, err := s.Embed(context.Background(), "when will my order arrive")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestStubEmbedCaseInsensitive(t *testing.T) {
	s := NewStub()

	a, err := s.Embed(context.Background(), "Ibuprofen REFILL")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "ibuprofen refill")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestStubEmbedEmptyText(t *testing.T) {
	s := NewStub()

	vec, err := s.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, stubDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStubEmbedOverlapScoresHigher(t *testing.T) {
	s := NewStub()

	base, err := s.Embed(context.Background(), "order aspirin online")
	require.NoError(t, err)
	near, err := s.Embed(context.Background(), "order aspirin delivery")
	require.NoError(t, err)
	far, err := s.Embed(context.Background(), "vaccine appointment booking")
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var sum float64
		for i := range a {
			sum += float64(a[i]) * float64(b[i])
		}
		return sum
	}
	assert.Greater(t, dot(base, near), dot(base, far))
}

func TestStubGenerateWithoutFunc(t *testing.T) {
	s := NewStub()

	_, err := s.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCompletion))
}

func TestStubGenerateDelegates(t *testing.T) {
	s := NewStub()
	s.GenerateFunc = func(_ context.Context, prompt, system string) (string, error) {
		assert.Equal(t, "classify this", prompt)
		assert.Equal(t, "you are a classifier", system)
		return "intent: greeting", nil
	}

	out, err := s.Generate(context.Background(), "classify this", "you are a classifier")
	require.NoError(t, err)
	assert.Equal(t, "intent: greeting", out)
}

func TestStubName(t *testing.T) {
	assert.Equal(t, "stub", NewStub().Name())
}

func TestStubEmbedNonZeroForText(t *testing.T) {
	s := NewStub()

	vec, err := s.Embed(context.Background(), "pharmacy")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.False(t, math.Abs(norm) < 1e-9)
}
