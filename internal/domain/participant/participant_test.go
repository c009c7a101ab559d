package participant

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New(uuid.New(), "  Ada ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Zero(t, p.Score)

	_, err = New(uuid.New(), "   ")
	require.ErrorIs(t, err, ErrInvalidDisplayName)

	_, err = New(uuid.New(), strings.Repeat("x", 41))
	require.ErrorIs(t, err, ErrInvalidDisplayName)

	_, err = New(uuid.New(), strings.Repeat("é", 40))
	require.NoError(t, err)
}

func TestApply(t *testing.T) {
	p, err := New(uuid.New(), "Ada")
	require.NoError(t, err)

	p.Apply(&Answer{Correct: true, Points: 800, LatencyMs: 1000, CreatedAt: time.Now()})
	p.Apply(&Answer{Correct: false, Points: 0, LatencyMs: 3000, CreatedAt: time.Now()})

	assert.Equal(t, int64(800), p.Score)
	assert.Equal(t, int64(800), p.Stats.TotalPoints)
	assert.Equal(t, 1, p.Stats.CorrectCount)
	assert.Equal(t, 2, p.Stats.TotalAnswers)
	assert.InDelta(t, 2000.0, p.Stats.AvgLatencyMs, 0.001)

	p.ResetScore()
	assert.Zero(t, p.Score)
	assert.Equal(t, Stats{}, p.Stats)
}
