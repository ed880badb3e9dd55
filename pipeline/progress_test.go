package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sendwell/cloud-setup/domain"
)

func TestPercentBounds(t *testing.T) {
	p := NewProgress(domain.Steps)

	for c := 0; c <= len(domain.Steps); c++ {
		for _, f := range []float64{-1, 0, 0.25, 0.5, 0.95, 1, 2} {
			percent := p.Percent(c, f)
			assert.GreaterOrEqual(t, percent, 0)
			assert.LessOrEqual(t, percent, 99, "percent must never reach 100 (c=%d f=%v)", c, f)
		}
	}
}

func TestPercentStrictlyIncreasingAcrossSteps(t *testing.T) {
	p := NewProgress(domain.Steps)

	prev := -1
	for c := 0; c < len(domain.Steps); c++ {
		percent := p.Percent(c, 0)
		assert.Greater(t, percent, prev, "percent at step %d", c)
		prev = percent
	}
}

func TestPercentFractionInterpolates(t *testing.T) {
	steps := []domain.Step{
		{ID: "a", Weight: 50},
		{ID: "b", Weight: 50},
	}
	p := NewProgress(steps)

	assert.Equal(t, 0, p.Percent(0, 0))
	assert.Equal(t, 25, p.Percent(0, 0.5))
	assert.Equal(t, 50, p.Percent(1, 0))
	assert.Equal(t, 75, p.Percent(1, 0.5))
	assert.Equal(t, 99, p.Percent(1, 1), "a finished last step still reports 99")
	assert.Equal(t, 99, p.Percent(2, 0))
}

func TestPercentClampsInputs(t *testing.T) {
	p := NewProgress(domain.Steps)

	assert.Equal(t, p.Percent(0, 0), p.Percent(-3, -1))
	assert.Equal(t, 99, p.Percent(len(domain.Steps)+5, 2))
}
