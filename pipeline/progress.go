package pipeline

import (
	"math"

	"github.com/sendwell/cloud-setup/domain"
)

// maxProgressPercent caps every progress frame. 100 is reserved for the
// terminal complete event: "last step finished" and "run fully done" are
// distinct signals.
const maxProgressPercent = 99

// Progress maps (completed step count, in-step fraction) to a percentage
// using the static step weights.
type Progress struct {
	steps []domain.Step
	total int
}

// NewProgress builds a progress model over the given step table.
func NewProgress(steps []domain.Step) *Progress {
	total := 0
	for _, s := range steps {
		total += s.Weight
	}
	return &Progress{steps: steps, total: total}
}

// Percent returns the overall percentage after completedSteps full steps plus
// fraction of the current one. fraction is clamped to [0, 1].
func (p *Progress) Percent(completedSteps int, fraction float64) int {
	if completedSteps < 0 {
		completedSteps = 0
	}
	if completedSteps > len(p.steps) {
		completedSteps = len(p.steps)
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	done := 0
	for i := 0; i < completedSteps; i++ {
		done += p.steps[i].Weight
	}

	current := 0.0
	if completedSteps < len(p.steps) {
		current = float64(p.steps[completedSteps].Weight) * fraction
	}

	percent := int(math.Round((float64(done) + current) / float64(p.total) * 100))
	if percent > maxProgressPercent {
		percent = maxProgressPercent
	}
	return percent
}
