package orchestrator

import (
	"github.com/samber/lo"
	"github.com/vburojevic/simnav/internal/domain"
)

// Summarize aggregates outcomes. The mean collision count covers only runs
// that did not fail; vision counts as used when any run started in vision mode.
func Summarize(batchID string, mode domain.Mode, outcomes []domain.RunOutcome) *domain.BatchSummary {
	valid := lo.Reject(outcomes, func(o domain.RunOutcome, _ int) bool { return o.Failed })

	var mean float64
	if len(valid) > 0 {
		total := lo.SumBy(valid, func(o domain.RunOutcome) int { return o.Collisions })
		mean = float64(total) / float64(len(valid))
	}

	return &domain.BatchSummary{
		Type:           "summary",
		SchemaVersion:  domain.SchemaVersion,
		BatchID:        batchID,
		Mode:           mode,
		Outcomes:       outcomes,
		Attempted:      len(outcomes),
		Succeeded:      lo.CountBy(outcomes, func(o domain.RunOutcome) bool { return o.Reached }),
		Failed:         len(outcomes) - len(valid),
		MeanCollisions: mean,
		VisionUsed:     lo.SomeBy(outcomes, func(o domain.RunOutcome) bool { return o.Mode == domain.ModeVision }),
	}
}
