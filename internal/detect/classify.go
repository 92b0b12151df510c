package detect

import "ripwatch/internal/types"

// Classifier maps a ColorDetectionResult to an AlertStatus. It is the single
// canonical source of the red > yellow > calm precedence; no other component
// re-derives alert level.
type Classifier struct {
	// Threshold is the minimum percentage (strict) a color must exceed to
	// trigger its alert level, in [0,100].
	Threshold float64
}

// Classify applies the precedence rules, first match wins:
//  1. red percentage above threshold -> AlertRed
//  2. yellow percentage above threshold -> AlertYellow
//  3. otherwise -> AlertCalm
//
// Pure and deterministic: the same detection always yields the same status.
func (c Classifier) Classify(det types.ColorDetectionResult) types.AlertStatus {
	switch {
	case det.RedPercentage > c.Threshold:
		return types.AlertStatusFor(types.AlertRed)
	case det.YellowPercentage > c.Threshold:
		return types.AlertStatusFor(types.AlertYellow)
	default:
		return types.AlertStatusFor(types.AlertCalm)
	}
}
