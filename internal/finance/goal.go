package finance

import "moneta/internal/core"

// GoalProgress is the derived display state of a savings goal. DaysRemaining
// is nil when the goal has no deadline and negative when the deadline has
// passed; overdue is a display concept, the goal status itself never flips.
type GoalProgress struct {
	ProgressPercentage float64
	DaysRemaining      *int
}

// EvaluateGoal computes progress percentage and days remaining as of a date.
// Progress is clamped to [0,100]; a non-positive target (rejected at the
// boundary, tolerated here) yields 0.
func EvaluateGoal(g core.Goal, asOf core.Date) GoalProgress {
	progress := 0.0
	if g.TargetAmount.IsPositive() {
		progress = g.CurrentAmount.Div(g.TargetAmount).InexactFloat64() * 100
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
	}

	var days *int
	if g.Deadline != nil {
		d := asOf.DaysUntil(*g.Deadline)
		days = &d
	}
	return GoalProgress{ProgressPercentage: progress, DaysRemaining: days}
}
