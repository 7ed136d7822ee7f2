package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// GoalAmounts is the session-local view of goal progress.
type GoalAmounts interface {
	KnownGoalAmount(goalID string) (core.Money, bool)
	SetGoalAmount(goalID string, amount core.Money)
}

// GoalReconciler adds a saved contribution to its goal's current amount.
//
// The update is a plain read-modify-write: two contributions computed from
// the same base both persist base+own amount and one increment is lost. A
// failure leaves the goal behind its contributions; nothing recomputes it.
type GoalReconciler struct {
	goals  store.GoalStore
	logger *log.Logger
}

func NewGoalReconciler(goals store.GoalStore, logger *log.Logger) *GoalReconciler {
	if logger == nil {
		logger = log.Nop()
	}
	return &GoalReconciler{goals: goals, logger: logger.WithComponent(log.ComponentGoals)}
}

// Contribute persists current+amount for the goal. The current amount comes
// from known when the session has seen the goal, otherwise from the store.
// The target is not a cap.
func (r *GoalReconciler) Contribute(ctx context.Context, userID, goalID string, amount core.Money, known GoalAmounts) (core.Goal, error) {
	base, ok := core.Money{}, false
	if known != nil {
		base, ok = known.KnownGoalAmount(goalID)
	}
	if !ok {
		g, err := r.goals.GetGoal(ctx, userID, goalID)
		if err != nil {
			return core.Goal{}, fmt.Errorf("%w: fetch goal %s: %w", ErrGoalProgressNotUpdated, goalID, err)
		}
		base = g.CurrentAmount
	}

	next, err := base.CheckedAdd(amount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("%w: goal %s at %s: %w", ErrGoalProgressNotUpdated, goalID, base, err)
	}
	updated, err := r.goals.UpdateGoal(ctx, userID, goalID, core.GoalPatch{CurrentAmount: &next})
	if err != nil {
		return core.Goal{}, fmt.Errorf("%w: update goal %s: %w", ErrGoalProgressNotUpdated, goalID, err)
	}
	if known != nil {
		known.SetGoalAmount(goalID, updated.CurrentAmount)
	}

	r.logger.DebugContext(ctx, "Goal progress updated",
		log.NewFields().WithOperation(log.OpReconcile).WithUser(userID).WithGoal(goalID).ToSlice()...)
	return updated, nil
}
