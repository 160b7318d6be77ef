package engine

import "context"

// ctxCheckInterval is how many nodes pass between context checks.
const ctxCheckInterval = 1024

// Budget bounds one search run by the number of candidate positions it may
// evaluate. A Budget belongs to a single run and is not safe for
// concurrent use. A nil Budget is unlimited.
type Budget struct {
	max   int64
	spent int64
}

// NewBudget returns a budget of maxNodes evaluations; zero means unlimited.
func NewBudget(maxNodes int64) *Budget {
	return &Budget{max: maxNodes}
}

// Spend records one evaluation and polls ctx every ctxCheckInterval nodes.
func (b *Budget) Spend(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.spent++
	if b.max > 0 && b.spent > b.max {
		return ErrBudgetExhausted
	}
	if b.spent%ctxCheckInterval == 0 {
		return ctx.Err()
	}
	return nil
}

// Spent returns the number of evaluations recorded so far.
func (b *Budget) Spent() int64 {
	if b == nil {
		return 0
	}
	return b.spent
}
