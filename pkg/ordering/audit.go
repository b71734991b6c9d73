package ordering

import (
	"context"
	"fmt"
)

// Violation is a group whose order column is not dense.
type Violation struct {
	Entity string
	Group  Group
	Stats  GroupStats
}

func (v Violation) String() string {
	return fmt.Sprintf("%s group %s: %d active on %d distinct indices in [%d, %d], %d unindexed, %d excluded with index",
		v.Entity, v.Group, v.Stats.Count, v.Stats.Distinct, v.Stats.Min, v.Stats.Max, v.Stats.Unindexed, v.Stats.InactiveIndexed)
}

// Audit scans every group of the entity and reports the ones that break the
// invariant. It never repairs anything.
func (e *Engine) Audit(ctx context.Context) ([]Violation, error) {
	groups, err := e.store.Groups(ctx)
	if err != nil {
		return nil, e.classify(err)
	}

	var violations []Violation
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, e.classify(err)
		}
		stats, err := e.store.Stats(ctx, g)
		if err != nil {
			return nil, e.classify(err)
		}
		if !stats.Dense() {
			violations = append(violations, Violation{Entity: e.desc.Entity, Group: g, Stats: stats})
		}
	}
	if len(violations) > 0 {
		e.logger.WarnContext(ctx, "ordering audit found violations", "groups", len(groups), "violations", len(violations))
	}
	return violations, nil
}
