package ordering

import (
	"context"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

// Resolver finds the active siblings of a member.
type Resolver struct {
	store Store
}

func NewResolver(store Store) Resolver {
	return Resolver{store: store}
}

// Siblings returns the active members sharing m's group, m excluded, in
// index order.
func (r Resolver) Siblings(ctx context.Context, m Member) ([]Member, error) {
	return r.store.Siblings(ctx, m.Group, m.ID)
}

// Indices is Siblings reduced to the sibling indices.
func (r Resolver) Indices(ctx context.Context, g Group, exclude idwrap.IDWrap) ([]int64, error) {
	members, err := r.store.Siblings(ctx, g, exclude)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		i, _ := m.Placement.Index()
		out = append(out, i)
	}
	return out, nil
}
