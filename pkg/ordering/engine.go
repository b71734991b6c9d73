package ordering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

// Engine keeps the order column of one entity type dense. It does not open
// transactions: callers bind it to theirs with TX and commit or roll back
// around it.
type Engine struct {
	desc     Descriptor
	store    Store
	resolver Resolver
	logger   *slog.Logger
}

func New(desc Descriptor, store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		desc:     desc,
		store:    store,
		resolver: NewResolver(store),
		logger:   logger.With("entity", desc.Entity),
	}
}

// NewSQL builds an engine over an SQLStore for desc.
func NewSQL(desc Descriptor, db gen.DBTX, logger *slog.Logger) *Engine {
	return New(desc, NewSQLStore(desc, db), logger)
}

func (e *Engine) TX(tx *sql.Tx) *Engine {
	store := e.store.TX(tx)
	return &Engine{
		desc:     e.desc,
		store:    store,
		resolver: NewResolver(store),
		logger:   e.logger,
	}
}

func (e *Engine) Descriptor() Descriptor {
	return e.desc
}

// Insert makes room for a new record in group and returns the placement it
// must be written with.
func (e *Engine) Insert(ctx context.Context, id idwrap.IDWrap, group Group, req Request) (_ Placement, err error) {
	defer func() { e.observe("insert", err) }()

	if err := e.store.LockGroup(ctx, group); err != nil {
		return Placement{}, e.classify(err)
	}
	siblings, err := e.resolver.Indices(ctx, group, id)
	if err != nil {
		return Placement{}, e.classify(err)
	}
	plan, err := PlanInsert(siblings, req)
	if err != nil {
		return Placement{}, e.classify(err)
	}
	if err := e.apply(ctx, group, id, plan); err != nil {
		return Placement{}, err
	}

	e.logger.DebugContext(ctx, "ordering insert", "id", id.String(), "group", group.String(), "placement", plan.Placement.String())
	return plan.Placement, nil
}

// Reposition moves m within its group according to req and returns its new
// placement. m.Placement must be the placement currently stored.
func (e *Engine) Reposition(ctx context.Context, m Member, req Request) (_ Placement, err error) {
	defer func() { e.observe("reposition", err) }()

	if err := e.store.LockGroup(ctx, m.Group); err != nil {
		return Placement{}, e.classify(err)
	}
	siblings, err := e.resolver.Indices(ctx, m.Group, m.ID)
	if err != nil {
		return Placement{}, e.classify(err)
	}
	plan, err := PlanMove(siblings, m.Placement, req)
	if err != nil {
		return Placement{}, e.classify(err)
	}
	if len(plan.Shifts) == 0 && plan.Placement == m.Placement {
		return m.Placement, nil
	}
	if err := e.apply(ctx, m.Group, m.ID, plan); err != nil {
		return Placement{}, err
	}

	e.logger.DebugContext(ctx, "ordering reposition",
		"id", m.ID.String(), "group", m.Group.String(),
		"from", m.Placement.String(), "to", plan.Placement.String())
	return plan.Placement, nil
}

// Remove closes the gap m leaves in its group. The record itself is left
// for the caller to delete or exclude.
func (e *Engine) Remove(ctx context.Context, m Member) (err error) {
	defer func() { e.observe("remove", err) }()

	if !m.Placement.Active() {
		return nil
	}
	if err := e.store.LockGroup(ctx, m.Group); err != nil {
		return e.classify(err)
	}
	if err := e.apply(ctx, m.Group, m.ID, PlanRemove(m.Placement)); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "ordering remove", "id", m.ID.String(), "group", m.Group.String(), "from", m.Placement.String())
	return nil
}

// Regroup moves m from its group to another: it leaves the old group as if
// removed and enters the new one as if inserted with req.
func (e *Engine) Regroup(ctx context.Context, m Member, to Group, req Request) (_ Placement, err error) {
	if m.Group.Equal(to) {
		return e.Reposition(ctx, m, req)
	}
	defer func() { e.observe("regroup", err) }()

	// Lock both groups in a fixed order so two opposite moves cannot wait on
	// each other.
	first, second := m.Group, to
	if groupLess(to, m.Group) {
		first, second = to, m.Group
	}
	for _, g := range []Group{first, second} {
		if err := e.store.LockGroup(ctx, g); err != nil {
			return Placement{}, e.classify(err)
		}
	}

	if err := e.apply(ctx, m.Group, m.ID, PlanRemove(m.Placement)); err != nil {
		return Placement{}, err
	}
	siblings, err := e.resolver.Indices(ctx, to, m.ID)
	if err != nil {
		return Placement{}, e.classify(err)
	}
	plan, err := PlanInsert(siblings, req)
	if err != nil {
		return Placement{}, e.classify(err)
	}
	if err := e.apply(ctx, to, m.ID, plan); err != nil {
		return Placement{}, err
	}

	e.logger.DebugContext(ctx, "ordering regroup",
		"id", m.ID.String(), "from_group", m.Group.String(), "to_group", to.String(),
		"placement", plan.Placement.String())
	return plan.Placement, nil
}

func groupLess(a, b Group) bool {
	pa, _ := a.Parent()
	pb, _ := b.Parent()
	return pa.Compare(pb) < 0
}

func (e *Engine) apply(ctx context.Context, g Group, id idwrap.IDWrap, plan Plan) error {
	if err := e.store.Park(ctx, id); err != nil {
		return e.classify(err)
	}
	var total int64
	for _, sh := range plan.Shifts {
		n, err := e.store.Shift(ctx, g, sh, id)
		if err != nil {
			return e.classify(err)
		}
		total += n
	}
	ShiftedRows.WithLabelValues(e.desc.Entity).Add(float64(total))
	ShiftSize.WithLabelValues(e.desc.Entity).Observe(float64(total))
	return nil
}

// Verify checks that the active indices of g are exactly {1..N}. It runs
// after the record write of a mutation and before commit.
func (e *Engine) Verify(ctx context.Context, g Group) error {
	stats, err := e.store.Stats(ctx, g)
	if err != nil {
		return e.classify(err)
	}
	if stats.Dense() {
		return nil
	}

	InvariantViolations.WithLabelValues(e.desc.Entity).Inc()
	e.logger.ErrorContext(ctx, "ordering invariant violated",
		"group", g.String(),
		"count", stats.Count,
		"distinct", stats.Distinct,
		"min", stats.Min,
		"max", stats.Max,
		"unindexed", stats.Unindexed,
		"inactive_indexed", stats.InactiveIndexed,
	)
	return errmap.Wrap(errmap.CodeInvariant, ErrInvariantViolation,
		"group %s holds %d active records on %d distinct indices in [%d, %d]",
		g, stats.Count, stats.Distinct, stats.Min, stats.Max).WithEntity(e.desc.Entity)
}

// Classify maps err to an errmap error. A uniqueness failure on the order
// column is an invariant violation rather than a duplicate record.
func (e *Engine) Classify(err error) error {
	return e.classify(err)
}

func (e *Engine) classify(err error) error {
	if err == nil {
		return nil
	}
	var mapped *errmap.Error
	if errors.As(err, &mapped) {
		return err
	}
	switch {
	case errors.Is(err, ErrPositionOutOfRange), errors.Is(err, ErrGroupMismatch):
		return errmap.Wrap(errmap.CodeValidation, err, "").WithEntity(e.desc.Entity)
	case errors.Is(err, ErrInvariantViolation):
		return errmap.Wrap(errmap.CodeInvariant, err, "").WithEntity(e.desc.Entity)
	}

	out := errmap.Map(err)
	if errmap.Is(out, errmap.CodeAlreadyExists) && strings.Contains(err.Error(), e.desc.OrderColumn) {
		e.logger.Error("order index collision", "error", err)
		InvariantViolations.WithLabelValues(e.desc.Entity).Inc()
		return errmap.Wrap(errmap.CodeInvariant, fmt.Errorf("%w: %w", ErrInvariantViolation, err), "").WithEntity(e.desc.Entity)
	}
	if errors.As(out, &mapped) {
		return mapped.WithEntity(e.desc.Entity)
	}
	return out
}

func (e *Engine) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = string(errmap.CodeOf(err))
	}
	OperationCount.WithLabelValues(e.desc.Entity, op, result).Inc()
}
