package ordering

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

// GroupStats summarises the order column of one group.
type GroupStats struct {
	Count           int64
	Distinct        int64
	Min             int64
	Max             int64
	Unindexed       int64
	InactiveIndexed int64
}

// Dense reports whether the active indices are exactly {1..Count} and no
// excluded record carries an index.
func (s GroupStats) Dense() bool {
	if s.Unindexed != 0 || s.InactiveIndexed != 0 {
		return false
	}
	if s.Count == 0 {
		return true
	}
	return s.Distinct == s.Count && s.Min == 1 && s.Max == s.Count
}

// Store is the persistence side of the engine. Every call runs on the
// transaction the store is bound to.
type Store interface {
	// LockGroup takes the write lock covering g before siblings are read.
	LockGroup(ctx context.Context, g Group) error
	// Siblings returns the active members of g except exclude, by index.
	Siblings(ctx context.Context, g Group, exclude idwrap.IDWrap) ([]Member, error)
	// Park clears the index of an active record so shifts can pass through
	// its slot. Records that do not exist yet are ignored.
	Park(ctx context.Context, id idwrap.IDWrap) error
	// Shift applies s to the active members of g except exclude and returns
	// the number of rows moved.
	Shift(ctx context.Context, g Group, s Shift, exclude idwrap.IDWrap) (int64, error)
	Stats(ctx context.Context, g Group) (GroupStats, error)
	Groups(ctx context.Context) ([]Group, error)
	TX(tx *sql.Tx) Store
}

// SQLStore implements Store with statements built from a Descriptor.
type SQLStore struct {
	desc Descriptor
	db   gen.DBTX
}

func NewSQLStore(desc Descriptor, db gen.DBTX) *SQLStore {
	return &SQLStore{desc: desc, db: db}
}

func (s *SQLStore) TX(tx *sql.Tx) Store {
	return &SQLStore{desc: s.desc, db: tx}
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func (s *SQLStore) table() string  { return quote(s.desc.Table) }
func (s *SQLStore) id() string     { return quote(s.desc.IDColumn) }
func (s *SQLStore) order() string  { return quote(s.desc.OrderColumn) }
func (s *SQLStore) active() string { return quote(s.desc.ActiveColumn) }

// groupClause returns the predicate selecting g and its arguments.
func (s *SQLStore) groupClause(g Group) (string, []any, error) {
	parent, scoped := g.Parent()
	if scoped != s.desc.Grouped() {
		return "", nil, fmt.Errorf("%w: %s group for entity %s", ErrGroupMismatch, g, s.desc.Entity)
	}
	if !scoped {
		return "1 = 1", nil, nil
	}
	return quote(s.desc.ParentColumn) + " = ?", []any{parent}, nil
}

func (s *SQLStore) LockGroup(ctx context.Context, g Group) error {
	where, args, err := s.groupClause(g)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s", s.table(), s.order(), s.order(), where)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("lock %s group %s: %w", s.desc.Entity, g, err)
	}
	return nil
}

func (s *SQLStore) Siblings(ctx context.Context, g Group, exclude idwrap.IDWrap) ([]Member, error) {
	where, args, err := s.groupClause(g)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s AND %s = 1 AND %s <> ? ORDER BY %s",
		s.id(), s.order(), s.table(), where, s.active(), s.id(), s.order(),
	)
	rows, err := s.db.QueryContext(ctx, query, append(args, exclude)...)
	if err != nil {
		return nil, fmt.Errorf("query %s siblings: %w", s.desc.Entity, err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var (
			id  idwrap.IDWrap
			idx sql.NullInt64
		)
		if err := rows.Scan(&id, &idx); err != nil {
			return nil, err
		}
		placement, err := FromColumns(true, idx)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", s.desc.Entity, id, err)
		}
		members = append(members, Member{ID: id, Group: g, Placement: placement})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *SQLStore) Park(ctx context.Context, id idwrap.IDWrap) error {
	query := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = ? AND %s = 1", s.table(), s.order(), s.id(), s.active())
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("park %s %s: %w", s.desc.Entity, id, err)
	}
	return nil
}

// Shift moves the range through negative values first so the partial unique
// index never sees two rows on the same index mid-statement.
func (s *SQLStore) Shift(ctx context.Context, g Group, sh Shift, exclude idwrap.IDWrap) (int64, error) {
	where, args, err := s.groupClause(g)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET %s = -(%s + ?) WHERE %s AND %s = 1 AND %s >= ?",
		s.table(), s.order(), s.order(), where, s.active(), s.order())
	stepArgs := append([]any{sh.Delta}, args...)
	stepArgs = append(stepArgs, sh.From)
	if sh.To != 0 {
		fmt.Fprintf(&b, " AND %s <= ?", s.order())
		stepArgs = append(stepArgs, sh.To)
	}
	fmt.Fprintf(&b, " AND %s <> ?", s.id())
	stepArgs = append(stepArgs, exclude)

	res, err := s.db.ExecContext(ctx, b.String(), stepArgs...)
	if err != nil {
		return 0, fmt.Errorf("shift %s: %w", s.desc.OrderColumn, err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if moved == 0 {
		return 0, nil
	}

	flip := fmt.Sprintf("UPDATE %s SET %s = -%s WHERE %s AND %s = 1 AND %s < 0",
		s.table(), s.order(), s.order(), where, s.active(), s.order())
	if _, err := s.db.ExecContext(ctx, flip, args...); err != nil {
		return 0, fmt.Errorf("shift %s: %w", s.desc.OrderColumn, err)
	}
	return moved, nil
}

func (s *SQLStore) Stats(ctx context.Context, g Group) (GroupStats, error) {
	where, args, err := s.groupClause(g)
	if err != nil {
		return GroupStats{}, err
	}
	a, o := s.active(), s.order()
	query := fmt.Sprintf(`SELECT
  COALESCE(SUM(CASE WHEN %[1]s = 1 THEN 1 ELSE 0 END), 0),
  COUNT(DISTINCT CASE WHEN %[1]s = 1 THEN %[2]s END),
  COALESCE(MIN(CASE WHEN %[1]s = 1 THEN %[2]s END), 0),
  COALESCE(MAX(CASE WHEN %[1]s = 1 THEN %[2]s END), 0),
  COALESCE(SUM(CASE WHEN %[1]s = 1 AND %[2]s IS NULL THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN %[1]s = 0 AND %[2]s IS NOT NULL THEN 1 ELSE 0 END), 0)
FROM %[3]s WHERE %[4]s`, a, o, s.table(), where)

	var st GroupStats
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&st.Count, &st.Distinct, &st.Min, &st.Max, &st.Unindexed, &st.InactiveIndexed,
	)
	if err != nil {
		return GroupStats{}, fmt.Errorf("stats %s group %s: %w", s.desc.Entity, g, err)
	}
	return st, nil
}

func (s *SQLStore) Groups(ctx context.Context) ([]Group, error) {
	if !s.desc.Grouped() {
		return []Group{Global()}, nil
	}
	parent := quote(s.desc.ParentColumn)
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY %s", parent, s.table(), parent)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s groups: %w", s.desc.Entity, err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var id idwrap.IDWrap
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groups = append(groups, Under(id))
	}
	return groups, rows.Err()
}
