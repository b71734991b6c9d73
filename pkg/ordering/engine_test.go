package ordering

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/storyline/db/pkg/dbtest"
	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

type storyHarness struct {
	t      *testing.T
	ctx    context.Context
	db     *sql.DB
	q      *gen.Queries
	engine *Engine
	ids    map[string]idwrap.IDWrap
}

func newStoryHarness(t *testing.T) *storyHarness {
	t.Helper()
	ctx := context.Background()
	db, err := dbtest.GetTestDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &storyHarness{
		t:      t,
		ctx:    ctx,
		db:     db,
		q:      gen.New(db),
		engine: NewSQL(DefaultDescriptors().MustGet("story"), db, nil),
		ids:    map[string]idwrap.IDWrap{},
	}
}

// within runs fn in a transaction, verifies the story group and commits.
func (h *storyHarness) within(fn func(eng *Engine, q *gen.Queries) error) error {
	tx, err := h.db.BeginTx(h.ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	eng := h.engine.TX(tx)
	if err := fn(eng, h.q.WithTx(tx)); err != nil {
		return err
	}
	if err := eng.Verify(h.ctx, Global()); err != nil {
		return err
	}
	return tx.Commit()
}

func (h *storyHarness) create(title string, req Request) error {
	id := idwrap.NewNow()
	err := h.within(func(eng *Engine, q *gen.Queries) error {
		p, err := eng.Insert(h.ctx, id, Global(), req)
		if err != nil {
			return err
		}
		return q.CreateStory(h.ctx, gen.CreateStoryParams{
			ID: id, Title: title, StoryNum: p.NullIndex(), Active: p.Active(),
		})
	})
	if err == nil {
		h.ids[title] = id
	}
	return err
}

func (h *storyHarness) member(q *gen.Queries, title string) (gen.Story, Member) {
	row, err := q.GetStory(h.ctx, h.ids[title])
	require.NoError(h.t, err)
	p, err := FromColumns(row.Active, row.StoryNum)
	require.NoError(h.t, err)
	return row, Member{ID: row.ID, Group: Global(), Placement: p}
}

func (h *storyHarness) update(title string, req Request) error {
	return h.within(func(eng *Engine, q *gen.Queries) error {
		row, m := h.member(q, title)
		p, err := eng.Reposition(h.ctx, m, req)
		if err != nil {
			return err
		}
		return q.UpdateStory(h.ctx, gen.UpdateStoryParams{
			ID: row.ID, Title: row.Title, StoryNum: p.NullIndex(), Active: p.Active(),
		})
	})
}

func (h *storyHarness) delete(title string) error {
	return h.within(func(eng *Engine, q *gen.Queries) error {
		_, m := h.member(q, title)
		if err := eng.Remove(h.ctx, m); err != nil {
			return err
		}
		_, err := q.DeleteStory(h.ctx, m.ID)
		return err
	})
}

// order maps every title to its index, nil when excluded.
func (h *storyHarness) order() map[string]*int64 {
	rows, err := h.q.ListStories(h.ctx)
	require.NoError(h.t, err)
	out := make(map[string]*int64, len(rows))
	for _, r := range rows {
		p, err := FromColumns(r.Active, r.StoryNum)
		require.NoError(h.t, err)
		out[r.Title] = p.IndexPtr()
	}
	return out
}

func TestEngineLiteralScenario(t *testing.T) {
	h := newStoryHarness(t)

	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, h.create(title, Append()))
	}
	assert.Equal(t, map[string]*int64{"A": idx(1), "B": idx(2), "C": idx(3)}, h.order())

	require.NoError(t, h.update("C", InsertAt(1)))
	assert.Equal(t, map[string]*int64{"A": idx(2), "B": idx(3), "C": idx(1)}, h.order())

	require.NoError(t, h.update("B", Exclude()))
	assert.Equal(t, map[string]*int64{"A": idx(2), "B": nil, "C": idx(1)}, h.order())

	require.NoError(t, h.delete("A"))
	assert.Equal(t, map[string]*int64{"B": nil, "C": idx(1)}, h.order())

	require.NoError(t, h.update("B", Append()))
	assert.Equal(t, map[string]*int64{"B": idx(2), "C": idx(1)}, h.order())
}

func TestEngineInsertAtPosition(t *testing.T) {
	h := newStoryHarness(t)
	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, h.create(title, Append()))
	}

	require.NoError(t, h.create("D", InsertAt(2)))
	assert.Equal(t, map[string]*int64{"A": idx(1), "D": idx(2), "B": idx(3), "C": idx(4)}, h.order())

	require.NoError(t, h.create("E", Exclude()))
	assert.Nil(t, h.order()["E"])

	err := h.create("F", InsertAt(6))
	require.Error(t, err)
	assert.True(t, errmap.Is(err, errmap.CodeValidation))
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.NotContains(t, h.order(), "F")
}

func TestEngineMove(t *testing.T) {
	h := newStoryHarness(t)
	for _, title := range []string{"A", "B", "C", "D"} {
		require.NoError(t, h.create(title, Append()))
	}

	require.NoError(t, h.update("A", InsertAt(3)))
	assert.Equal(t, map[string]*int64{"B": idx(1), "C": idx(2), "A": idx(3), "D": idx(4)}, h.order())

	require.NoError(t, h.update("D", InsertAt(1)))
	assert.Equal(t, map[string]*int64{"D": idx(1), "B": idx(2), "C": idx(3), "A": idx(4)}, h.order())

	require.NoError(t, h.update("B", Append()))
	assert.Equal(t, idx(2), h.order()["B"])

	err := h.update("B", InsertAt(5))
	assert.True(t, errmap.Is(err, errmap.CodeValidation))
	assert.Equal(t, map[string]*int64{"D": idx(1), "B": idx(2), "C": idx(3), "A": idx(4)}, h.order())
}

func TestEngineReactivateAtPosition(t *testing.T) {
	h := newStoryHarness(t)
	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, h.create(title, Append()))
	}
	require.NoError(t, h.update("C", Exclude()))
	require.NoError(t, h.update("C", Exclude()))
	assert.Nil(t, h.order()["C"])

	require.NoError(t, h.update("C", InsertAt(1)))
	assert.Equal(t, map[string]*int64{"C": idx(1), "A": idx(2), "B": idx(3)}, h.order())
}

func TestEngineRegroup(t *testing.T) {
	ctx := context.Background()
	db, err := dbtest.GetTestDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	q := gen.New(db)
	engine := NewSQL(DefaultDescriptors().MustGet("adventure"), db, nil)

	stories := []idwrap.IDWrap{idwrap.NewNow(), idwrap.NewNow()}
	for i, id := range stories {
		require.NoError(t, q.CreateStory(ctx, gen.CreateStoryParams{
			ID: id, Title: []string{"one", "two"}[i], Active: true,
			StoryNum: At(int64(i + 1)).NullIndex(),
		}))
	}

	adventures := map[string]idwrap.IDWrap{}
	add := func(title string, story idwrap.IDWrap) {
		id := idwrap.NewNow()
		p, err := engine.Insert(ctx, id, Under(story), Append())
		require.NoError(t, err)
		require.NoError(t, q.CreateAdventure(ctx, gen.CreateAdventureParams{
			ID: id, StoryID: story, Title: title, AdventureNum: p.NullIndex(), Active: p.Active(),
		}))
		adventures[title] = id
	}
	add("a1", stories[0])
	add("a2", stories[0])
	add("a3", stories[0])
	add("b1", stories[1])
	add("b2", stories[1])

	row, err := q.GetAdventure(ctx, adventures["a1"])
	require.NoError(t, err)
	from, err := FromColumns(row.Active, row.AdventureNum)
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	eng := engine.TX(tx)
	p, err := eng.Regroup(ctx, Member{ID: row.ID, Group: Under(stories[0]), Placement: from}, Under(stories[1]), InsertAt(2))
	require.NoError(t, err)
	require.NoError(t, q.WithTx(tx).UpdateAdventure(ctx, gen.UpdateAdventureParams{
		ID: row.ID, StoryID: stories[1], Title: row.Title, AdventureNum: p.NullIndex(), Active: p.Active(),
	}))
	require.NoError(t, eng.Verify(ctx, Under(stories[0])))
	require.NoError(t, eng.Verify(ctx, Under(stories[1])))
	require.NoError(t, tx.Commit())

	positions := func(story idwrap.IDWrap) map[string]int64 {
		rows, err := q.ListAdventuresByStory(ctx, story)
		require.NoError(t, err)
		out := map[string]int64{}
		for _, r := range rows {
			out[r.Title] = r.AdventureNum.Int64
		}
		return out
	}
	assert.Equal(t, map[string]int64{"a2": 1, "a3": 2}, positions(stories[0]))
	assert.Equal(t, map[string]int64{"b1": 1, "a1": 2, "b2": 3}, positions(stories[1]))
}

func TestEngineGroupMismatch(t *testing.T) {
	h := newStoryHarness(t)
	_, err := h.engine.Insert(h.ctx, idwrap.NewNow(), Under(idwrap.NewNow()), Append())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGroupMismatch)
	assert.True(t, errmap.Is(err, errmap.CodeValidation))
}

func TestEngineVerifyAndAudit(t *testing.T) {
	h := newStoryHarness(t)
	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, h.create(title, Append()))
	}

	violations, err := h.engine.Audit(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)

	before := promtestutil.ToFloat64(InvariantViolations.WithLabelValues("story"))

	// Open a gap behind the engine's back.
	_, err = h.db.ExecContext(h.ctx, "UPDATE story SET story_num = 7 WHERE id = ?", h.ids["B"])
	require.NoError(t, err)

	err = h.engine.Verify(h.ctx, Global())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.True(t, errmap.Is(err, errmap.CodeInvariant))
	assert.False(t, errmap.IsRetryable(err))
	assert.Equal(t, before+1, promtestutil.ToFloat64(InvariantViolations.WithLabelValues("story")))

	violations, err = h.engine.Audit(h.ctx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, GroupStats{Count: 3, Distinct: 3, Min: 1, Max: 7}, violations[0].Stats)

	// Any later mutation refuses to commit on top of the broken group.
	err = h.create("D", Append())
	assert.True(t, errmap.Is(err, errmap.CodeInvariant))
	assert.NotContains(t, h.order(), "D")
}

func TestEngineClassifiesIndexCollision(t *testing.T) {
	h := newStoryHarness(t)
	require.NoError(t, h.create("A", Append()))

	err := h.q.CreateStory(h.ctx, gen.CreateStoryParams{
		ID: idwrap.NewNow(), Title: "B", StoryNum: At(1).NullIndex(), Active: true,
	})
	require.Error(t, err)

	classified := h.engine.Classify(err)
	assert.True(t, errmap.Is(classified, errmap.CodeInvariant))
	assert.ErrorIs(t, classified, ErrInvariantViolation)

	err = h.q.CreateStory(h.ctx, gen.CreateStoryParams{
		ID: idwrap.NewNow(), Title: "A", StoryNum: At(2).NullIndex(), Active: true,
	})
	require.Error(t, err)
	assert.True(t, errmap.Is(h.engine.Classify(err), errmap.CodeAlreadyExists))
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg))

	h := newStoryHarness(t)
	require.NoError(t, h.create("A", Append()))
	assert.GreaterOrEqual(t, promtestutil.ToFloat64(OperationCount.WithLabelValues("story", "insert", "ok")), 1.0)
}
