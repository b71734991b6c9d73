package mutation

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/storyline/db/pkg/dbtest"
	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/eventstream/memory"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/logger/mocklogger"
)

func testDB(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbtest.GetTestDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type capture struct {
	calls  int
	events []Event
}

func (c *capture) PublishAll(_ context.Context, events []Event) {
	c.calls++
	c.events = append(c.events, events...)
}

func createStory(ctx context.Context, t *testing.T, q *gen.Queries, title string, num int64) idwrap.IDWrap {
	t.Helper()
	id := idwrap.NewNow()
	require.NoError(t, q.CreateStory(ctx, gen.CreateStoryParams{
		ID: id, Title: title, Active: true, StoryNum: sql.NullInt64{Int64: num, Valid: true},
	}))
	return id
}

func TestCommitPublishesAfterCommit(t *testing.T) {
	ctx := context.Background()
	db := testDB(ctx, t)
	pub := &capture{}

	var committed bool
	err := Do(ctx, db, func(mc *Context) error {
		id := createStory(ctx, t, mc.Queries(), "A", 1)
		mc.Track(Event{Entity: EntityStory, Op: OpInsert, ID: id})
		assert.Zero(t, pub.calls, "published before commit")
		return nil
	}, WithPublisher(PublisherFunc(func(ctx context.Context, events []Event) {
		_, err := gen.New(db).GetStory(ctx, events[0].ID)
		committed = err == nil
		pub.PublishAll(ctx, events)
	})))
	require.NoError(t, err)

	assert.Equal(t, 1, pub.calls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, OpInsert, pub.events[0].Op)
	assert.True(t, committed, "row not visible to the publisher")
}

func TestRollbackPublishesNothing(t *testing.T) {
	ctx := context.Background()
	db := testDB(ctx, t)
	pub := &capture{}
	boom := errors.New("boom")

	err := Do(ctx, db, func(mc *Context) error {
		id := createStory(ctx, t, mc.Queries(), "A", 1)
		mc.Track(Event{Entity: EntityStory, Op: OpInsert, ID: id})
		return boom
	}, WithPublisher(pub))
	require.ErrorIs(t, err, boom)
	assert.Zero(t, pub.calls)

	stories, err := gen.New(db).ListStories(ctx)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestFailedCommitPublishesNothing(t *testing.T) {
	ctx := context.Background()
	db := testDB(ctx, t)
	pub := &capture{}

	mc := New(db, WithPublisher(pub))
	require.NoError(t, mc.Begin(ctx))
	mc.Track(Event{Entity: EntityStory, Op: OpInsert, ID: idwrap.NewNow()})
	require.NoError(t, mc.TX().Rollback())

	err := mc.Commit(ctx)
	require.Error(t, err)
	assert.Zero(t, pub.calls)
	assert.Empty(t, mc.Events())

	assert.ErrorIs(t, New(db).Commit(ctx), ErrNoTransaction)
}

func TestDeleteStoryTracksCascade(t *testing.T) {
	ctx := context.Background()
	db := testDB(ctx, t)
	q := gen.New(db)

	storyID := createStory(ctx, t, q, "S", 1)
	advID := idwrap.NewNow()
	require.NoError(t, q.CreateAdventure(ctx, gen.CreateAdventureParams{
		ID: advID, StoryID: storyID, Title: "A", Active: true, AdventureNum: sql.NullInt64{Int64: 1, Valid: true},
	}))
	questID := idwrap.NewNow()
	require.NoError(t, q.CreateQuest(ctx, gen.CreateQuestParams{
		ID: questID, AdventureID: advID, Title: "Q", Active: true, QuestNum: sql.NullInt64{Int64: 1, Valid: true},
	}))

	pub := &capture{}
	err := Do(ctx, db, func(mc *Context) error {
		n, err := mc.DeleteStory(ctx, storyID)
		require.Equal(t, int64(1), n)
		return err
	}, WithPublisher(pub))
	require.NoError(t, err)

	require.Len(t, pub.events, 3)
	assert.Equal(t, Event{Entity: EntityQuest, Op: OpDelete, ID: questID, ParentID: advID}, pub.events[0])
	assert.Equal(t, Event{Entity: EntityAdventure, Op: OpDelete, ID: advID, ParentID: storyID}, pub.events[1])
	assert.Equal(t, Event{Entity: EntityStory, Op: OpDelete, ID: storyID}, pub.events[2])

	_, err = q.GetQuest(ctx, questID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// A missing story deletes nothing and tracks nothing.
	err = Do(ctx, db, func(mc *Context) error {
		n, err := mc.DeleteStory(ctx, storyID)
		assert.Zero(t, n)
		assert.Empty(t, mc.Events())
		return err
	})
	require.NoError(t, err)
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	logger, handler := mocklogger.NewRecordingLogger()
	hooks := NewHooks(logger)

	var first, third []Event
	hooks.Register(NotifierFunc(func(_ context.Context, evt Event) error {
		first = append(first, evt)
		return nil
	}))
	unregister := hooks.Register(NotifierFunc(func(context.Context, Event) error {
		panic("consumer bug")
	}))
	hooks.Register(NotifierFunc(func(_ context.Context, evt Event) error {
		third = append(third, evt)
		return errors.New("downstream unavailable")
	}))
	require.Equal(t, 3, hooks.Len())

	events := []Event{
		{Entity: EntityQuest, Op: OpUpdate, ID: idwrap.NewNow()},
		{Entity: EntityQuest, Op: OpDelete, ID: idwrap.NewNow()},
	}
	hooks.PublishAll(ctx, events)

	assert.Equal(t, events, first)
	assert.Equal(t, events, third)

	var failures int
	for _, r := range handler.Records() {
		if r.Level == slog.LevelWarn && r.Message == "change notification failed" {
			failures++
		}
	}
	assert.Equal(t, 4, failures)

	unregister()
	unregister()
	assert.Equal(t, 2, hooks.Len())
}

func TestStreamNotifier(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	streamer := memory.NewInMemorySyncStreamer[EntityType, Event]()
	defer streamer.Shutdown()
	sub, err := streamer.Subscribe(ctx, func(e EntityType) bool { return e == EntityAdventure })
	require.NoError(t, err)

	hooks := NewHooks(nil)
	hooks.Register(NewStreamNotifier(streamer))

	adv := Event{Entity: EntityAdventure, Op: OpInsert, ID: idwrap.NewNow()}
	hooks.PublishAll(ctx, []Event{{Entity: EntityStory, Op: OpInsert, ID: idwrap.NewNow()}, adv})

	select {
	case got := <-sub:
		assert.Equal(t, EntityAdventure, got.Topic)
		assert.Equal(t, adv, got.Payload)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	var calls int
	err := Retry(ctx, 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errmap.New(errmap.CodeConflict, "database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = Retry(ctx, 5, time.Millisecond, func(context.Context) error {
		calls++
		return errmap.New(errmap.CodeValidation, "bad index")
	})
	assert.True(t, errmap.Is(err, errmap.CodeValidation))
	assert.Equal(t, 1, calls)

	calls = 0
	err = Retry(ctx, 2, time.Millisecond, func(context.Context) error {
		calls++
		return errmap.New(errmap.CodeConflict, "busy")
	})
	assert.True(t, errmap.Is(err, errmap.CodeConflict))
	assert.Equal(t, 2, calls)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = Retry(canceled, 3, time.Hour, func(context.Context) error {
		return errmap.New(errmap.CodeConflict, "busy")
	})
	assert.True(t, errmap.Is(err, errmap.CodeCanceled))
}

func TestEventStrings(t *testing.T) {
	assert.Equal(t, "story", EntityStory.String())
	assert.Equal(t, "adventure", EntityAdventure.String())
	assert.Equal(t, "quest", EntityQuest.String())
	assert.Equal(t, "delete", OpDelete.String())
}
