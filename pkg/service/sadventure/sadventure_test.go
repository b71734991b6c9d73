package sadventure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/mutation"
	"github.com/the-dev-tools/storyline/pkg/service/sadventure"
	"github.com/the-dev-tools/storyline/pkg/service/squest"
	"github.com/the-dev-tools/storyline/pkg/service/sstory"
	"github.com/the-dev-tools/storyline/pkg/testutil"
)

func n(i int64) *int64 { return &i }

type fixture struct {
	ctx      context.Context
	t        *testing.T
	services testutil.BaseTestServices
}

func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	return &fixture{ctx: ctx, t: t, services: testutil.CreateBaseDB(ctx, t).GetBaseServices()}
}

func (f *fixture) story(title string) idwrap.IDWrap {
	f.t.Helper()
	s, err := f.services.Stories.Create(f.ctx, sstory.CreateParams{Title: title})
	require.NoError(f.t, err)
	return s.ID
}

func (f *fixture) adventures(storyID idwrap.IDWrap, titles ...string) []idwrap.IDWrap {
	f.t.Helper()
	ids := make([]idwrap.IDWrap, 0, len(titles))
	for _, title := range titles {
		adv, err := f.services.Adventures.Create(f.ctx, sadventure.CreateParams{StoryID: storyID, Title: title})
		require.NoError(f.t, err)
		ids = append(ids, adv.ID)
	}
	return ids
}

func (f *fixture) positions(storyID idwrap.IDWrap) map[string]*int64 {
	f.t.Helper()
	advs, err := f.services.Adventures.List(f.ctx, storyID)
	require.NoError(f.t, err)
	out := make(map[string]*int64, len(advs))
	for _, a := range advs {
		out[a.Title] = a.Num()
	}
	return out
}

func TestAdventureGroupsArePerStory(t *testing.T) {
	f := newFixture(t)
	first, second := f.story("first"), f.story("second")

	f.adventures(first, "a1", "a2")
	f.adventures(second, "b1")

	assert.Equal(t, map[string]*int64{"a1": n(1), "a2": n(2)}, f.positions(first))
	assert.Equal(t, map[string]*int64{"b1": n(1)}, f.positions(second))

	adv, err := f.services.Adventures.Create(f.ctx, sadventure.CreateParams{StoryID: second, Title: "b0", Index: n(1)})
	require.NoError(t, err)
	assert.Equal(t, n(1), adv.Num())
	assert.Equal(t, map[string]*int64{"b0": n(1), "b1": n(2)}, f.positions(second))
	assert.Equal(t, map[string]*int64{"a1": n(1), "a2": n(2)}, f.positions(first))

	all, err := f.services.Adventures.ListAll(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAdventureCreateErrors(t *testing.T) {
	f := newFixture(t)
	storyID := f.story("story")
	f.adventures(storyID, "a")

	_, err := f.services.Adventures.Create(f.ctx, sadventure.CreateParams{StoryID: idwrap.NewNow(), Title: "x"})
	assert.True(t, errmap.Is(err, errmap.CodeValidation))
	assert.ErrorIs(t, err, sadventure.ErrUnknownStory)

	_, err = f.services.Adventures.Create(f.ctx, sadventure.CreateParams{StoryID: storyID, Title: "x", Index: n(3)})
	assert.True(t, errmap.Is(err, errmap.CodeValidation))

	_, err = f.services.Adventures.Create(f.ctx, sadventure.CreateParams{StoryID: storyID, Title: ""})
	assert.True(t, errmap.Is(err, errmap.CodeValidation))

	_, err = f.services.Adventures.Get(f.ctx, idwrap.NewNow())
	assert.True(t, errmap.Is(err, errmap.CodeNotFound))
	assert.ErrorIs(t, err, sadventure.ErrNoAdventureFound)

	assert.Equal(t, map[string]*int64{"a": n(1)}, f.positions(storyID))
}

func TestAdventureMoveBetweenStories(t *testing.T) {
	f := newFixture(t)
	from, to := f.story("from"), f.story("to")
	ids := f.adventures(from, "a1", "a2", "a3")
	f.adventures(to, "b1", "b2")

	var events []mutation.Event
	f.services.Hooks.Register(mutation.NotifierFunc(func(_ context.Context, evt mutation.Event) error {
		events = append(events, evt)
		return nil
	}))

	// Without an index the adventure lands at the end of the new story.
	adv, err := f.services.Adventures.Update(f.ctx, ids[0], sadventure.UpdateParams{StoryID: &to})
	require.NoError(t, err)
	assert.Equal(t, to, adv.StoryID)
	assert.Equal(t, n(3), adv.Num())
	assert.Equal(t, map[string]*int64{"a2": n(1), "a3": n(2)}, f.positions(from))
	assert.Equal(t, map[string]*int64{"b1": n(1), "b2": n(2), "a1": n(3)}, f.positions(to))

	adv, err = f.services.Adventures.Update(f.ctx, ids[2], sadventure.UpdateParams{StoryID: &to, Index: n(1)})
	require.NoError(t, err)
	assert.Equal(t, n(1), adv.Num())
	assert.Equal(t, map[string]*int64{"a2": n(1)}, f.positions(from))
	assert.Equal(t, map[string]*int64{"a3": n(1), "b1": n(2), "b2": n(3), "a1": n(4)}, f.positions(to))

	// A bad target index rolls back the departure as well.
	_, err = f.services.Adventures.Update(f.ctx, ids[1], sadventure.UpdateParams{StoryID: &to, Index: n(9)})
	assert.True(t, errmap.Is(err, errmap.CodeValidation))
	assert.Equal(t, map[string]*int64{"a2": n(1)}, f.positions(from))

	missing := idwrap.NewNow()
	_, err = f.services.Adventures.Update(f.ctx, ids[1], sadventure.UpdateParams{StoryID: &missing})
	assert.ErrorIs(t, err, sadventure.ErrUnknownStory)

	require.Len(t, events, 2)
	for _, evt := range events {
		assert.Equal(t, mutation.OpUpdate, evt.Op)
		assert.Equal(t, to, evt.ParentID)
	}
}

func TestAdventureExcludeAndDelete(t *testing.T) {
	f := newFixture(t)
	storyID := f.story("story")
	ids := f.adventures(storyID, "a", "b", "c")

	quest, err := f.services.Quests.Create(f.ctx, squest.CreateParams{AdventureID: ids[0], Title: "q"})
	require.NoError(t, err)

	_, err = f.services.Adventures.Update(f.ctx, ids[1], sadventure.UpdateParams{Active: testutil.Ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, map[string]*int64{"a": n(1), "b": nil, "c": n(2)}, f.positions(storyID))

	require.NoError(t, f.services.Adventures.Delete(f.ctx, ids[0]))
	assert.Equal(t, map[string]*int64{"b": nil, "c": n(1)}, f.positions(storyID))

	_, err = f.services.Quests.Get(f.ctx, quest.ID)
	assert.True(t, errmap.Is(err, errmap.CodeNotFound))

	// Deleting an excluded adventure leaves the others untouched.
	require.NoError(t, f.services.Adventures.Delete(f.ctx, ids[1]))
	assert.Equal(t, map[string]*int64{"c": n(1)}, f.positions(storyID))

	err = f.services.Adventures.Delete(f.ctx, ids[1])
	assert.True(t, errmap.Is(err, errmap.CodeNotFound))
}
