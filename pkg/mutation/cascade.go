package mutation

import (
	"context"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

// DeleteStory deletes a story and tracks delete events for the adventures and
// quests the foreign keys cascade to. It returns the number of stories
// deleted.
//
// One delete therefore fans out into a notification per removed record,
// children first and the story last.
func (c *Context) DeleteStory(ctx context.Context, storyID idwrap.IDWrap) (int64, error) {
	mark := len(c.events)
	adventures, err := c.q.ListAdventuresByStory(ctx, storyID)
	if err != nil {
		return 0, err
	}
	for _, adv := range adventures {
		if err := c.trackQuestDeletes(ctx, adv.ID); err != nil {
			c.events = c.events[:mark]
			return 0, err
		}
		c.Track(Event{Entity: EntityAdventure, Op: OpDelete, ID: adv.ID, ParentID: storyID})
	}

	n, err := c.q.DeleteStory(ctx, storyID)
	if err != nil || n == 0 {
		c.events = c.events[:mark]
		return n, err
	}
	c.Track(Event{Entity: EntityStory, Op: OpDelete, ID: storyID})
	return n, nil
}

// DeleteAdventure deletes an adventure and tracks delete events for its
// quests, which are published before the adventure's own.
func (c *Context) DeleteAdventure(ctx context.Context, adventureID, storyID idwrap.IDWrap) (int64, error) {
	mark := len(c.events)
	if err := c.trackQuestDeletes(ctx, adventureID); err != nil {
		c.events = c.events[:mark]
		return 0, err
	}

	n, err := c.q.DeleteAdventure(ctx, adventureID)
	if err != nil || n == 0 {
		c.events = c.events[:mark]
		return n, err
	}
	c.Track(Event{Entity: EntityAdventure, Op: OpDelete, ID: adventureID, ParentID: storyID})
	return n, nil
}

func (c *Context) trackQuestDeletes(ctx context.Context, adventureID idwrap.IDWrap) error {
	quests, err := c.q.ListQuestsByAdventure(ctx, adventureID)
	if err != nil {
		return err
	}
	for _, q := range quests {
		c.Track(Event{Entity: EntityQuest, Op: OpDelete, ID: q.ID, ParentID: adventureID})
	}
	return nil
}
