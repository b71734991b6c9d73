package cli

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/madventure"
	"github.com/the-dev-tools/storyline/pkg/model/mquest"
	"github.com/the-dev-tools/storyline/pkg/ordering"
	"github.com/the-dev-tools/storyline/pkg/service/sadventure"
	"github.com/the-dev-tools/storyline/pkg/service/squest"
	"github.com/the-dev-tools/storyline/pkg/service/sstory"
)

// row is the entity-independent view the commands print.
type row struct {
	ID        idwrap.IDWrap
	Parent    idwrap.IDWrap
	Title     string
	Placement ordering.Placement
	Value     any
}

type createInput struct {
	Parent      idwrap.IDWrap
	Title       string
	Description string
	ImageName   string
	Index       *int64
	Active      *bool
}

type updateInput struct {
	Parent      *idwrap.IDWrap
	Title       *string
	Description *string
	ImageName   *string
	Index       *int64
	Active      *bool
}

// entity adapts one service to the generic commands.
type entity struct {
	name string
	// parent names the entity whose records group this one; empty for
	// the global group.
	parent   string
	hasImage bool

	list   func(ctx context.Context, a *App, parent *idwrap.IDWrap) ([]row, error)
	create func(ctx context.Context, a *App, in createInput) (row, error)
	update func(ctx context.Context, a *App, id idwrap.IDWrap, in updateInput) (row, error)
	delete func(ctx context.Context, a *App, id idwrap.IDWrap) error
}

var storyEntity = entity{
	name: "story",
	list: func(ctx context.Context, a *App, _ *idwrap.IDWrap) ([]row, error) {
		stories, err := a.Stories.List(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]row, len(stories))
		for i, s := range stories {
			rows[i] = row{ID: s.ID, Title: s.Title, Placement: s.Placement, Value: s}
		}
		return rows, nil
	},
	create: func(ctx context.Context, a *App, in createInput) (row, error) {
		s, err := a.Stories.Create(ctx, sstory.CreateParams{
			Title: in.Title, Description: in.Description, Index: in.Index, Active: in.Active,
		})
		if err != nil {
			return row{}, err
		}
		return row{ID: s.ID, Title: s.Title, Placement: s.Placement, Value: *s}, nil
	},
	update: func(ctx context.Context, a *App, id idwrap.IDWrap, in updateInput) (row, error) {
		s, err := a.Stories.Update(ctx, id, sstory.UpdateParams{
			Title: in.Title, Description: in.Description, Index: in.Index, Active: in.Active,
		})
		if err != nil {
			return row{}, err
		}
		return row{ID: s.ID, Title: s.Title, Placement: s.Placement, Value: *s}, nil
	},
	delete: func(ctx context.Context, a *App, id idwrap.IDWrap) error {
		return a.Stories.Delete(ctx, id)
	},
}

var adventureEntity = entity{
	name:   "adventure",
	parent: "story",
	list: func(ctx context.Context, a *App, parent *idwrap.IDWrap) ([]row, error) {
		var (
			advs []madventure.Adventure
			err  error
		)
		if parent != nil {
			advs, err = a.Adventures.List(ctx, *parent)
		} else {
			advs, err = a.Adventures.ListAll(ctx)
		}
		if err != nil {
			return nil, err
		}
		rows := make([]row, len(advs))
		for i, adv := range advs {
			rows[i] = row{ID: adv.ID, Parent: adv.StoryID, Title: adv.Title, Placement: adv.Placement, Value: adv}
		}
		return rows, nil
	},
	create: func(ctx context.Context, a *App, in createInput) (row, error) {
		adv, err := a.Adventures.Create(ctx, sadventure.CreateParams{
			StoryID: in.Parent, Title: in.Title, Description: in.Description, Index: in.Index, Active: in.Active,
		})
		if err != nil {
			return row{}, err
		}
		return row{ID: adv.ID, Parent: adv.StoryID, Title: adv.Title, Placement: adv.Placement, Value: *adv}, nil
	},
	update: func(ctx context.Context, a *App, id idwrap.IDWrap, in updateInput) (row, error) {
		adv, err := a.Adventures.Update(ctx, id, sadventure.UpdateParams{
			StoryID: in.Parent, Title: in.Title, Description: in.Description, Index: in.Index, Active: in.Active,
		})
		if err != nil {
			return row{}, err
		}
		return row{ID: adv.ID, Parent: adv.StoryID, Title: adv.Title, Placement: adv.Placement, Value: *adv}, nil
	},
	delete: func(ctx context.Context, a *App, id idwrap.IDWrap) error {
		return a.Adventures.Delete(ctx, id)
	},
}

var questEntity = entity{
	name:     "quest",
	parent:   "adventure",
	hasImage: true,
	list: func(ctx context.Context, a *App, parent *idwrap.IDWrap) ([]row, error) {
		var (
			quests []mquest.Quest
			err    error
		)
		if parent != nil {
			quests, err = a.Quests.List(ctx, *parent)
		} else {
			quests, err = a.Quests.ListAll(ctx)
		}
		if err != nil {
			return nil, err
		}
		rows := make([]row, len(quests))
		for i, q := range quests {
			rows[i] = row{ID: q.ID, Parent: q.AdventureID, Title: q.Title, Placement: q.Placement, Value: q}
		}
		return rows, nil
	},
	create: func(ctx context.Context, a *App, in createInput) (row, error) {
		q, err := a.Quests.Create(ctx, squest.CreateParams{
			AdventureID: in.Parent, Title: in.Title, Description: in.Description, ImageName: in.ImageName,
			Index: in.Index, Active: in.Active,
		})
		if err != nil {
			return row{}, err
		}
		return row{ID: q.ID, Parent: q.AdventureID, Title: q.Title, Placement: q.Placement, Value: *q}, nil
	},
	update: func(ctx context.Context, a *App, id idwrap.IDWrap, in updateInput) (row, error) {
		q, err := a.Quests.Update(ctx, id, squest.UpdateParams{
			AdventureID: in.Parent, Title: in.Title, Description: in.Description, ImageName: in.ImageName,
			Index: in.Index, Active: in.Active,
		})
		if err != nil {
			return row{}, err
		}
		return row{ID: q.ID, Parent: q.AdventureID, Title: q.Title, Placement: q.Placement, Value: *q}, nil
	},
	delete: func(ctx context.Context, a *App, id idwrap.IDWrap) error {
		return a.Quests.Delete(ctx, id)
	},
}

var entities = map[string]*entity{
	storyEntity.name:     &storyEntity,
	adventureEntity.name: &adventureEntity,
	questEntity.name:     &questEntity,
}

// resolve turns a ULID or a title into a record id of e.
func (e *entity) resolve(ctx context.Context, a *App, ref string) (idwrap.IDWrap, error) {
	if id, err := idwrap.NewText(ref); err == nil {
		return id, nil
	}
	rows, err := e.list(ctx, a, nil)
	if err != nil {
		return idwrap.IDWrap{}, err
	}
	titles := make([]string, len(rows))
	for i, r := range rows {
		titles[i] = r.Title
	}
	i, err := matchTitle(titles, ref)
	if err != nil {
		return idwrap.IDWrap{}, fmt.Errorf("%s: %w", e.name, err)
	}
	return rows[i].ID, nil
}
