package sadventure

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/the-dev-tools/storyline/pkg/dbtime"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/madventure"
	"github.com/the-dev-tools/storyline/pkg/mutation"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

var (
	ErrNoAdventureFound = errors.New("adventure not found")
	ErrUnknownStory     = errors.New("story does not exist")
)

func notFound(id idwrap.IDWrap) error {
	return errmap.Wrap(errmap.CodeNotFound, ErrNoAdventureFound, "%s", id).WithEntity(madventure.Entity)
}

type CreateParams struct {
	StoryID     idwrap.IDWrap
	Title       string
	Description string
	Index       *int64
	Active      *bool
}

// UpdateParams leaves every nil field unchanged. A new StoryID moves the
// adventure to the end of that story unless Index says otherwise.
type UpdateParams struct {
	StoryID     *idwrap.IDWrap
	Title       *string
	Description *string
	Index       *int64
	Active      *bool
}

type Service struct {
	db        *sql.DB
	engine    *ordering.Engine
	publisher mutation.Publisher
	logger    *slog.Logger
}

func New(db *sql.DB, desc ordering.Descriptor, publisher mutation.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:        db,
		engine:    ordering.NewSQL(desc, db, logger),
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) options() []mutation.Option {
	return []mutation.Option{mutation.WithPublisher(s.publisher), mutation.WithLogger(s.logger)}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errmap.New(errmap.CodeValidation, "title is required").WithEntity(madventure.Entity)
	}
	return nil
}

func checkStory(ctx context.Context, r *Reader, storyID idwrap.IDWrap) error {
	if storyID.IsZero() {
		return errmap.New(errmap.CodeValidation, "story is required").WithEntity(madventure.Entity)
	}
	ok, err := r.storyExists(ctx, storyID)
	if err != nil {
		return err
	}
	if !ok {
		return errmap.Wrap(errmap.CodeValidation, ErrUnknownStory, "%s", storyID).WithEntity(madventure.Entity)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id idwrap.IDWrap) (*madventure.Adventure, error) {
	return NewReader(s.db, s.logger).Get(ctx, id)
}

func (s *Service) List(ctx context.Context, storyID idwrap.IDWrap) ([]madventure.Adventure, error) {
	return NewReader(s.db, s.logger).List(ctx, storyID)
}

func (s *Service) ListAll(ctx context.Context) ([]madventure.Adventure, error) {
	return NewReader(s.db, s.logger).ListAll(ctx)
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*madventure.Adventure, error) {
	if err := validateTitle(p.Title); err != nil {
		return nil, err
	}

	adv := madventure.Adventure{
		ID:          idwrap.NewNow(),
		StoryID:     p.StoryID,
		Title:       p.Title,
		Description: p.Description,
	}
	req := ordering.Request{Active: p.Active == nil || *p.Active, Index: p.Index}

	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		if err := checkStory(ctx, NewReaderFromQueries(mc.Queries(), s.logger), p.StoryID); err != nil {
			return engine.Classify(err)
		}

		placement, err := engine.Insert(ctx, adv.ID, adv.Group(), req)
		if err != nil {
			return err
		}

		now := dbtime.DBNow()
		adv.Placement = placement
		adv.Created, adv.Updated = now, now
		if err := NewWriterFromQueries(mc.Queries()).Create(ctx, adv); err != nil {
			return engine.Classify(err)
		}
		if err := engine.Verify(ctx, adv.Group()); err != nil {
			return err
		}

		mc.Track(mutation.Event{
			Entity:   mutation.EntityAdventure,
			Op:       mutation.OpInsert,
			ID:       adv.ID,
			ParentID: adv.StoryID,
			Payload:  adv,
		})
		return nil
	}, s.options()...)
	if err != nil {
		return nil, errmap.Map(err)
	}

	s.logger.DebugContext(ctx, "adventure created",
		"adventure_id", adv.ID.String(), "story_id", adv.StoryID.String(), "placement", adv.Placement.String())
	return &adv, nil
}

func (s *Service) Update(ctx context.Context, id idwrap.IDWrap, p UpdateParams) (*madventure.Adventure, error) {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return nil, err
		}
	}

	var updated madventure.Adventure
	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		reader := NewReaderFromQueries(mc.Queries(), s.logger)
		current, err := reader.Get(ctx, id)
		if err != nil {
			return engine.Classify(err)
		}

		updated = *current
		if p.StoryID != nil && !p.StoryID.Equal(current.StoryID) {
			if err := checkStory(ctx, reader, *p.StoryID); err != nil {
				return engine.Classify(err)
			}
			updated.StoryID = *p.StoryID
		}

		req := ordering.Request{Active: current.Active(), Index: p.Index}
		if p.Active != nil {
			req.Active = *p.Active
		}
		member := ordering.Member{ID: current.ID, Group: current.Group(), Placement: current.Placement}

		var placement ordering.Placement
		if updated.StoryID.Equal(current.StoryID) {
			placement, err = engine.Reposition(ctx, member, req)
		} else {
			placement, err = engine.Regroup(ctx, member, updated.Group(), req)
		}
		if err != nil {
			return err
		}

		if p.Title != nil {
			updated.Title = *p.Title
		}
		if p.Description != nil {
			updated.Description = *p.Description
		}
		updated.Placement = placement
		updated.Updated = dbtime.DBNow()
		if err := NewWriterFromQueries(mc.Queries()).Update(ctx, updated); err != nil {
			return engine.Classify(err)
		}

		if err := engine.Verify(ctx, updated.Group()); err != nil {
			return err
		}
		if !updated.StoryID.Equal(current.StoryID) {
			if err := engine.Verify(ctx, current.Group()); err != nil {
				return err
			}
		}

		mc.Track(mutation.Event{
			Entity:   mutation.EntityAdventure,
			Op:       mutation.OpUpdate,
			ID:       updated.ID,
			ParentID: updated.StoryID,
			Payload:  updated,
		})
		return nil
	}, s.options()...)
	if err != nil {
		return nil, errmap.Map(err)
	}
	return &updated, nil
}

// Delete removes an adventure and its quests and closes the gap among the
// story's remaining adventures.
func (s *Service) Delete(ctx context.Context, id idwrap.IDWrap) error {
	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		current, err := NewReaderFromQueries(mc.Queries(), s.logger).Get(ctx, id)
		if err != nil {
			return engine.Classify(err)
		}

		if err := engine.Remove(ctx, ordering.Member{
			ID:        current.ID,
			Group:     current.Group(),
			Placement: current.Placement,
		}); err != nil {
			return err
		}
		if _, err := mc.DeleteAdventure(ctx, id, current.StoryID); err != nil {
			return engine.Classify(err)
		}
		return engine.Verify(ctx, current.Group())
	}, s.options()...)
	return errmap.Map(err)
}
