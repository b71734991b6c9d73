package sstory

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/the-dev-tools/storyline/pkg/dbtime"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/mstory"
	"github.com/the-dev-tools/storyline/pkg/mutation"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

var ErrNoStoryFound = errors.New("story not found")

func notFound(id idwrap.IDWrap) error {
	return errmap.Wrap(errmap.CodeNotFound, ErrNoStoryFound, "%s", id).WithEntity(mstory.Entity)
}

type CreateParams struct {
	Title       string
	Description string
	// Index is the 1-based position to insert at; nil appends.
	Index *int64
	// Active defaults to true.
	Active *bool
}

// UpdateParams leaves every nil field unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Index       *int64
	Active      *bool
}

// Service mutates stories. Every call is one transaction covering the
// ordering shifts, the record write and the invariant check.
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
		return errmap.New(errmap.CodeValidation, "title is required").WithEntity(mstory.Entity)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id idwrap.IDWrap) (*mstory.Story, error) {
	return NewReader(s.db, s.logger).Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]mstory.Story, error) {
	return NewReader(s.db, s.logger).List(ctx)
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*mstory.Story, error) {
	if err := validateTitle(p.Title); err != nil {
		return nil, err
	}

	story := mstory.Story{
		ID:          idwrap.NewNow(),
		Title:       p.Title,
		Description: p.Description,
	}
	req := ordering.Request{Active: p.Active == nil || *p.Active, Index: p.Index}

	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		placement, err := engine.Insert(ctx, story.ID, ordering.Global(), req)
		if err != nil {
			return err
		}

		now := dbtime.DBNow()
		story.Placement = placement
		story.Created, story.Updated = now, now
		if err := NewWriterFromQueries(mc.Queries()).Create(ctx, story); err != nil {
			return engine.Classify(err)
		}
		if err := engine.Verify(ctx, ordering.Global()); err != nil {
			return err
		}

		mc.Track(mutation.Event{Entity: mutation.EntityStory, Op: mutation.OpInsert, ID: story.ID, Payload: story})
		return nil
	}, s.options()...)
	if err != nil {
		return nil, errmap.Map(err)
	}

	s.logger.DebugContext(ctx, "story created", "story_id", story.ID.String(), "placement", story.Placement.String())
	return &story, nil
}

func (s *Service) Update(ctx context.Context, id idwrap.IDWrap, p UpdateParams) (*mstory.Story, error) {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return nil, err
		}
	}

	var updated mstory.Story
	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		current, err := NewReaderFromQueries(mc.Queries(), s.logger).Get(ctx, id)
		if err != nil {
			return engine.Classify(err)
		}

		req := ordering.Request{Active: current.Active(), Index: p.Index}
		if p.Active != nil {
			req.Active = *p.Active
		}
		placement, err := engine.Reposition(ctx, ordering.Member{
			ID:        current.ID,
			Group:     ordering.Global(),
			Placement: current.Placement,
		}, req)
		if err != nil {
			return err
		}

		updated = *current
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
		if err := engine.Verify(ctx, ordering.Global()); err != nil {
			return err
		}

		mc.Track(mutation.Event{Entity: mutation.EntityStory, Op: mutation.OpUpdate, ID: updated.ID, Payload: updated})
		return nil
	}, s.options()...)
	if err != nil {
		return nil, errmap.Map(err)
	}
	return &updated, nil
}

// Delete removes a story together with its adventures and their quests.
// Only the remaining stories are renumbered.
func (s *Service) Delete(ctx context.Context, id idwrap.IDWrap) error {
	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		current, err := NewReaderFromQueries(mc.Queries(), s.logger).Get(ctx, id)
		if err != nil {
			return engine.Classify(err)
		}

		if err := engine.Remove(ctx, ordering.Member{
			ID:        current.ID,
			Group:     ordering.Global(),
			Placement: current.Placement,
		}); err != nil {
			return err
		}
		if _, err := mc.DeleteStory(ctx, id); err != nil {
			return engine.Classify(err)
		}
		return engine.Verify(ctx, ordering.Global())
	}, s.options()...)
	return errmap.Map(err)
}
