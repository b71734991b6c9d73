package squest

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/the-dev-tools/storyline/pkg/dbtime"
	"github.com/the-dev-tools/storyline/pkg/errmap"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/mquest"
	"github.com/the-dev-tools/storyline/pkg/mutation"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

var (
	ErrNoQuestFound     = errors.New("quest not found")
	ErrUnknownAdventure = errors.New("adventure does not exist")
)

func notFound(id idwrap.IDWrap) error {
	return errmap.Wrap(errmap.CodeNotFound, ErrNoQuestFound, "%s", id).WithEntity(mquest.Entity)
}

type CreateParams struct {
	AdventureID idwrap.IDWrap
	Title       string
	Description string
	ImageName   string
	Index       *int64
	Active      *bool
}

type UpdateParams struct {
	AdventureID *idwrap.IDWrap
	Title       *string
	Description *string
	ImageName   *string
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
		return errmap.New(errmap.CodeValidation, "title is required").WithEntity(mquest.Entity)
	}
	return nil
}

func checkAdventure(ctx context.Context, r *Reader, adventureID idwrap.IDWrap) error {
	if adventureID.IsZero() {
		return errmap.New(errmap.CodeValidation, "adventure is required").WithEntity(mquest.Entity)
	}
	ok, err := r.adventureExists(ctx, adventureID)
	if err != nil {
		return err
	}
	if !ok {
		return errmap.Wrap(errmap.CodeValidation, ErrUnknownAdventure, "%s", adventureID).WithEntity(mquest.Entity)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id idwrap.IDWrap) (*mquest.Quest, error) {
	return NewReader(s.db, s.logger).Get(ctx, id)
}

func (s *Service) List(ctx context.Context, adventureID idwrap.IDWrap) ([]mquest.Quest, error) {
	return NewReader(s.db, s.logger).List(ctx, adventureID)
}

func (s *Service) ListAll(ctx context.Context) ([]mquest.Quest, error) {
	return NewReader(s.db, s.logger).ListAll(ctx)
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*mquest.Quest, error) {
	if err := validateTitle(p.Title); err != nil {
		return nil, err
	}

	quest := mquest.Quest{
		ID:          idwrap.NewNow(),
		AdventureID: p.AdventureID,
		Title:       p.Title,
		Description: p.Description,
		ImageName:   p.ImageName,
	}
	req := ordering.Request{Active: p.Active == nil || *p.Active, Index: p.Index}

	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		if err := checkAdventure(ctx, NewReaderFromQueries(mc.Queries(), s.logger), p.AdventureID); err != nil {
			return engine.Classify(err)
		}

		placement, err := engine.Insert(ctx, quest.ID, quest.Group(), req)
		if err != nil {
			return err
		}

		now := dbtime.DBNow()
		quest.Placement = placement
		quest.Created, quest.Updated = now, now
		if err := NewWriterFromQueries(mc.Queries()).Create(ctx, quest); err != nil {
			return engine.Classify(err)
		}
		if err := engine.Verify(ctx, quest.Group()); err != nil {
			return err
		}

		mc.Track(mutation.Event{
			Entity:   mutation.EntityQuest,
			Op:       mutation.OpInsert,
			ID:       quest.ID,
			ParentID: quest.AdventureID,
			Payload:  quest,
		})
		return nil
	}, s.options()...)
	if err != nil {
		return nil, errmap.Map(err)
	}

	s.logger.DebugContext(ctx, "quest created",
		"quest_id", quest.ID.String(), "adventure_id", quest.AdventureID.String(), "placement", quest.Placement.String())
	return &quest, nil
}

func (s *Service) Update(ctx context.Context, id idwrap.IDWrap, p UpdateParams) (*mquest.Quest, error) {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return nil, err
		}
	}

	var updated mquest.Quest
	err := mutation.Do(ctx, s.db, func(mc *mutation.Context) error {
		engine := s.engine.TX(mc.TX())
		reader := NewReaderFromQueries(mc.Queries(), s.logger)
		current, err := reader.Get(ctx, id)
		if err != nil {
			return engine.Classify(err)
		}

		updated = *current
		if p.AdventureID != nil && !p.AdventureID.Equal(current.AdventureID) {
			if err := checkAdventure(ctx, reader, *p.AdventureID); err != nil {
				return engine.Classify(err)
			}
			updated.AdventureID = *p.AdventureID
		}
		moved := !updated.AdventureID.Equal(current.AdventureID)

		req := ordering.Request{Active: current.Active(), Index: p.Index}
		if p.Active != nil {
			req.Active = *p.Active
		}
		member := ordering.Member{ID: current.ID, Group: current.Group(), Placement: current.Placement}

		var placement ordering.Placement
		if moved {
			placement, err = engine.Regroup(ctx, member, updated.Group(), req)
		} else {
			placement, err = engine.Reposition(ctx, member, req)
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
		if p.ImageName != nil {
			updated.ImageName = *p.ImageName
		}
		updated.Placement = placement
		updated.Updated = dbtime.DBNow()
		if err := NewWriterFromQueries(mc.Queries()).Update(ctx, updated); err != nil {
			return engine.Classify(err)
		}

		if err := engine.Verify(ctx, updated.Group()); err != nil {
			return err
		}
		if moved {
			if err := engine.Verify(ctx, current.Group()); err != nil {
				return err
			}
		}

		mc.Track(mutation.Event{
			Entity:   mutation.EntityQuest,
			Op:       mutation.OpUpdate,
			ID:       updated.ID,
			ParentID: updated.AdventureID,
			Payload:  updated,
		})
		return nil
	}, s.options()...)
	if err != nil {
		return nil, errmap.Map(err)
	}
	return &updated, nil
}

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
		if _, err := NewWriterFromQueries(mc.Queries()).Delete(ctx, id); err != nil {
			return engine.Classify(err)
		}
		if err := engine.Verify(ctx, current.Group()); err != nil {
			return err
		}

		mc.Track(mutation.Event{
			Entity:   mutation.EntityQuest,
			Op:       mutation.OpDelete,
			ID:       current.ID,
			ParentID: current.AdventureID,
		})
		return nil
	}, s.options()...)
	return errmap.Map(err)
}
