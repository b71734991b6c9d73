package squest

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/mquest"
)

type Reader struct {
	queries *gen.Queries
	logger  *slog.Logger
}

func NewReader(db *sql.DB, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		queries: gen.New(db),
		logger:  logger,
	}
}

func NewReaderFromQueries(queries *gen.Queries, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		queries: queries,
		logger:  logger,
	}
}

func (r *Reader) Get(ctx context.Context, id idwrap.IDWrap) (*mquest.Quest, error) {
	q, err := r.queries.GetQuest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.DebugContext(ctx, "quest not found", "quest_id", id.String())
			return nil, notFound(id)
		}
		return nil, err
	}
	return ConvertToModelQuest(q)
}

func (r *Reader) List(ctx context.Context, adventureID idwrap.IDWrap) ([]mquest.Quest, error) {
	rows, err := r.queries.ListQuestsByAdventure(ctx, adventureID)
	if err != nil {
		return nil, err
	}
	return convertAll(rows)
}

func (r *Reader) ListAll(ctx context.Context) ([]mquest.Quest, error) {
	rows, err := r.queries.ListQuests(ctx)
	if err != nil {
		return nil, err
	}
	return convertAll(rows)
}

func (r *Reader) adventureExists(ctx context.Context, adventureID idwrap.IDWrap) (bool, error) {
	_, err := r.queries.GetAdventure(ctx, adventureID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
