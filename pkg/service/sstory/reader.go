package sstory

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/mstory"
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

func (r *Reader) Get(ctx context.Context, id idwrap.IDWrap) (*mstory.Story, error) {
	story, err := r.queries.GetStory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.DebugContext(ctx, "story not found", "story_id", id.String())
			return nil, notFound(id)
		}
		return nil, err
	}
	return ConvertToModelStory(story)
}

// List returns every story by story_num, excluded stories last.
func (r *Reader) List(ctx context.Context) ([]mstory.Story, error) {
	stories, err := r.queries.ListStories(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]mstory.Story, 0, len(stories))
	for _, s := range stories {
		story, err := ConvertToModelStory(s)
		if err != nil {
			return nil, err
		}
		result = append(result, *story)
	}
	return result, nil
}
