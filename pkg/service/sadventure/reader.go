package sadventure

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/madventure"
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

func (r *Reader) Get(ctx context.Context, id idwrap.IDWrap) (*madventure.Adventure, error) {
	adv, err := r.queries.GetAdventure(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.DebugContext(ctx, "adventure not found", "adventure_id", id.String())
			return nil, notFound(id)
		}
		return nil, err
	}
	return ConvertToModelAdventure(adv)
}

// List returns the adventures of a story by adventure_num, excluded ones
// last.
func (r *Reader) List(ctx context.Context, storyID idwrap.IDWrap) ([]madventure.Adventure, error) {
	rows, err := r.queries.ListAdventuresByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return convertAll(rows)
}

func (r *Reader) ListAll(ctx context.Context) ([]madventure.Adventure, error) {
	rows, err := r.queries.ListAdventures(ctx)
	if err != nil {
		return nil, err
	}
	return convertAll(rows)
}

// storyExists reports whether the parent story is present.
func (r *Reader) storyExists(ctx context.Context, storyID idwrap.IDWrap) (bool, error) {
	_, err := r.queries.GetStory(ctx, storyID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
