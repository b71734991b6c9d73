package sadventure

import (
	"context"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/model/madventure"
)

type Writer struct {
	queries *gen.Queries
}

func NewWriter(tx gen.DBTX) *Writer {
	return &Writer{
		queries: gen.New(tx),
	}
}

func NewWriterFromQueries(queries *gen.Queries) *Writer {
	return &Writer{
		queries: queries,
	}
}

func (w *Writer) Create(ctx context.Context, adv madventure.Adventure) error {
	return w.queries.CreateAdventure(ctx, gen.CreateAdventureParams(ConvertToDBAdventure(adv)))
}

func (w *Writer) Update(ctx context.Context, adv madventure.Adventure) error {
	dbAdv := ConvertToDBAdventure(adv)
	return w.queries.UpdateAdventure(ctx, gen.UpdateAdventureParams{
		StoryID:      dbAdv.StoryID,
		Title:        dbAdv.Title,
		Description:  dbAdv.Description,
		AdventureNum: dbAdv.AdventureNum,
		Active:       dbAdv.Active,
		UpdatedAt:    dbAdv.UpdatedAt,
		ID:           dbAdv.ID,
	})
}
