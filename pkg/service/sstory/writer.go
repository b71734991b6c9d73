package sstory

import (
	"context"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/model/mstory"
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

func (w *Writer) Create(ctx context.Context, story mstory.Story) error {
	return w.queries.CreateStory(ctx, gen.CreateStoryParams(ConvertToDBStory(story)))
}

func (w *Writer) Update(ctx context.Context, story mstory.Story) error {
	dbStory := ConvertToDBStory(story)
	return w.queries.UpdateStory(ctx, gen.UpdateStoryParams{
		Title:       dbStory.Title,
		Description: dbStory.Description,
		StoryNum:    dbStory.StoryNum,
		Active:      dbStory.Active,
		UpdatedAt:   dbStory.UpdatedAt,
		ID:          dbStory.ID,
	})
}
