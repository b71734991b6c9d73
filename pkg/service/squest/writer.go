package squest

import (
	"context"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/model/mquest"
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

func (w *Writer) Create(ctx context.Context, q mquest.Quest) error {
	return w.queries.CreateQuest(ctx, gen.CreateQuestParams(ConvertToDBQuest(q)))
}

func (w *Writer) Update(ctx context.Context, q mquest.Quest) error {
	dbQuest := ConvertToDBQuest(q)
	return w.queries.UpdateQuest(ctx, gen.UpdateQuestParams{
		AdventureID: dbQuest.AdventureID,
		Title:       dbQuest.Title,
		Description: dbQuest.Description,
		ImageName:   dbQuest.ImageName,
		QuestNum:    dbQuest.QuestNum,
		Active:      dbQuest.Active,
		UpdatedAt:   dbQuest.UpdatedAt,
		ID:          dbQuest.ID,
	})
}

// Delete removes a quest row and reports whether it existed.
func (w *Writer) Delete(ctx context.Context, id idwrap.IDWrap) (bool, error) {
	n, err := w.queries.DeleteQuest(ctx, id)
	return n > 0, err
}
