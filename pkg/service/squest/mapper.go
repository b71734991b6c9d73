package squest

import (
	"time"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/model/mquest"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

func ConvertToDBQuest(q mquest.Quest) gen.Quest {
	return gen.Quest{
		ID:          q.ID,
		AdventureID: q.AdventureID,
		Title:       q.Title,
		Description: q.Description,
		ImageName:   q.ImageName,
		QuestNum:    q.Placement.NullIndex(),
		Active:      q.Placement.Active(),
		CreatedAt:   q.Created.UnixMilli(),
		UpdatedAt:   q.Updated.UnixMilli(),
	}
}

func ConvertToModelQuest(q gen.Quest) (*mquest.Quest, error) {
	placement, err := ordering.FromColumns(q.Active, q.QuestNum)
	if err != nil {
		return nil, err
	}
	return &mquest.Quest{
		ID:          q.ID,
		AdventureID: q.AdventureID,
		Title:       q.Title,
		Description: q.Description,
		ImageName:   q.ImageName,
		Placement:   placement,
		Created:     time.UnixMilli(q.CreatedAt).UTC(),
		Updated:     time.UnixMilli(q.UpdatedAt).UTC(),
	}, nil
}

func convertAll(rows []gen.Quest) ([]mquest.Quest, error) {
	result := make([]mquest.Quest, 0, len(rows))
	for _, row := range rows {
		q, err := ConvertToModelQuest(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *q)
	}
	return result, nil
}
