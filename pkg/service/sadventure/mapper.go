package sadventure

import (
	"time"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/model/madventure"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

func ConvertToDBAdventure(adv madventure.Adventure) gen.Adventure {
	return gen.Adventure{
		ID:           adv.ID,
		StoryID:      adv.StoryID,
		Title:        adv.Title,
		Description:  adv.Description,
		AdventureNum: adv.Placement.NullIndex(),
		Active:       adv.Placement.Active(),
		CreatedAt:    adv.Created.UnixMilli(),
		UpdatedAt:    adv.Updated.UnixMilli(),
	}
}

func ConvertToModelAdventure(adv gen.Adventure) (*madventure.Adventure, error) {
	placement, err := ordering.FromColumns(adv.Active, adv.AdventureNum)
	if err != nil {
		return nil, err
	}
	return &madventure.Adventure{
		ID:          adv.ID,
		StoryID:     adv.StoryID,
		Title:       adv.Title,
		Description: adv.Description,
		Placement:   placement,
		Created:     time.UnixMilli(adv.CreatedAt).UTC(),
		Updated:     time.UnixMilli(adv.UpdatedAt).UTC(),
	}, nil
}

func convertAll(rows []gen.Adventure) ([]madventure.Adventure, error) {
	result := make([]madventure.Adventure, 0, len(rows))
	for _, row := range rows {
		adv, err := ConvertToModelAdventure(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *adv)
	}
	return result, nil
}
