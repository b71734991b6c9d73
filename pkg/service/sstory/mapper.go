package sstory

import (
	"time"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/model/mstory"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

func ConvertToDBStory(story mstory.Story) gen.Story {
	return gen.Story{
		ID:          story.ID,
		Title:       story.Title,
		Description: story.Description,
		StoryNum:    story.Placement.NullIndex(),
		Active:      story.Placement.Active(),
		CreatedAt:   story.Created.UnixMilli(),
		UpdatedAt:   story.Updated.UnixMilli(),
	}
}

func ConvertToModelStory(story gen.Story) (*mstory.Story, error) {
	placement, err := ordering.FromColumns(story.Active, story.StoryNum)
	if err != nil {
		return nil, err
	}
	return &mstory.Story{
		ID:          story.ID,
		Title:       story.Title,
		Description: story.Description,
		Placement:   placement,
		Created:     time.UnixMilli(story.CreatedAt).UTC(),
		Updated:     time.UnixMilli(story.UpdatedAt).UTC(),
	}, nil
}
