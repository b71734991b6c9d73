package mstory

import (
	"time"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

const Entity = "story"

// Story is the top level of the storyline. Stories form one global sibling
// group.
type Story struct {
	ID          idwrap.IDWrap      `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Placement   ordering.Placement `json:"placement"`
	Created     time.Time          `json:"created_at"`
	Updated     time.Time          `json:"updated_at"`
}

// Num is the story_num column value, nil when the story is excluded.
func (s Story) Num() *int64 {
	return s.Placement.IndexPtr()
}

func (s Story) Active() bool {
	return s.Placement.Active()
}
