package madventure

import (
	"time"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

const Entity = "adventure"

// Adventure belongs to a story and is ordered among that story's adventures.
type Adventure struct {
	ID          idwrap.IDWrap      `json:"id"`
	StoryID     idwrap.IDWrap      `json:"story_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Placement   ordering.Placement `json:"placement"`
	Created     time.Time          `json:"created_at"`
	Updated     time.Time          `json:"updated_at"`
}

func (a Adventure) Num() *int64 {
	return a.Placement.IndexPtr()
}

func (a Adventure) Active() bool {
	return a.Placement.Active()
}

func (a Adventure) Group() ordering.Group {
	return ordering.Under(a.StoryID)
}
