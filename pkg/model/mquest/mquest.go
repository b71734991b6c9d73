package mquest

import (
	"time"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

const Entity = "quest"

// Quest belongs to an adventure and is ordered among that adventure's
// quests.
type Quest struct {
	ID          idwrap.IDWrap      `json:"id"`
	AdventureID idwrap.IDWrap      `json:"adventure_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	ImageName   string             `json:"image_name"`
	Placement   ordering.Placement `json:"placement"`
	Created     time.Time          `json:"created_at"`
	Updated     time.Time          `json:"updated_at"`
}

func (q Quest) Num() *int64 {
	return q.Placement.IndexPtr()
}

func (q Quest) Active() bool {
	return q.Placement.Active()
}

func (q Quest) Group() ordering.Group {
	return ordering.Under(q.AdventureID)
}
