package mutation

import "github.com/the-dev-tools/storyline/pkg/idwrap"

// EntityType identifies the type of entity being mutated.
type EntityType uint16

const (
	EntityStory EntityType = iota
	EntityAdventure
	EntityQuest
)

func (e EntityType) String() string {
	switch e {
	case EntityStory:
		return "story"
	case EntityAdventure:
		return "adventure"
	case EntityQuest:
		return "quest"
	default:
		return "unknown"
	}
}

// Operation identifies the type of mutation.
type Operation uint8

const (
	OpInsert Operation = iota
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event represents a single mutation event.
// Events are collected during a mutation transaction and published on commit.
type Event struct {
	Entity   EntityType
	Op       Operation
	ID       idwrap.IDWrap
	ParentID idwrap.IDWrap // zero for stories
	Payload  any           // the entity after insert or update
}
