package ordering

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

// Group identifies a sibling group: every record under one parent, or every
// record of an ungrouped entity.
type Group struct {
	parent idwrap.IDWrap
	scoped bool
}

// Global is the single group of an entity without a parent column.
func Global() Group {
	return Group{}
}

func Under(parent idwrap.IDWrap) Group {
	return Group{parent: parent, scoped: true}
}

func (g Group) Parent() (idwrap.IDWrap, bool) {
	return g.parent, g.scoped
}

func (g Group) IsGlobal() bool {
	return !g.scoped
}

func (g Group) Equal(other Group) bool {
	return g.scoped == other.scoped && g.parent.Equal(other.parent)
}

func (g Group) String() string {
	if !g.scoped {
		return "global"
	}
	return g.parent.String()
}

// Placement is the position state of one record. An excluded record never
// has an index and an included one always has.
type Placement struct {
	active bool
	index  int64
}

func Excluded() Placement {
	return Placement{}
}

// At is an included placement at the 1-based index i.
func At(i int64) Placement {
	return Placement{active: true, index: i}
}

// FromColumns rebuilds a placement from its stored columns. Rows whose
// columns disagree with each other are reported as invariant violations.
func FromColumns(active bool, index sql.NullInt64) (Placement, error) {
	switch {
	case active && index.Valid && index.Int64 >= 1:
		return At(index.Int64), nil
	case !active && !index.Valid:
		return Excluded(), nil
	case active:
		return Placement{}, fmt.Errorf("%w: active record without a valid index", ErrInvariantViolation)
	default:
		return Placement{}, fmt.Errorf("%w: inactive record with index %d", ErrInvariantViolation, index.Int64)
	}
}

func (p Placement) Active() bool {
	return p.active
}

func (p Placement) Index() (int64, bool) {
	return p.index, p.active
}

func (p Placement) NullIndex() sql.NullInt64 {
	if !p.active {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: p.index, Valid: true}
}

// IndexPtr returns nil for an excluded placement.
func (p Placement) IndexPtr() *int64 {
	if !p.active {
		return nil
	}
	i := p.index
	return &i
}

func (p Placement) String() string {
	if !p.active {
		return "excluded"
	}
	return fmt.Sprintf("#%d", p.index)
}

type placementJSON struct {
	Active bool   `json:"active"`
	Index  *int64 `json:"index"`
}

func (p Placement) MarshalJSON() ([]byte, error) {
	return json.Marshal(placementJSON{Active: p.active, Index: p.IndexPtr()})
}

func (p *Placement) UnmarshalJSON(data []byte) error {
	var raw placementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var index sql.NullInt64
	if raw.Index != nil {
		index = sql.NullInt64{Int64: *raw.Index, Valid: true}
	}
	placement, err := FromColumns(raw.Active, index)
	if err != nil {
		return err
	}
	*p = placement
	return nil
}

// Member is a record as seen by the engine.
type Member struct {
	ID        idwrap.IDWrap
	Group     Group
	Placement Placement
}

// Request is the placement a caller asks for. A nil Index on an active
// request means "append" for records entering the group and "stay" for
// records already in it.
type Request struct {
	Active bool
	Index  *int64
}

func Append() Request {
	return Request{Active: true}
}

func InsertAt(i int64) Request {
	return Request{Active: true, Index: &i}
}

func Exclude() Request {
	return Request{}
}
