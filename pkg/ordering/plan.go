package ordering

import "fmt"

// Shift moves every active sibling whose index lies in [From, To] by Delta.
// To == 0 leaves the range open ended.
type Shift struct {
	From  int64
	To    int64
	Delta int64
}

func (s Shift) contains(i int64) bool {
	return i >= s.From && (s.To == 0 || i <= s.To)
}

// Plan is the outcome of a planning step: the shifts to apply to the
// siblings and the placement the member ends with.
type Plan struct {
	Shifts    []Shift
	Placement Placement
}

// Apply returns the sibling indices after the plan's shifts. It is the in
// memory counterpart of what the store does.
func (p Plan) Apply(indices []int64) []int64 {
	out := make([]int64, len(indices))
	for i, idx := range indices {
		for _, s := range p.Shifts {
			if s.contains(idx) {
				idx += s.Delta
				break
			}
		}
		out[i] = idx
	}
	return out
}

func maxIndex(indices []int64) int64 {
	var max int64
	for _, i := range indices {
		if i > max {
			max = i
		}
	}
	return max
}

// checkRange validates a requested index against the active siblings of the
// member, the member itself excluded.
func checkRange(index int64, siblings int) error {
	upper := int64(siblings) + 1
	if index < 1 || index > upper {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPositionOutOfRange, index, upper)
	}
	return nil
}

// PlanInsert places a record entering a group whose active members hold
// siblings.
func PlanInsert(siblings []int64, req Request) (Plan, error) {
	if !req.Active {
		return Plan{Placement: Excluded()}, nil
	}
	if req.Index == nil {
		return Plan{Placement: At(maxIndex(siblings) + 1)}, nil
	}

	desired := *req.Index
	if err := checkRange(desired, len(siblings)); err != nil {
		return Plan{}, err
	}
	plan := Plan{Placement: At(desired)}
	if desired <= maxIndex(siblings) {
		plan.Shifts = []Shift{{From: desired, Delta: 1}}
	}
	return plan, nil
}

// PlanRemove closes the gap a record leaves behind.
func PlanRemove(current Placement) Plan {
	idx, ok := current.Index()
	if !ok {
		return Plan{Placement: Excluded()}
	}
	return Plan{
		Shifts:    []Shift{{From: idx + 1, Delta: -1}},
		Placement: Excluded(),
	}
}

// PlanMove transitions a record from current to req within its group.
func PlanMove(siblings []int64, current Placement, req Request) (Plan, error) {
	old, wasActive := current.Index()
	switch {
	case !wasActive:
		return PlanInsert(siblings, req)
	case !req.Active:
		return PlanRemove(current), nil
	case req.Index == nil || *req.Index == old:
		return Plan{Placement: current}, nil
	}

	desired := *req.Index
	if err := checkRange(desired, len(siblings)); err != nil {
		return Plan{}, err
	}
	plan := Plan{Placement: At(desired)}
	if old < desired {
		plan.Shifts = []Shift{{From: old + 1, To: desired, Delta: -1}}
	} else {
		plan.Shifts = []Shift{{From: desired, To: old - 1, Delta: 1}}
	}
	return plan, nil
}
