package part

import "fmt"

// CycleState is the lifecycle stage of a part revision.
type CycleState string

const (
	CycleEdition   CycleState = "EDITION"
	CycleRelease   CycleState = "RELEASE"
	CycleObsolete  CycleState = "OBSOLETE"
	CycleCancelled CycleState = "CANCELLED"
)

// cycleTransitions lists the legal next states. Edition may be released or
// cancelled; a release may only become obsolete. Obsolete and Cancelled
// are terminal.
var cycleTransitions = map[CycleState][]CycleState{
	CycleEdition:   {CycleRelease, CycleCancelled},
	CycleRelease:   {CycleObsolete},
	CycleObsolete:  {},
	CycleCancelled: {},
}

// InvalidCycleTransitionError reports an illegal lifecycle change.
type InvalidCycleTransitionError struct {
	From CycleState
	To   CycleState
}

func (e *InvalidCycleTransitionError) Error() string {
	return fmt.Sprintf("part: illegal cycle transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether from -> to is a legal cycle change.
func (from CycleState) CanTransition(to CycleState) bool {
	for _, next := range cycleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// validateTransition returns an InvalidCycleTransitionError unless
// from -> to is legal.
func validateTransition(from, to CycleState) error {
	if !from.CanTransition(to) {
		return &InvalidCycleTransitionError{From: from, To: to}
	}
	return nil
}
