package game

// Action is a lane-change request from a participant.
type Action uint8

const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
)

// ParseAction accepts the wire names "left" and "right".
func ParseAction(s string) (Action, bool) {
	switch s {
	case "left":
		return ActionLeft, true
	case "right":
		return ActionRight, true
	}
	return ActionNone, false
}

func (a Action) String() string {
	switch a {
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	}
	return "none"
}
