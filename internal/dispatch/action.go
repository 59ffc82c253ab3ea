// Package dispatch routes command requests to an execution strategy.
package dispatch

// Action is the kind of execution a request asks for.
type Action int

// Actions. ActionInvalid is the catch-all for any unrecognized name.
const (
	ActionInvalid Action = iota
	ActionOpen
	ActionShell
)

// ParseAction maps a wire action name to an Action. Matching is exact and
// case-sensitive; every other string is ActionInvalid.
func ParseAction(s string) Action {
	switch s {
	case "open":
		return ActionOpen
	case "shell":
		return ActionShell
	default:
		return ActionInvalid
	}
}

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionShell:
		return "shell"
	default:
		return "invalid"
	}
}
