package mcp

// StateInput has no parameters.
type StateInput struct{}

// StateOutput carries the daemon's full state snapshot as JSON.
type StateOutput struct {
	State string `json:"state" jsonschema:"required,JSON snapshot of displays and window trees"`
}

type FocusInput struct {
	Direction string `json:"direction" jsonschema:"required,Direction to move focus: left right up or down"`
}

type MoveWindowInput struct {
	Direction string `json:"direction" jsonschema:"required,Direction to move the focused window: left right up or down"`
}

type SplitInput struct {
	Orientation string `json:"orientation" jsonschema:"required,Split orientation: vertical places windows side by side and horizontal stacks them"`
}

type ResizeInput struct {
	Direction string  `json:"direction" jsonschema:"required,Edge to push: left right up or down"`
	Delta     float64 `json:"delta,omitempty" jsonschema:"Share of the parent split to transfer (default: the daemon's configured step). Negative shrinks."`
}

type SwitchDisplayInput struct {
	Display int `json:"display" jsonschema:"required,Logical display number 0-9"`
}

type MoveToDisplayInput struct {
	Display int `json:"display" jsonschema:"required,Logical display number 0-9 to move the focused window to"`
}

// OpenTerminalInput has no parameters.
type OpenTerminalInput struct{}

// ActionOutput is the common result for commands that change state.
type ActionOutput struct {
	Status string `json:"status" jsonschema:"required,ok when the command was accepted"`
}
