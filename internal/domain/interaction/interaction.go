package interaction

import (
	"fmt"
	"time"
)

// Type is the kind of user action on a prompt.
type Type string

// Interaction types.
const (
	Viewed         Type = "viewed"
	Starred        Type = "starred"
	Forked         Type = "forked"
	UsedAsTemplate Type = "used_as_template"
)

// Types lists every interaction type in a fixed order.
var Types = []Type{Viewed, Starred, Forked, UsedAsTemplate}

var weights = map[Type]float64{
	Viewed:         1,
	Starred:        3,
	Forked:         5,
	UsedAsTemplate: 4,
}

// Counter is the prompt counter column bumped by an interaction.
type Counter string

// Counter columns. CounterNone means the type has no counter.
const (
	CounterNone  Counter = ""
	CounterViews Counter = "view_count"
	CounterForks Counter = "fork_count"
	CounterUses  Counter = "use_count"
)

// ParseType validates a raw interaction type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid interaction type: %q", s)
	}
	return t, nil
}

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	_, ok := weights[t]
	return ok
}

// Weight returns the interest weight of the type, 0 for unknown types.
func (t Type) Weight() float64 { return weights[t] }

// Counter returns the prompt counter this type increments.
func (t Type) Counter() Counter {
	switch t {
	case Viewed:
		return CounterViews
	case Forked:
		return CounterForks
	case UsedAsTemplate:
		return CounterUses
	default:
		return CounterNone
	}
}

// Interaction is one (user, prompt, type) row. Repeats refresh At.
type Interaction struct {
	UserID   string
	PromptID string
	Type     Type
	At       time.Time
}

// New validates and creates an Interaction.
func New(userID, promptID string, t Type, at time.Time) (Interaction, error) {
	if userID == "" {
		return Interaction{}, fmt.Errorf("user is required")
	}
	if promptID == "" {
		return Interaction{}, fmt.Errorf("prompt ID is required")
	}
	if !t.IsValid() {
		return Interaction{}, fmt.Errorf("invalid interaction type: %q", t)
	}
	return Interaction{UserID: userID, PromptID: promptID, Type: t, At: at}, nil
}

// Signal is an interaction joined to its prompt's embedding. Embedding is nil
// when the prompt has not been embedded yet.
type Signal struct {
	PromptID  string
	Type      Type
	At        time.Time
	Embedding []float32
}

// Count is the number of interactions of one type on one prompt in a window.
type Count struct {
	PromptID string
	Type     Type
	N        int64
}
