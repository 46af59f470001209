package persist

import "path"

// Action is what a rule does to a matching key.
type Action int

const (
	// ActionStore encodes the value by its type.
	ActionStore Action = iota
	// ActionSkip leaves the key out of the file.
	ActionSkip
	// ActionNone stores the none sentinel whatever the value.
	ActionNone
	// ActionTuple stores a numeric sequence that loads back as a Tuple.
	ActionTuple
	// ActionArray converts a list-like value to an array, keeping its element type.
	ActionArray
	// ActionFloatArray converts the value to a float64 array.
	ActionFloatArray
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionNone:
		return "none"
	case ActionTuple:
		return "tuple"
	case ActionArray:
		return "array"
	case ActionFloatArray:
		return "float-array"
	default:
		return "store"
	}
}

// Rule applies Action to keys matching Pattern (path.Match syntax). Rules
// match the key itself, not its full path, at every nesting level.
type Rule struct {
	Pattern string
	Action  Action
}

// DefaultRules is the rule table used unless WithRules replaces it.
var DefaultRules = []Rule{
	{"groups", ActionSkip},
	{"idx_tot", ActionSkip},
	{"ind_A", ActionSkip},
	{"Ab_epoch", ActionSkip},
	{"coordinates", ActionSkip},
	{"loaded_model", ActionSkip},
	{"optional_outputs", ActionSkip},
	{"merged_ROIs", ActionSkip},
	{"tf_in", ActionSkip},
	{"tf_out", ActionSkip},

	{"dview", ActionNone},

	{"dims", ActionTuple},
	{"medw", ActionTuple},
	{"sigma_smooth_snmf", ActionTuple},
	{"dxy", ActionTuple},
	{"max_shifts", ActionTuple},
	{"strides", ActionTuple},
	{"overlaps", ActionTuple},
	{"gSig", ActionTuple},

	{"g", ActionArray},
	{"g_tot", ActionFloatArray},
}

// actionFor returns the action of the first rule matching key.
func actionFor(rules []Rule, key string) Action {
	for _, r := range rules {
		if ok, _ := path.Match(r.Pattern, key); ok {
			return r.Action
		}
	}
	return ActionStore
}
