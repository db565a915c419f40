package workflow

import orderedmap "github.com/wk8/go-ordered-map/v2"

// OrderedVars preserves insertion order for vars_env so dumps and
// debug logs are deterministic across runs (see DESIGN.md).
type OrderedVars = orderedmap.OrderedMap[string, string]

// NewOrderedVars returns an empty, ready-to-use OrderedVars.
func NewOrderedVars() *OrderedVars {
	return orderedmap.New[string, string]()
}
