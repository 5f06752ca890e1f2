package statedesigner

import "strings"

// matchesActive reports whether any active node's path ends with the given
// partial path. A missing leading dot is supplied, so matching covers whole
// segments: "on" matches a state named "on" at any depth (including
// "button.on") but not a state named "button".
func (m *Machine[D]) matchesActive(path string) bool {
	if !strings.HasPrefix(path, "#") && !strings.HasPrefix(path, ".") {
		path = "." + path
	}
	for _, node := range m.active {
		if node.Path == path || strings.HasSuffix(node.Path, path) {
			return true
		}
	}
	return false
}

// IsIn reports whether every supplied path matches an active state.
func (m *Machine[D]) IsIn(paths ...string) bool {
	for _, path := range paths {
		if !m.matchesActive(path) {
			return false
		}
	}
	return true
}

// IsInAny reports whether at least one supplied path matches an active state.
func (m *Machine[D]) IsInAny(paths ...string) bool {
	for _, path := range paths {
		if m.matchesActive(path) {
			return true
		}
	}
	return false
}

// Can reports whether some active state handles the event with an item whose
// guards would pass right now. Evaluation is pure: gets run against a
// throwaway snapshot and nothing on the instance changes.
func (m *Machine[D]) Can(name string, payload ...any) bool {
	var data any
	if len(payload) > 0 {
		data = payload[0]
	}
	snapshot := m.data
	for _, node := range m.active {
		chain, ok := node.on[name]
		if !ok {
			continue
		}
		var result any
		for _, item := range chain {
			for _, get := range item.get {
				result = get(&snapshot, data, result)
			}
			if item.passes(&snapshot, data, result) {
				return true
			}
		}
	}
	return false
}

// WhenInEntry pairs a path with a value. The value may be a func() any, in
// which case it is called when the entry is included.
type WhenInEntry struct {
	Path  string
	Value any
}

// WhenIn collects the values of the entries whose path is "root" or matches
// an active state, in the order given.
func (m *Machine[D]) WhenIn(entries []WhenInEntry) []any {
	collected := m.ReduceWhenIn(entries, []any{}, func(acc any, _ string, value any) any {
		return append(acc.([]any), value)
	})
	return collected.([]any)
}

// ReduceWhenIn folds the included entries into a value, calling reduce with
// the accumulator, the entry's path and its (resolved) value.
func (m *Machine[D]) ReduceWhenIn(entries []WhenInEntry, initial any, reduce func(acc any, key string, value any) any) any {
	acc := initial
	for _, entry := range entries {
		if entry.Path != "root" && !m.matchesActive(entry.Path) {
			continue
		}
		value := entry.Value
		if fn, ok := value.(func() any); ok {
			value = fn()
		}
		acc = reduce(acc, entry.Path, value)
	}
	return acc
}

// Config returns the design the machine was built from.
func (m *Machine[D]) Config() Design[D] {
	return m.design
}

// Clone builds a fresh instance from the same design. The clone starts from
// the design's initial data and states, not from this machine's current ones.
func (m *Machine[D]) Clone() (*Machine[D], error) {
	return New(m.design)
}
