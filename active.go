package statedesigner

import (
	"strings"

	"github.com/izznatsir/state-designer/kinds"
	"github.com/izznatsir/state-designer/pkg/set"
)

// activate marks node active and descends. down is the remaining explicit
// target path; once it is exhausted, branch nodes pick their history when
// previous is set and their initial otherwise. restore keeps history selection
// alive through the whole subtree.
func activate[D any](node *Node[D], down []string, previous bool, restore bool) {
	node.Active = true
	switch node.Type {
	case kinds.Leaf:
		return
	case kinds.Parallel:
		var head string
		var tail []string
		if len(down) > 0 {
			head = down[0]
			tail = down[1:]
		}
		for _, child := range node.Children {
			if child.Name == head {
				activate(child, tail, previous, restore)
			} else {
				activate(child, nil, restore, restore)
			}
		}
	case kinds.Branch:
		chosen := node.Child(node.Initial)
		var tail []string
		nextPrevious, nextRestore := restore, restore
		switch {
		case len(down) > 0 && node.Child(down[0]) != nil:
			chosen = node.Child(down[0])
			tail = down[1:]
			nextPrevious, nextRestore = previous, restore
		case previous && node.History != "":
			if fromHistory := node.Child(node.History); fromHistory != nil {
				chosen = fromHistory
			}
		}
		node.History = chosen.Name
		activate(chosen, tail, nextPrevious, nextRestore)
	}
}

// deactivate clears the whole subtree, recording each branch node's active
// child into history first.
func deactivate[D any](node *Node[D]) {
	if node.Type == kinds.Branch {
		for _, child := range node.Children {
			if child.Active {
				node.History = child.Name
				break
			}
		}
	}
	node.Active = false
	for _, child := range node.Children {
		deactivate(child)
	}
}

// findTransitionTargets returns every node whose path ends with the given
// partial path, in depth-first order. Callers take the last entry as the
// deepest match.
func findTransitionTargets[D any](root *Node[D], path string) []*Node[D] {
	qualified := strings.HasPrefix(path, "#")
	if !qualified && !strings.HasPrefix(path, ".") {
		path = "." + path
	}
	var targets []*Node[D]
	var walk func(node *Node[D])
	walk = func(node *Node[D]) {
		if qualified && node.Path == path || !qualified && strings.HasSuffix(node.Path, path) {
			targets = append(targets, node)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
	return targets
}

// activeNodes lists the nodes flagged active, depth first.
func activeNodes[D any](root *Node[D]) []*Node[D] {
	var nodes []*Node[D]
	var walk func(node *Node[D])
	walk = func(node *Node[D]) {
		if !node.Active {
			return
		}
		nodes = append(nodes, node)
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
	return nodes
}

// subtract returns the nodes of a not present in b, preserving a's order.
func subtract[D any](a, b []*Node[D]) []*Node[D] {
	paths := set.New[string]()
	for _, node := range b {
		paths.Add(node.Path)
	}
	var out []*Node[D]
	for _, node := range a {
		if !paths.Contains(node.Path) {
			out = append(out, node)
		}
	}
	return out
}
