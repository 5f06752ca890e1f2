package statedesigner

import (
	"fmt"
	"sort"

	"github.com/izznatsir/state-designer/kinds"
)

// Node is one state in the compiled tree. Structural fields are fixed at
// construction; Active, History and the effect handles are runtime state owned
// by the engine.
type Node[D any] struct {
	Name     string
	Path     string
	Type     uint64
	Initial  string
	History  string
	Active   bool
	Children []*Node[D]

	on      map[string]handlerChain[D]
	onEvent handlerChain[D]
	onEnter handlerChain[D]
	onExit  handlerChain[D]
	repeat  *repeatEffect[D]
	async   *asyncEffect[D]
	times   effectHandles
}

// effectHandles holds stop functions for the node's running timed effects.
type effectHandles struct {
	interval func()
	frame    func()
}

type repeatEffect[D any] struct {
	delay    Time[D] // nil means frame-driven
	onRepeat handlerChain[D]
}

type asyncEffect[D any] struct {
	await     Async[D]
	onResolve handlerChain[D]
	onReject  handlerChain[D]
}

func (n *Node[D]) Child(name string) *Node[D] {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// EventNames lists the event names the node declares handlers for, sorted.
func (n *Node[D]) EventNames() []string {
	names := make([]string, 0, len(n.on))
	for name := range n.on {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// nodeConfig is the slot set shared by Design (the implicit root) and State.
type nodeConfig struct {
	initial string
	states  []State
	on      Events
	onEvent any
	onEnter any
	onExit  any
	repeat  *Repeat
	async   *Await
}

func configOf(s State) nodeConfig {
	return nodeConfig{
		initial: s.Initial,
		states:  s.States,
		on:      s.On,
		onEvent: s.OnEvent,
		onEnter: s.OnEnter,
		onExit:  s.OnExit,
		repeat:  s.Repeat,
		async:   s.Async,
	}
}

// buildNode compiles one declarative state and its subtree.
func (nz *normalizer[D]) buildNode(name string, parentPath string, cfg nodeConfig) (*Node[D], error) {
	node := &Node[D]{
		Name:    name,
		Path:    parentPath + "." + name,
		Initial: cfg.initial,
		History: cfg.initial,
		on:      map[string]handlerChain[D]{},
	}
	switch {
	case cfg.initial != "":
		node.Type = kinds.Branch
	case len(cfg.states) > 0:
		node.Type = kinds.Parallel
	default:
		node.Type = kinds.Leaf
	}
	for name, shorthand := range cfg.on {
		chain, err := nz.chain(shorthand)
		if err != nil {
			return nil, fmt.Errorf("%s on %q: %w", node.Path, name, err)
		}
		node.on[name] = chain
	}
	var err error
	if node.onEvent, err = nz.optionalChain(cfg.onEvent); err != nil {
		return nil, fmt.Errorf("%s onEvent: %w", node.Path, err)
	}
	if node.onEnter, err = nz.optionalChain(cfg.onEnter); err != nil {
		return nil, fmt.Errorf("%s onEnter: %w", node.Path, err)
	}
	if node.onExit, err = nz.optionalChain(cfg.onExit); err != nil {
		return nil, fmt.Errorf("%s onExit: %w", node.Path, err)
	}
	if cfg.repeat != nil {
		if node.repeat, err = nz.repeat(cfg.repeat); err != nil {
			return nil, fmt.Errorf("%s repeat: %w", node.Path, err)
		}
	}
	if cfg.async != nil {
		if node.async, err = nz.async(cfg.async); err != nil {
			return nil, fmt.Errorf("%s async: %w", node.Path, err)
		}
	}
	for _, child := range cfg.states {
		built, err := nz.buildNode(child.Name, node.Path, configOf(child))
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, built)
	}
	if node.Type == kinds.Branch && node.Child(cfg.initial) == nil {
		return nil, fmt.Errorf("%w: %s declares initial %q but has no such child", ErrInvalidDesign, node.Path, cfg.initial)
	}
	return node, nil
}

// buildTree compiles a design into its root node. The design's own slots form
// the root state.
func buildTree[D any](nz *normalizer[D], id string, design *Design[D]) (*Node[D], error) {
	return nz.buildNode("root", id, nodeConfig{
		initial: design.Initial,
		states:  design.States,
		on:      design.On,
		onEvent: design.OnEvent,
		onEnter: design.OnEnter,
		onExit:  design.OnExit,
		repeat:  design.Repeat,
		async:   design.Async,
	})
}
