// Package designfile loads the declarative shape of a design from YAML.
// Behaviour stays in code: handler shorthands in the document are names
// resolved against the base design's Actions/Conditions/Results/Asyncs/Times
// libraries when the machine is created.
package designfile

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	statedesigner "github.com/izznatsir/state-designer"
)

// Read decodes a design document and grafts it onto base. The base supplies
// Data, Values and the named libraries; the document supplies id, initial,
// states and handler shorthands. State declaration order in the document is
// preserved.
func Read[D any](r io.Reader, base statedesigner.Design[D]) (statedesigner.Design[D], error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return base, fmt.Errorf("designfile: %w", err)
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return base, fmt.Errorf("designfile: empty document")
		}
		root = doc.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return base, fmt.Errorf("designfile: design must be a mapping")
	}
	design := base
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i].Value
		value := root.Content[i+1]
		var err error
		switch key {
		case "id":
			design.ID = value.Value
		case "initial":
			design.Initial = value.Value
		case "states":
			design.States, err = decodeStates(value)
		case "on":
			design.On, err = decodeEvents(value)
		case "onEvent":
			design.OnEvent, err = decodeAny(value)
		case "onEnter":
			design.OnEnter, err = decodeAny(value)
		case "onExit":
			design.OnExit, err = decodeAny(value)
		case "repeat":
			design.Repeat, err = decodeRepeat(value)
		case "async":
			design.Async, err = decodeAsync(value)
		default:
			return base, fmt.Errorf("designfile: unknown key %q", key)
		}
		if err != nil {
			return base, err
		}
	}
	return design, nil
}

func decodeStates(node *yaml.Node) ([]statedesigner.State, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("designfile: states must be a mapping")
	}
	states := make([]statedesigner.State, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		state, err := decodeState(node.Content[i].Value, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

func decodeState(name string, node *yaml.Node) (statedesigner.State, error) {
	state := statedesigner.State{Name: name}
	if isNull(node) {
		return state, nil
	}
	if node.Kind != yaml.MappingNode {
		return state, fmt.Errorf("designfile: state %q must be a mapping", name)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		var err error
		switch key {
		case "initial":
			state.Initial = value.Value
		case "states":
			state.States, err = decodeStates(value)
		case "on":
			state.On, err = decodeEvents(value)
		case "onEvent":
			state.OnEvent, err = decodeAny(value)
		case "onEnter":
			state.OnEnter, err = decodeAny(value)
		case "onExit":
			state.OnExit, err = decodeAny(value)
		case "repeat":
			state.Repeat, err = decodeRepeat(value)
		case "async":
			state.Async, err = decodeAsync(value)
		default:
			return state, fmt.Errorf("designfile: unknown key %q in state %q", key, name)
		}
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

func decodeEvents(node *yaml.Node) (statedesigner.Events, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("designfile: on must be a mapping")
	}
	events := statedesigner.Events{}
	for i := 0; i < len(node.Content); i += 2 {
		shorthand, err := decodeAny(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		events[node.Content[i].Value] = shorthand
	}
	return events, nil
}

func decodeRepeat(node *yaml.Node) (*statedesigner.Repeat, error) {
	var fields struct {
		Delay    any `yaml:"delay"`
		OnRepeat any `yaml:"onRepeat"`
	}
	if err := node.Decode(&fields); err != nil {
		return nil, fmt.Errorf("designfile: %w", err)
	}
	return &statedesigner.Repeat{Delay: fields.Delay, OnRepeat: fields.OnRepeat}, nil
}

func decodeAsync(node *yaml.Node) (*statedesigner.Await, error) {
	var fields struct {
		Await     any `yaml:"await"`
		OnResolve any `yaml:"onResolve"`
		OnReject  any `yaml:"onReject"`
	}
	if err := node.Decode(&fields); err != nil {
		return nil, fmt.Errorf("designfile: %w", err)
	}
	return &statedesigner.Await{Await: fields.Await, OnResolve: fields.OnResolve, OnReject: fields.OnReject}, nil
}

func decodeAny(node *yaml.Node) (any, error) {
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("designfile: %w", err)
	}
	return value, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
