package kinds_test

import (
	"testing"

	"github.com/izznatsir/state-designer/kinds"
)

func TestKinds(t *testing.T) {
	if !kinds.IsKind(kinds.Branch, kinds.Node) {
		t.Errorf("Branch should be a Node")
	}
	if !kinds.IsKind(kinds.Parallel, kinds.Node) {
		t.Errorf("Parallel should be a Node")
	}
	if !kinds.IsKind(kinds.Leaf, kinds.Element) {
		t.Errorf("Leaf should be an Element")
	}
	if kinds.IsKind(kinds.Leaf, kinds.Branch) {
		t.Errorf("Leaf should not be a Branch")
	}
	if kinds.IsKind(kinds.Event, kinds.Node) {
		t.Errorf("Event should not be a Node")
	}
	if !kinds.IsKind(kinds.Event, kinds.Element) {
		t.Errorf("Event should be an Element")
	}
}
