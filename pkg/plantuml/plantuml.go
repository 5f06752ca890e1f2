// Package plantuml renders a machine's state tree as a PlantUML state
// diagram. Transition targets are runtime functions, so edges beyond the
// initial markers are shown as event labels on their owning state.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	statedesigner "github.com/izznatsir/state-designer"
	"github.com/izznatsir/state-designer/kinds"
)

func idFromPath(path string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.TrimPrefix(path, "#"), "-", "_"), ".", "_")
}

func generateNode[D any](builder *strings.Builder, depth int, node *statedesigner.Node[D]) {
	id := idFromPath(node.Path)
	indent := strings.Repeat(" ", depth*2)
	if len(node.Children) == 0 {
		fmt.Fprintf(builder, "%sstate %s\n", indent, id)
	} else {
		fmt.Fprintf(builder, "%sstate %s {\n", indent, id)
		if kinds.IsKind(node.Type, kinds.Branch) {
			if initial := node.Child(node.Initial); initial != nil {
				fmt.Fprintf(builder, "%s  [*] --> %s\n", indent, idFromPath(initial.Path))
			}
		}
		for i, child := range node.Children {
			if kinds.IsKind(node.Type, kinds.Parallel) && i > 0 {
				fmt.Fprintf(builder, "%s  --\n", indent)
			}
			generateNode(builder, depth+1, child)
		}
		fmt.Fprintf(builder, "%s}\n", indent)
	}
	for _, name := range node.EventNames() {
		fmt.Fprintf(builder, "%sstate %s : on %s\n", indent, id, name)
	}
}

// Generate writes the machine's state tree as a PlantUML document.
func Generate[D any](writer io.Writer, m *statedesigner.Machine[D]) error {
	var builder strings.Builder
	root := m.Root()
	fmt.Fprintf(&builder, "@startuml %s\n", strings.TrimPrefix(m.ID(), "#"))
	generateNode(&builder, 0, root)
	fmt.Fprintln(&builder, "@enduml")
	_, err := writer.Write([]byte(builder.String()))
	return err
}
