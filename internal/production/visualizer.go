package production

import (
	"bytes"
	"fmt"

	"github.com/comalice/rafcore/internal/core"
)

// DOTVisualizer renders a core.Snapshot as Graphviz DOT source: a cluster
// per container (hierarchy/barrier/preemptive) nesting its children, with
// currently active leaf states highlighted (containers are not).
type DOTVisualizer struct{}

func (DOTVisualizer) ExportDOT(root core.Snapshot) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Engine {\n  rankdir=LR;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n")
	renderSnapshot(&buf, root)
	for _, t := range root.Transitions {
		to := t.ToState
		label := fmt.Sprintf("%d", t.FromOutcome)
		if t.TargetsParentOutcome() {
			to = root.ID
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", t.FromState, to, label)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func renderSnapshot(buf *bytes.Buffer, s core.Snapshot) {
	if len(s.Children) == 0 {
		style := ""
		if s.Status == "active" || s.Status == "execute_children" {
			style = " style=filled fillcolor=lightgreen"
		}
		fmt.Fprintf(buf, "  %q [label=%q%s];\n", s.ID, s.Name+" ("+s.Kind+")", style)
		return
	}

	fmt.Fprintf(buf, "  subgraph cluster_%s {\n", s.ID)
	fillcolor := "white"
	if s.Kind == "barrier" {
		fillcolor = "lightblue"
	} else if s.Kind == "preemptive" {
		fillcolor = "mistyrose"
	}
	fmt.Fprintf(buf, "    label=%q; style=filled; fillcolor=%s;\n", s.Name+" ("+s.Kind+")", fillcolor)
	for _, child := range s.Children {
		renderSnapshot(buf, child)
	}
	for _, t := range s.Transitions {
		to := t.ToState
		if t.TargetsParentOutcome() {
			to = s.ID
		}
		fmt.Fprintf(buf, "    %q -> %q [label=%q];\n", t.FromState, to, fmt.Sprintf("%d", t.FromOutcome))
	}
	buf.WriteString("  }\n")
}
