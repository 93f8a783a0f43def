// Package graph renders chart definitions as Mermaid state diagrams.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lanreath/strata/pkg/domain"
)

// Overlay marks live instance data to highlight on the diagram.
type Overlay struct {
	// Current is the active leaf state. Its ancestors render in the
	// active style, the leaf itself in the current style.
	Current domain.StateID
}

// GenerateMermaid produces a stateDiagram-v2 document for a chart.
// Composite states nest their children; transitions come from the
// per-state event tables and are labeled with declared event names. A
// non-nil overlay highlights the active path.
func GenerateMermaid(def *domain.ChartDef, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	order := walkOrder(def)
	ids := make(map[domain.StateID]string, len(order))
	for _, sd := range order {
		ids[sd.ID] = sanitizeMermaidID(displayName(def, sd.ID))
	}

	// Aliases keep the original names visible when sanitization had to
	// rewrite them.
	for _, sd := range order {
		name := displayName(def, sd.ID)
		if safe := ids[sd.ID]; safe != name {
			sb.WriteString(fmt.Sprintf("    state \"%s\" as %s\n", name, safe))
		}
	}

	for _, root := range def.Roots() {
		writeState(&sb, def, ids, root, "    ")
	}

	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", ids[def.Initial]))

	for _, sd := range order {
		for _, ev := range sortedEvents(sd.On) {
			sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n",
				ids[sd.ID], ids[sd.On[ev]], def.EventName(ev)))
		}
	}

	writeMetaClasses(&sb, order, ids)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme.
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, id := range ancestorsOf(def, overlay.Current) {
			if safe, ok := ids[id]; ok {
				sb.WriteString(fmt.Sprintf("    class %s active;\n", safe))
			}
		}
		if safe, ok := ids[overlay.Current]; ok {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", safe))
		}
	}

	return sb.String()
}

// writeState emits one state, recursing into a composite block when the
// state has children.
func writeState(sb *strings.Builder, def *domain.ChartDef, ids map[domain.StateID]string, sd domain.StateDef, indent string) {
	kids := def.Children(sd.ID)
	if len(kids) == 0 {
		sb.WriteString(indent + ids[sd.ID] + "\n")
		return
	}
	sb.WriteString(indent + "state " + ids[sd.ID] + " {\n")
	for _, kid := range kids {
		writeState(sb, def, ids, kid, indent+"    ")
	}
	sb.WriteString(indent + "}\n")
}

// writeMetaClasses turns meta color annotations into classDefs, one per
// distinct color.
func writeMetaClasses(sb *strings.Builder, order []domain.StateDef, ids map[domain.StateID]string) {
	classes := make(map[string]string)
	var lines []string
	for _, sd := range order {
		color := sd.Meta["color"]
		if color == "" {
			continue
		}
		class, ok := classes[color]
		if !ok {
			class = fmt.Sprintf("meta%d", len(classes))
			classes[color] = class
			sb.WriteString(fmt.Sprintf("    classDef %s fill:%s;\n", class, color))
		}
		lines = append(lines, fmt.Sprintf("    class %s %s;\n", ids[sd.ID], class))
	}
	for _, line := range lines {
		sb.WriteString(line)
	}
}

// walkOrder flattens the forest: roots in id order, children depth-first
// under their parent. The same order assembly uses, so diagrams are
// stable across runs.
func walkOrder(def *domain.ChartDef) []domain.StateDef {
	var order []domain.StateDef
	var visit func(sd domain.StateDef)
	visit = func(sd domain.StateDef) {
		order = append(order, sd)
		for _, kid := range def.Children(sd.ID) {
			visit(kid)
		}
	}
	for _, root := range def.Roots() {
		visit(root)
	}
	return order
}

// ancestorsOf returns the proper ancestors of id, nearest first.
func ancestorsOf(def *domain.ChartDef, id domain.StateID) []domain.StateID {
	var chain []domain.StateID
	sd := def.State(id)
	for sd != nil && sd.Parent != nil {
		chain = append(chain, *sd.Parent)
		sd = def.State(*sd.Parent)
	}
	return chain
}

func displayName(def *domain.ChartDef, id domain.StateID) string {
	if sd := def.State(id); sd != nil && sd.Name != "" {
		return sd.Name
	}
	return id.String()
}

func sortedEvents(on map[domain.EventID]domain.StateID) []domain.EventID {
	events := make([]domain.EventID, 0, len(on))
	for ev := range on {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
