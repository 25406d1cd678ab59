package trace

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/comalice/framefsm"
)

// Pseudo-node IDs. The double underscores keep them apart from state IDs,
// which are drawn under their own names.
const (
	startNode   = "__start__"
	unknownNode = "__unknown__"
)

type edgeKey struct {
	from, to string
	failed   bool
}

// ExportDOT renders the transitions observed in records as Graphviz DOT.
// Edge labels count how often each transition happened; failed transitions
// are dashed and point at a node labeled "?". The state active at the end of the
// recording is filled.
func ExportDOT(records []framefsm.Record) string {
	transitions := Transitions(records)

	nodes := make(map[string]bool)
	counts := make(map[edgeKey]int)
	for _, t := range transitions {
		from := string(t.From)
		if from == "" {
			from = startNode
		}
		to := string(t.To)
		if t.Failed {
			to = unknownNode
		}
		nodes[from] = true
		nodes[to] = true
		counts[edgeKey{from: from, to: to, failed: t.Failed}]++
	}

	active := finalActive(records)

	var buf bytes.Buffer
	buf.WriteString(`digraph Trace {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	for _, n := range sortedKeys(nodes) {
		switch {
		case n == startNode:
			buf.WriteString(fmt.Sprintf("  %q [shape=point];\n", n))
		case n == unknownNode:
			buf.WriteString(fmt.Sprintf("  %q [label=\"?\" shape=diamond color=red];\n", n))
		case n == active:
			buf.WriteString(fmt.Sprintf("  %q [style=filled fillcolor=lightgreen];\n", n))
		default:
			buf.WriteString(fmt.Sprintf("  %q;\n", n))
		}
	}

	edges := make([]edgeKey, 0, len(counts))
	for k := range counts {
		edges = append(edges, k)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, e := range edges {
		style := ""
		if e.failed {
			style = " style=dashed color=red"
		}
		buf.WriteString(fmt.Sprintf("  %q -> %q [label=\"%d\"%s];\n", e.from, e.to, counts[e], style))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// finalActive returns the state entered last and not exited since.
func finalActive(records []framefsm.Record) string {
	active := ""
	for _, rec := range records {
		switch {
		case rec.Kind == framefsm.RecordCallback && rec.Callback == framefsm.CallbackEnter:
			active = string(rec.State)
		case rec.Kind == framefsm.RecordCallback && rec.Callback == framefsm.CallbackExit:
			active = ""
		case rec.Kind == framefsm.RecordFailure:
			active = ""
		}
	}
	return active
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
