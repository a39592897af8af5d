// api/flowgraph/graph.go
package flowgraph

import (
	"fmt"
	"time"

	"smartflow/api/sequence"
	"smartflow/api/utils"
)

// Edge is an observed transition between two steps. From and To index into
// Graph.Nodes; Weight is the number of distinct users who made the
// transition.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Graph is the full, unthresholded flow graph built from one path sequence.
// Node order is first-appearance order, which fixes node colors across
// renders at different thresholds. Rendering never modifies the graph, so
// threshold and highlight changes are cheap re-renders of the same value.
type Graph struct {
	Nodes     []string
	Edges     []Edge
	Paths     map[string][]string // nickname -> ordered steps
	FlowName  string
	StartDate time.Time
	EndDate   time.Time
}

// Build aggregates a path sequence into a weighted directed graph. Edge
// weights count distinct users per transition; a user looping through the
// same transition twice still counts once.
func Build(seq *sequence.PathSequence, flowName string) *Graph {
	g := &Graph{
		Paths:     seq.Paths,
		FlowName:  flowName,
		StartDate: seq.StartDate,
		EndDate:   seq.EndDate,
	}

	nodeIndex := make(map[string]int)
	node := func(step string) int {
		i, ok := nodeIndex[step]
		if !ok {
			i = len(g.Nodes)
			nodeIndex[step] = i
			g.Nodes = append(g.Nodes, step)
		}
		return i
	}

	type pair struct{ from, to int }
	edgeIndex := make(map[pair]int)
	edgeUsers := make(map[pair]map[string]bool)
	prev := make(map[string]int) // user -> last seen node
	seen := make(map[string]bool)

	for _, r := range seq.Rows {
		cur := node(r.Step)
		if seen[r.UserID] {
			p := pair{from: prev[r.UserID], to: cur}
			if _, ok := edgeIndex[p]; !ok {
				edgeIndex[p] = len(g.Edges)
				edgeUsers[p] = make(map[string]bool)
				g.Edges = append(g.Edges, Edge{From: p.from, To: p.to})
			}
			edgeUsers[p][r.UserID] = true
		}
		prev[r.UserID] = cur
		seen[r.UserID] = true
	}

	for p, users := range edgeUsers {
		g.Edges[edgeIndex[p]].Weight = float64(len(users))
	}
	return g
}

// DefaultTitle names a rendered figure after the graph's flow and window.
func (g *Graph) DefaultTitle() string {
	return fmt.Sprintf("%s From %s to %s", g.FlowName,
		utils.FormatDate(g.StartDate), utils.FormatDate(g.EndDate))
}

// nodeOf returns the index of a step, or -1 when the step never appeared in
// the window.
func (g *Graph) nodeOf(step string) int {
	for i, n := range g.Nodes {
		if n == step {
			return i
		}
	}
	return -1
}
