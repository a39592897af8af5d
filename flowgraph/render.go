// api/flowgraph/render.go
package flowgraph

import (
	"log"

	"smartflow/api/models"
)

// Link colors. Highlighted links pick a saturated palette tone; everything
// else stays at a pale baseline.
const (
	baseLinkColor      = "rgba(204, 204, 204, 0.6)"
	highlightLinkColor = "rgba(189, 55, 134, 0.9)"
)

// Render produces the sankey figure for a graph at the given threshold.
// Edges below the threshold are dropped and nodes left without any surviving
// edge are omitted. Node colors come from first-appearance ordinals in the
// full graph, so they do not shift as the threshold moves.
func Render(g *Graph, threshold int, title string) models.Figure {
	return render(g, threshold, title, nil)
}

// Highlight re-renders the already-built graph with the named path's edges
// emphasized. It touches neither the path sequence nor the graph itself,
// which is what keeps highlight changes cheap. Unknown nicknames render with
// no emphasis.
func Highlight(g *Graph, nickname string, threshold int, title string) models.Figure {
	steps, ok := g.Paths[nickname]
	if !ok {
		log.Printf("Highlight: unknown path nickname %q", nickname)
		return render(g, threshold, title, nil)
	}

	emphasis := make(map[[2]int]bool)
	for i := 1; i < len(steps); i++ {
		from, to := g.nodeOf(steps[i-1]), g.nodeOf(steps[i])
		if from >= 0 && to >= 0 {
			emphasis[[2]int{from, to}] = true
		}
	}
	return render(g, threshold, title, emphasis)
}

func render(g *Graph, threshold int, title string, emphasis map[[2]int]bool) models.Figure {
	if title == "" {
		title = g.DefaultTitle()
	}

	var kept []Edge
	for _, e := range g.Edges {
		if e.Weight >= float64(threshold) {
			kept = append(kept, e)
		}
	}

	// Compact surviving nodes, preserving original order and colors.
	used := make(map[int]bool)
	for _, e := range kept {
		used[e.From] = true
		used[e.To] = true
	}
	compact := make(map[int]int)
	node := &models.SankeyNode{Pad: 15, Thickness: 20}
	for i, label := range g.Nodes {
		if !used[i] {
			continue
		}
		compact[i] = len(node.Label)
		node.Label = append(node.Label, label)
		node.Color = append(node.Color, models.PaletteColor(i))
	}

	link := &models.SankeyLink{}
	for _, e := range kept {
		link.Source = append(link.Source, compact[e.From])
		link.Target = append(link.Target, compact[e.To])
		link.Value = append(link.Value, e.Weight)
		if emphasis[[2]int{e.From, e.To}] {
			link.Color = append(link.Color, highlightLinkColor)
		} else {
			link.Color = append(link.Color, baseLinkColor)
		}
	}

	fig := models.Figure{
		Data:   []models.Trace{{Type: "sankey", Node: node, Link: link}},
		Layout: models.Layout{Title: title},
	}
	models.StandardLayout(&fig)
	return fig
}
