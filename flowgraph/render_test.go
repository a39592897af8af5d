package flowgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartflow/api/models"
	"smartflow/api/sequence"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	var master []models.FlowEvent
	at := time.Date(2021, 4, 1, 9, 0, 0, 0, time.UTC)
	walk := func(user string, offset time.Duration, steps ...string) {
		for i, step := range steps {
			master = append(master, models.FlowEvent{
				UserID:    user,
				SessionID: user + "-s",
				TimeEvent: at.Add(offset + time.Duration(i)*time.Minute),
				Step:      step,
				TollFree:  models.CategoryNonTollFree,
			})
		}
	}
	walk("a", 0, "Start", "Menu", "Agent")
	walk("b", time.Hour, "Start", "Menu", "Agent")
	walk("c", 2*time.Hour, "Start", "Hangup")

	seq, err := sequence.Derive(master,
		time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 4, 30, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)
	return Build(seq, "Customer Service")
}

func edgeWeight(g *Graph, from, to string) float64 {
	fi, ti := g.nodeOf(from), g.nodeOf(to)
	for _, e := range g.Edges {
		if e.From == fi && e.To == ti {
			return e.Weight
		}
	}
	return 0
}

func TestBuildCountsDistinctUsers(t *testing.T) {
	g := buildTestGraph(t)

	assert.Equal(t, []string{"Start", "Menu", "Agent", "Hangup"}, g.Nodes)
	assert.Equal(t, 2.0, edgeWeight(g, "Start", "Menu"))
	assert.Equal(t, 2.0, edgeWeight(g, "Menu", "Agent"))
	assert.Equal(t, 1.0, edgeWeight(g, "Start", "Hangup"))
}

func TestBuildLoopCountsUserOnce(t *testing.T) {
	var master []models.FlowEvent
	at := time.Date(2021, 4, 1, 9, 0, 0, 0, time.UTC)
	for i, step := range []string{"Start", "Menu", "Start", "Menu"} {
		master = append(master, models.FlowEvent{
			UserID:    "a",
			SessionID: "a-s",
			TimeEvent: at.Add(time.Duration(i) * time.Minute),
			Step:      step,
			TollFree:  models.CategoryNonTollFree,
		})
	}
	seq, err := sequence.Derive(master,
		time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 4, 30, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)

	g := Build(seq, "Customer Service")
	assert.Equal(t, 1.0, edgeWeight(g, "Start", "Menu"))
	assert.Equal(t, 1.0, edgeWeight(g, "Menu", "Start"))
}

// linkSet flattens a rendered sankey into (source label, target label) pairs.
func linkSet(fig models.Figure) map[[2]string]float64 {
	out := make(map[[2]string]float64)
	link := fig.Data[0].Link
	node := fig.Data[0].Node
	for i := range link.Source {
		key := [2]string{node.Label[link.Source[i]], node.Label[link.Target[i]]}
		out[key] = link.Value[i]
	}
	return out
}

func TestRenderMonotonicPruning(t *testing.T) {
	g := buildTestGraph(t)

	loose := linkSet(Render(g, 0, ""))
	tight := linkSet(Render(g, 2, ""))

	for key := range tight {
		_, ok := loose[key]
		assert.True(t, ok, "edge %v pruned at low threshold but kept at high", key)
	}
	assert.Len(t, loose, 3)
	assert.Len(t, tight, 2)
}

func TestRenderOmitsIsolatedNodes(t *testing.T) {
	g := buildTestGraph(t)

	fig := Render(g, 2, "")
	assert.NotContains(t, fig.Data[0].Node.Label, "Hangup")
}

func TestRenderKeepsNodeColorsAcrossThresholds(t *testing.T) {
	g := buildTestGraph(t)

	colorOf := func(fig models.Figure, label string) string {
		node := fig.Data[0].Node
		for i, l := range node.Label {
			if l == label {
				return node.Color[i]
			}
		}
		return ""
	}

	loose := Render(g, 0, "")
	tight := Render(g, 2, "")
	for _, label := range []string{"Start", "Menu", "Agent"} {
		assert.Equal(t, colorOf(loose, label), colorOf(tight, label), "color of %s", label)
	}
}

func TestHighlightKeepsMembership(t *testing.T) {
	g := buildTestGraph(t)

	plain := Render(g, 0, "")
	highlighted := Highlight(g, "1-Path_Freq_Rank", 0, "")

	assert.Equal(t, plain.Data[0].Node.Label, highlighted.Data[0].Node.Label)
	assert.Equal(t, linkSet(plain), linkSet(highlighted))

	// Only the visual emphasis differs: rank 1 is Start > Menu > Agent.
	var emphasized int
	for _, color := range highlighted.Data[0].Link.Color {
		if color == highlightLinkColor {
			emphasized++
		}
	}
	assert.Equal(t, 2, emphasized)
}

func TestHighlightUnknownNickname(t *testing.T) {
	g := buildTestGraph(t)

	fig := Highlight(g, "99-Path_Freq_Rank", 0, "")
	for _, color := range fig.Data[0].Link.Color {
		assert.Equal(t, baseLinkColor, color)
	}
}

func TestDefaultTitle(t *testing.T) {
	g := buildTestGraph(t)
	fig := Render(g, 0, "")
	assert.Equal(t, "Customer Service From 2021-03-31 to 2021-04-30", fig.Layout.Title)
}
