// api/models/figure.go
package models

// Figure is a Plotly-compatible figure payload. The dashboard frontend hands
// these straight to Plotly.newPlot, so field names follow the Plotly schema
// rather than Go conventions.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one plotted series. Scatter traces use X/Y/Mode; sankey traces use
// Node/Link. Zero-valued fields are omitted from the JSON.
type Trace struct {
	Type   string     `json:"type"`
	Name   string     `json:"name,omitempty"`
	X      []string   `json:"x,omitempty"`
	Y      []*float64 `json:"y,omitempty"`
	Mode   string     `json:"mode,omitempty"`
	Fill   string     `json:"fill,omitempty"`
	Marker *Marker    `json:"marker,omitempty"`
	XAxis  string     `json:"xaxis,omitempty"`
	YAxis  string     `json:"yaxis,omitempty"`

	Node *SankeyNode `json:"node,omitempty"`
	Link *SankeyLink `json:"link,omitempty"`
}

type Marker struct {
	Color string `json:"color,omitempty"`
}

// SankeyNode holds the parallel node arrays of a sankey trace.
type SankeyNode struct {
	Label     []string `json:"label"`
	Color     []string `json:"color,omitempty"`
	Pad       int      `json:"pad,omitempty"`
	Thickness int      `json:"thickness,omitempty"`
}

// SankeyLink holds the parallel link arrays of a sankey trace. Source and
// Target index into the node label array.
type SankeyLink struct {
	Source []int     `json:"source"`
	Target []int     `json:"target"`
	Value  []float64 `json:"value"`
	Color  []string  `json:"color,omitempty"`
}

type Layout struct {
	Title       string       `json:"title,omitempty"`
	Grid        *Grid        `json:"grid,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	AutoSize    bool         `json:"autosize,omitempty"`
	PlotBGColor string       `json:"plot_bgcolor,omitempty"`
	Margin      *Margin      `json:"margin,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
}

// Grid lays subplot axes out as an independent rows*columns grid.
type Grid struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Pattern string `json:"pattern,omitempty"`
}

// Annotation carries a subplot title pinned to paper coordinates.
type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	ShowArrow bool    `json:"showarrow"`
}

type Margin struct {
	AutoExpand bool `json:"autoexpand"`
	L          int  `json:"l,omitempty"`
	R          int  `json:"r,omitempty"`
	T          int  `json:"t,omitempty"`
}

type Axis struct {
	ShowLine       bool     `json:"showline"`
	ShowGrid       bool     `json:"showgrid"`
	ShowTickLabels bool     `json:"showticklabels"`
	ZeroLine       bool     `json:"zeroline"`
	LineColor      string   `json:"linecolor,omitempty"`
	LineWidth      int      `json:"linewidth,omitempty"`
	Ticks          string   `json:"ticks,omitempty"`
	TickFont       *Font    `json:"tickfont,omitempty"`
}

type Font struct {
	Family string `json:"family,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
}

// PlasmaPalette is the sequential palette used for category traces and graph
// nodes. Colors match Plotly's px.colors.sequential.Plasma so figures look
// identical to the earlier dashboards.
var PlasmaPalette = []string{
	"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786",
	"#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921",
}

// PaletteColor returns the palette entry for a category ordinal, cycling past
// the end so every ordinal gets a stable color.
func PaletteColor(ordinal int) string {
	if ordinal < 0 {
		ordinal = -ordinal
	}
	return PlasmaPalette[ordinal%len(PlasmaPalette)]
}

// StandardLayout applies the shared dashboard styling: white background, no
// legend, outside ticks on the x axis.
func StandardLayout(fig *Figure) {
	show := false
	fig.Layout.ShowLegend = &show
	fig.Layout.AutoSize = true
	fig.Layout.PlotBGColor = "white"
	fig.Layout.Margin = &Margin{AutoExpand: false, L: 20, R: 20, T: 110}
	fig.Layout.XAxis = &Axis{
		ShowLine:       true,
		ShowTickLabels: true,
		LineColor:      "rgb(204, 204, 204)",
		LineWidth:      2,
		Ticks:          "outside",
		TickFont:       &Font{Family: "Arial", Size: 12, Color: "rgb(82, 82, 82)"},
	}
	fig.Layout.YAxis = &Axis{}
}
