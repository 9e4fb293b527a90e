package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	DefaultZoom  = 2
	MarkerSize   = 20
	MarkerColor  = "#EE4823"
	mapIDPrefix  = "map_"
	plotDataAttr = "data-plot"
)

// PlotSpec is the Plotly.newPlot payload, passed as data rather than script.
type PlotSpec struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a single scattermap trace.
type Trace struct {
	Type   string    `json:"type"`
	Lat    []float64 `json:"lat"`
	Lon    []float64 `json:"lon"`
	Mode   string    `json:"mode"`
	Marker Marker    `json:"marker"`
	Text   []string  `json:"text"`
}

type Marker struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

type Layout struct {
	Autosize  bool      `json:"autosize"`
	Hovermode string    `json:"hovermode"`
	Margin    Margin    `json:"margin"`
	Map       MapLayout `json:"map"`
}

type Margin struct {
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
	L int `json:"l"`
}

type MapLayout struct {
	Center  Center  `json:"center"`
	Bearing float64 `json:"bearing"`
	Zoom    float64 `json:"zoom"`
	Pitch   float64 `json:"pitch"`
}

type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapFragment is a uniquely identified map placeholder plus its plot payload.
type MapFragment struct {
	ID   string
	Plot PlotSpec
}

// NewMap builds a single-marker map centered on (lat, lon). Each call gets a fresh ID.
func NewMap(lat, lon float64) MapFragment {
	return MapFragment{
		ID:   NewMapID(),
		Plot: newPlotSpec(lat, lon),
	}
}

// NewMapID returns an identifier usable as both an HTML id and a JS name.
func NewMapID() string {
	return mapIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "_")
}

func newPlotSpec(lat, lon float64) PlotSpec {
	return PlotSpec{
		Data: []Trace{{
			Type: "scattermap",
			Lat:  []float64{lat},
			Lon:  []float64{lon},
			Mode: "markers",
			Marker: Marker{
				Size:  MarkerSize,
				Color: MarkerColor,
			},
			Text: []string{fmt.Sprintf("%.4f, %.4f", lat, lon)},
		}},
		Layout: Layout{
			Autosize:  true,
			Hovermode: "closest",
			Map: MapLayout{
				Center: Center{Lat: lat, Lon: lon},
				Zoom:   DefaultZoom,
			},
		},
	}
}

// Node renders the placeholder; static/geochat.js turns data-plot into a Plotly map.
func (m MapFragment) Node() *html.Node {
	placeholder := Element(atom.Div, attrs("id", m.ID, "class", "map"))

	payload, err := json.Marshal(m.Plot)
	if err != nil {
		log.Error().Err(err).Str("map_id", m.ID).Msg("view: failed to encode plot payload")
	} else {
		placeholder.Attr = append(placeholder.Attr, Attr(plotDataAttr, string(payload)))
	}

	return Element(atom.Div, nil, placeholder)
}

// DecodePlot reads the plot payload back from a rendered placeholder.
func DecodePlot(n *html.Node) (PlotSpec, error) {
	raw, ok := AttrValue(n, plotDataAttr)
	if !ok {
		return PlotSpec{}, fmt.Errorf("node has no %s attribute", plotDataAttr)
	}
	var plot PlotSpec
	if err := json.Unmarshal([]byte(raw), &plot); err != nil {
		return PlotSpec{}, fmt.Errorf("decode plot payload: %w", err)
	}
	return plot, nil
}

// IsMapPlaceholder matches nodes produced by MapFragment.Node.
func IsMapPlaceholder(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	_, ok := AttrValue(n, plotDataAttr)
	return ok
}
