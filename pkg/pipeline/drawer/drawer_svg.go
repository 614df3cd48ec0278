package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/EvgenyM/audiveris/pkg/pipeline/measure"
)

// SVGDrawer renders the step sequence as a DOT file, coloring each step
// by its average region duration (blue fast, red slow).
type SVGDrawer struct {
	graph       graph.Graph[string, string]
	steps       map[string]struct{}
	svgFileName string
}

// NewSVGDrawer creates a new SVG drawer.
func NewSVGDrawer(svgFileName string) *SVGDrawer {
	return &SVGDrawer{
		svgFileName: svgFileName,
		graph:       graph.New(graph.StringHash, graph.Directed()),
		steps:       make(map[string]struct{}),
	}
}

// AddStep adds a step to the drawing.
func (d *SVGDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	d.steps[name] = struct{}{}

	return nil
}

// AddLink adds the link between two consecutive steps.
func (d *SVGDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw writes the DOT file.
func (d *SVGDrawer) Draw() error {
	file, err := os.Create(d.svgFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.svgFileName)
	}
	defer file.Close()

	err = dot(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", d.svgFileName)
	}

	return nil
}

const maxRGB = 240

// AddMeasure colors each step by its average duration relative to the
// slowest step.
func (d *SVGDrawer) AddMeasure(msr measure.Measure) error {
	durations := make(map[string]time.Duration)
	sorted := []time.Duration{}

	for name, step := range msr.AllMetrics() {
		avg := step.AVGDuration()
		durations[name] = avg
		sorted = append(sorted, avg)
	}

	if len(sorted) == 0 {
		return nil
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] > sorted[j]
	})

	maxValue := sorted[0]
	minValue := sorted[len(sorted)-1]

	for name, curr := range durations {
		fraction := float64(1)
		if maxValue > minValue {
			fraction = float64(curr-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := -maxRGB*fraction + maxRGB

		heat, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex properties for %s", name)
		}

		properties.Attributes["color"] = heat.ToHEX().String()
		if durations[name] != 0 {
			properties.Attributes["xlabel"] = durations[name].String()
		}
		if step := msr.GetMetric(name); step != nil && step.GetPassDuration() > 0 {
			properties.Attributes["xlabel"] += ", pass: " + step.GetPassDuration().String()
		}
	}

	return nil
}

const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceWeight     int
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeWeight       int
	EdgeAttributes   map[string]string
}

func dot[K comparable, T any](g graph.Graph[K, T], w io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, options...)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(w, desc)
}

func generateDOT[K comparable, T any](g graph.Graph[K, T], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if g.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := g.AdjacencyMap()
	if err != nil {
		return desc, err
	}

	for vertex, adjacencies := range adjacencyMap {
		_, sourceProperties, err := g.VertexWithProperties(vertex)
		if err != nil {
			return desc, err
		}
		htmlAttributes := make(map[string]string)
		if xlabel, ok := sourceProperties.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)
			delete(sourceProperties.Attributes, "xlabel")
		}

		stmt := statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
			HTMLAttributes:   htmlAttributes,
		}
		desc.Statements = append(desc.Statements, stmt)

		for adjacency, edge := range adjacencies {
			stmt := statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			}
			desc.Statements = append(desc.Statements, stmt)
		}
	}

	return desc, nil
}

func renderDOT(w io.Writer, d description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	return tpl.Execute(w, d)
}
