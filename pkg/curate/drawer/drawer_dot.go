package drawer

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"

	"github.com/askiada/go-curate/internal/store"
	"github.com/askiada/go-curate/pkg/curate/measure"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// DOTDrawer renders a run as a Graphviz DOT file.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	order    []string
	fileName string
}

// NewDOTDrawer creates a drawer writing to fileName.
func NewDOTDrawer(fileName string) *DOTDrawer {
	d := &DOTDrawer{fileName: fileName}
	d.Reset()

	return d
}

// Reset starts a new, empty graph.
func (d *DOTDrawer) Reset() {
	d.graph = graph.NewWithStore(graph.StringHash, store.NewMemoryStore[string, string](), graph.Directed())
	d.order = nil
}

// AddStep adds a stage to the graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	d.order = append(d.order, name)

	return nil
}

// AddLink adds a link between parent and child stages.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

const maxRGB = 240

// rejectionColour goes from blue when nothing was rejected to red when
// everything was.
func rejectionColour(stats model.StepStats) (string, error) {
	ratio := 0.0
	if stats.Input > 0 {
		ratio = float64(stats.Issues) / float64(stats.Input)
	}

	red := maxRGB * ratio
	blue := maxRGB - red

	colour, err := colors.RGB(uint8(red), 0, uint8(blue))
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return colour.ToHEX().String(), nil
}

// AddStats labels the link into name and colours name by its rejections.
func (d *DOTDrawer) AddStats(parentName, name string, stats model.StepStats) error {
	_, properties, err := d.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrapf(err, "unable to get vertex %s", name)
	}

	colour, err := rejectionColour(stats)
	if err != nil {
		return err
	}

	properties.Attributes["color"] = colour
	properties.Attributes["tooltip"] = fmt.Sprintf("issues: %d, notes: %d", stats.Issues, stats.Notes)

	if parentName == "" {
		return nil
	}

	err = d.graph.UpdateEdge(parentName, name,
		graph.EdgeAttribute("label", fmt.Sprintf("%d records", stats.Input)),
		graph.EdgeAttribute("fontcolor", "blue"),
	)
	if err != nil {
		return errors.Wrap(err, "unable to update edge")
	}

	return nil
}

// SetTotalTime sets the time elapsed since startTime on name.
func (d *DOTDrawer) SetTotalTime(name string, startTime time.Time) error {
	_, properties, err := d.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrapf(err, "unable to get vertex %s", name)
	}

	properties.Attributes["xlabel"] = "total: " + time.Since(startTime).Round(time.Millisecond).String()

	return nil
}

// AddMeasure writes the mean call time of every measured stage.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	for name, mt := range msr.AllMetrics() {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		label := fmt.Sprintf("x%d", mt.Concurrent())
		if avg := mt.AVGDuration(); avg != 0 {
			label += ", avg: " + avg.String()
		}

		if total := mt.GetTotalDuration(); total > 0 {
			label += ", end: " + round(total).String()
		}

		properties.Attributes["xlabel"] = label
	}

	return nil
}

func round(d time.Duration) time.Duration {
	if d > time.Millisecond {
		return d.Round(time.Millisecond)
	}

	return d.Round(time.Microsecond)
}

// Draw writes the DOT file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}

	err = d.Render(file)
	if err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "unable to write dot file %s", d.fileName)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", d.fileName)
}

// Render writes the DOT description to wrt. Stages appear in the order they
// were added.
func (d *DOTDrawer) Render(wrt io.Writer, options ...func(*description)) error {
	desc, err := d.generateDOT(options...)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
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
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

// GraphAttribute is a functional option for Render.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

func (d *DOTDrawer) generateDOT(options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "->",
		Statements:   make([]statement, 0, 2*len(d.order)),
	}

	for _, option := range options {
		option(&desc)
	}

	edges, err := d.graph.Edges()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list edges")
	}

	for _, vertex := range d.order {
		_, sourceProperties, err := d.graph.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(sourceProperties.Attributes))
		htmlAttributes := make(map[string]string)

		for k, v := range sourceProperties.Attributes {
			if k == "xlabel" {
				htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, v)
				continue
			}

			attributes[k] = v
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		for _, edge := range edges {
			if edge.Source != vertex {
				continue
			}

			desc.Statements = append(desc.Statements, statement{
				Source:         edge.Source,
				Target:         edge.Target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
