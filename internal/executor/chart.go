package executor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// chartTimestampLayout names saved figures so that repeated runs never
// collide within a second per module sequence.
const chartTimestampLayout = "20060102_150405"

// chartModule gives snippets a plotting surface without an interactive
// display: show and save both render the figure into the output directory
// and close it. Figures still open when the run ends are discarded.
type chartModule struct {
	r    *runner
	open []*figure
	seq  int
}

type figure struct {
	title  string
	series []chartSeries
	closed bool
}

type chartSeries struct {
	label string
	xs    []float64
	ys    []float64
}

func (r *runner) bindChart() error {
	if r.req.OutputDir == "" {
		return ErrModuleUnavailable.Msg("no output directory configured")
	}
	m := &chartModule{r: r}
	r.charts = m

	obj := r.vm.NewObject()
	_ = obj.Set("figure", func(goja.FunctionCall) goja.Value {
		fig := &figure{}
		m.open = append(m.open, fig)
		return m.jsFigure(fig)
	})
	return r.vm.Set("chart", obj)
}

func (m *chartModule) jsFigure(fig *figure) goja.Value {
	vm := m.r.vm
	obj := vm.NewObject()

	_ = obj.Set("title", func(call goja.FunctionCall) goja.Value {
		fig.title = call.Argument(0).String()
		return obj
	})

	_ = obj.Set("plot", func(call goja.FunctionCall) goja.Value {
		var xs, ys []float64
		var err error
		if goja.IsUndefined(call.Argument(1)) || isStringArg(call.Argument(1)) {
			// Single-series form: plot(ys[, label]) with implicit x values.
			ys, err = toFloats(call.Argument(0))
			if err != nil {
				panic(vm.NewGoError(err))
			}
			xs = make([]float64, len(ys))
			for i := range xs {
				xs[i] = float64(i)
			}
		} else {
			xs, err = toFloats(call.Argument(0))
			if err != nil {
				panic(vm.NewGoError(err))
			}
			ys, err = toFloats(call.Argument(1))
			if err != nil {
				panic(vm.NewGoError(err))
			}
		}
		if len(xs) != len(ys) {
			panic(vm.NewGoError(fmt.Errorf("plot: x and y lengths differ (%d vs %d)", len(xs), len(ys))))
		}
		label := ""
		if last := call.Argument(len(call.Arguments) - 1); len(call.Arguments) > 1 && isStringArg(last) {
			label = last.String()
		}
		fig.series = append(fig.series, chartSeries{label: label, xs: xs, ys: ys})
		return obj
	})

	_ = obj.Set("save", func(call goja.FunctionCall) goja.Value {
		base := "plot"
		if !goja.IsUndefined(call.Argument(0)) {
			name := filepath.Base(call.Argument(0).String())
			base = strings.TrimSuffix(name, filepath.Ext(name))
		}
		m.save(fig, base)
		return goja.Undefined()
	})

	_ = obj.Set("show", func(goja.FunctionCall) goja.Value {
		m.save(fig, "plot")
		return goja.Undefined()
	})

	return obj
}

// save renders the figure into the output directory and closes it. A figure
// with no plotted series is closed without producing a file.
func (m *chartModule) save(fig *figure, base string) {
	if fig.closed {
		return
	}
	if len(fig.series) == 0 {
		m.close(fig)
		return
	}
	name := fmt.Sprintf("%s_%s_%d.svg", base, time.Now().Format(chartTimestampLayout), m.seq)
	m.seq++
	path := filepath.Join(m.r.req.OutputDir, name)
	if err := os.WriteFile(path, renderSVG(fig), 0644); err != nil {
		m.r.out.writeLine("[chart save failed: " + err.Error() + "]")
	} else {
		m.r.out.writeLine("[chart saved: " + path + "]")
	}
	m.close(fig)
}

func (m *chartModule) close(fig *figure) {
	fig.closed = true
	for i, f := range m.open {
		if f == fig {
			m.open = append(m.open[:i], m.open[i+1:]...)
			break
		}
	}
}

// closeAll discards figures left open at the end of a run without saving
// them. Auto-saving here would attribute stale figures to the wrong run.
func (m *chartModule) closeAll() {
	for _, fig := range m.open {
		fig.closed = true
	}
	m.open = nil
}

func isStringArg(v goja.Value) bool {
	_, ok := v.Export().(string)
	return ok
}

func toFloats(v goja.Value) ([]float64, error) {
	raw, ok := v.Export().([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of numbers, got %T", v.Export())
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		switch n := x.(type) {
		case int64:
			out[i] = float64(n)
		case float64:
			out[i] = n
		default:
			return nil, fmt.Errorf("expected numeric element at index %d, got %T", i, x)
		}
	}
	return out, nil
}

const (
	svgWidth   = 640
	svgHeight  = 480
	svgPadding = 48
)

var seriesColors = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

// renderSVG draws the figure as a minimal line chart. Scales are computed
// over all series together so they share one coordinate system.
func renderSVG(fig *figure) []byte {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range fig.series {
		for i := range s.xs {
			minX = math.Min(minX, s.xs[i])
			maxX = math.Max(maxX, s.xs[i])
			minY = math.Min(minY, s.ys[i])
			maxY = math.Max(maxY, s.ys[i])
		}
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}

	plotW := float64(svgWidth - 2*svgPadding)
	plotH := float64(svgHeight - 2*svgPadding)
	tx := func(x float64) float64 { return svgPadding + (x-minX)/(maxX-minX)*plotW }
	ty := func(y float64) float64 { return svgHeight - svgPadding - (y-minY)/(maxY-minY)*plotH }

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, svgWidth, svgHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`,
		svgPadding, svgHeight-svgPadding, svgWidth-svgPadding, svgHeight-svgPadding)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`,
		svgPadding, svgPadding, svgPadding, svgHeight-svgPadding)

	for i, s := range fig.series {
		color := seriesColors[i%len(seriesColors)]
		var pts strings.Builder
		for j := range s.xs {
			fmt.Fprintf(&pts, "%.2f,%.2f ", tx(s.xs[j]), ty(s.ys[j]))
		}
		fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>`,
			color, strings.TrimSpace(pts.String()))
		if s.label != "" {
			fmt.Fprintf(&b, `<text x="%d" y="%d" fill="%s" font-size="12">%s</text>`,
				svgWidth-svgPadding-100, svgPadding+16*(i+1), color, svgEscape(s.label))
		}
	}

	if fig.title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-size="16">%s</text>`,
			svgWidth/2, svgPadding/2+8, svgEscape(fig.title))
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func svgEscape(s string) string {
	rep := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return rep.Replace(s)
}
