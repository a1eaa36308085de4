// Package plotimg renders function graphs to PNG files. 2-D plots sample a
// single-variable expression over a symmetric domain; 3-D plots sample
// f(x, y) on a square grid and draw it as a heat map.
package plotimg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"erik/internal/adapter/mathexpr"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Fixed sampling domains and resolutions.
const (
	Domain2D    = 10.0 // x in [-10, 10]
	Samples2D   = 400
	Domain3D    = 5.0 // x, y in [-5, 5]
	GridSize3D  = 50
	paletteSize = 255
)

// Dimensionality selects the plot style.
type Dimensionality int

const (
	Dim2D Dimensionality = iota
	Dim3D
)

// Figure is a rendered plot.
type Figure struct {
	Path         string
	FinitePoints int
}

// Renderer writes figures into OutDir.
type Renderer struct {
	OutDir string
}

// New returns a renderer writing into dir, defaulting to the OS temp dir.
func New(dir string) *Renderer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Renderer{OutDir: dir}
}

// Render samples the expression and writes a PNG. A parse failure or an
// expression with no finite samples over the whole domain is an error.
func (r *Renderer) Render(ctx context.Context, expression string, dim Dimensionality) (*Figure, error) {
	expr, err := mathexpr.Parse(expression)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot directory: %w", err)
	}
	switch dim {
	case Dim2D:
		return r.render2D(ctx, expr, expression)
	case Dim3D:
		return r.render3D(ctx, expr, expression)
	default:
		return nil, fmt.Errorf("unknown dimensionality %d", dim)
	}
}

func (r *Renderer) render2D(ctx context.Context, expr mathexpr.Expr, label string) (*Figure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, 0, Samples2D)
	step := 2 * Domain2D / float64(Samples2D-1)
	for i := 0; i < Samples2D; i++ {
		x := -Domain2D + float64(i)*step
		y, err := mathexpr.Eval(expr, map[string]float64{"x": x})
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			// Undefined at this sample; skip the point, not the plot.
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%q has no finite values on [-%g, %g]", label, Domain2D, Domain2D)
	}

	p := plot.New()
	p.Title.Text = "Graph of " + label
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("build line: %w", err)
	}
	p.Add(line)

	path := r.outPath("plot2d")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("save figure: %w", err)
	}
	return &Figure{Path: path, FinitePoints: len(pts)}, nil
}

// surfaceGrid adapts sampled z values to plotter.GridXYZ.
type surfaceGrid struct {
	z    []float64 // row-major, GridSize3D x GridSize3D
	step float64
}

func (g surfaceGrid) Dims() (int, int)   { return GridSize3D, GridSize3D }
func (g surfaceGrid) Z(c, r int) float64 { return g.z[r*GridSize3D+c] }
func (g surfaceGrid) X(c int) float64    { return -Domain3D + float64(c)*g.step }
func (g surfaceGrid) Y(r int) float64    { return -Domain3D + float64(r)*g.step }

func (r *Renderer) render3D(ctx context.Context, expr mathexpr.Expr, label string) (*Figure, error) {
	step := 2 * Domain3D / float64(GridSize3D-1)
	z := make([]float64, GridSize3D*GridSize3D)
	finite := make([]int, GridSize3D)

	// Rows are independent; sample them in parallel.
	g, ctx := errgroup.WithContext(ctx)
	for row := 0; row < GridSize3D; row++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			y := -Domain3D + float64(row)*step
			for col := 0; col < GridSize3D; col++ {
				x := -Domain3D + float64(col)*step
				v, err := mathexpr.Eval(expr, map[string]float64{"x": x, "y": y})
				if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
					z[row*GridSize3D+col] = math.NaN()
					continue
				}
				z[row*GridSize3D+col] = v
				finite[row]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, n := range finite {
		total += n
	}
	if total == 0 {
		return nil, fmt.Errorf("%q has no finite values on [-%g, %g]^2", label, Domain3D, Domain3D)
	}

	// The heat map cannot color NaN cells; paint them with the floor value.
	floor := math.Inf(1)
	for _, v := range z {
		if !math.IsNaN(v) && v < floor {
			floor = v
		}
	}
	for i, v := range z {
		if math.IsNaN(v) {
			z[i] = floor
		}
	}

	p := plot.New()
	p.Title.Text = "Surface of " + label
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	pal := moreland.SmoothBlueRed().Palette(paletteSize)
	p.Add(plotter.NewHeatMap(surfaceGrid{z: z, step: step}, pal))

	path := r.outPath("plot3d")
	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("save figure: %w", err)
	}
	return &Figure{Path: path, FinitePoints: total}, nil
}

func (r *Renderer) outPath(prefix string) string {
	return filepath.Join(r.OutDir, fmt.Sprintf("%s-%d.png", prefix, time.Now().UnixNano()))
}
