package experiment

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/mlkit/linear"
	"github.com/YuminosukeSato/mlkit/optimize"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/sklearn/cluster"
)

const chartSize = 5 * vg.Inch

var (
	black = color.RGBA{A: 255}
	grey  = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

func save(p *plot.Plot, path string) error {
	if err := p.Save(chartSize, chartSize, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}

// clusterChart plots the first two features coloured by cluster, noise in
// grey, and the centroids as crosses.
func clusterChart(title string, X [][]float64, labels []int, centroids [][]float64, path string) error {
	if len(X) == 0 || len(X[0]) < 2 {
		return errors.NewValueError("clusterChart", "need at least two features to plot")
	}
	p := plot.New()
	p.Title.Text = title + " on first two features"
	p.X.Label.Text = "Feature 1"
	p.Y.Label.Text = "Feature 2"

	groups := make(map[int]plotter.XYs)
	var ids []int
	for i, l := range labels {
		if _, ok := groups[l]; !ok {
			ids = append(ids, l)
		}
		groups[l] = append(groups[l], plotter.XY{X: X[i][0], Y: X[i][1]})
	}
	for _, id := range ids {
		s, err := plotter.NewScatter(groups[id])
		if err != nil {
			return err
		}
		name := fmt.Sprintf("cluster %d", id)
		if id == cluster.Noise {
			s.Color = grey
			name = "noise"
		} else {
			s.Color = plotutil.Color(id)
		}
		p.Add(s)
		p.Legend.Add(name, s)
	}

	var cpts plotter.XYs
	for _, c := range centroids {
		if len(c) >= 2 {
			cpts = append(cpts, plotter.XY{X: c[0], Y: c[1]})
		}
	}
	if len(cpts) > 0 {
		c, err := plotter.NewScatter(cpts)
		if err != nil {
			return err
		}
		c.Color = black
		c.Shape = draw.CrossGlyph{}
		c.Radius = vg.Points(5)
		p.Add(c)
		p.Legend.Add("centroids", c)
	}
	return save(p, path)
}

// mseChart plots the error history of gradient descent.
func mseChart(history []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Gradient descent MSE"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "MSE"

	pts := make(plotter.XYs, len(history))
	for i, e := range history {
		pts[i] = plotter.XY{X: float64(i), Y: e}
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(0)
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)
	return save(p, path)
}

// regressionChart plots the target against the first feature, the
// intermediate prediction lines and the final fit.
func regressionChart(X [][]float64, y, pred []float64, lines []linear.PredictionLine, path string) error {
	p := plot.New()
	p.Title.Text = "Linear regression on first feature"
	p.X.Label.Text = "Feature 1"
	p.Y.Label.Text = "Target"

	xy := func(values []float64) plotter.XYs {
		pts := make(plotter.XYs, len(X))
		for i := range X {
			pts[i] = plotter.XY{X: X[i][0], Y: values[i]}
		}
		return pts
	}

	s, err := plotter.NewScatter(xy(y))
	if err != nil {
		return err
	}
	s.Color = plotutil.Color(2)
	p.Add(s)
	p.Legend.Add("data", s)

	for _, pl := range lines {
		if pl.Final {
			continue
		}
		l, err := plotter.NewLine(xy(pl.Values))
		if err != nil {
			return err
		}
		l.Color = grey
		l.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(l)
	}

	l, err := plotter.NewLine(xy(pred))
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(0)
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)
	p.Legend.Add("fit", l)
	return save(p, path)
}

// tourChart draws the initial and best orderings.
func tourChart(initial, best []optimize.Point, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Simulated annealing: %.2f -> %.2f",
		optimize.Energy(initial), optimize.Energy(best))
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	xys := func(tour []optimize.Point) plotter.XYs {
		pts := make(plotter.XYs, len(tour))
		for i, pt := range tour {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		return pts
	}

	start, err := plotter.NewLine(xys(initial))
	if err != nil {
		return err
	}
	start.Color = grey
	start.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(start)
	p.Legend.Add("initial", start)

	l, pts, err := plotter.NewLinePoints(xys(best))
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(0)
	pts.Color = black
	p.Add(l, pts)
	p.Legend.Add("best", l, pts)
	return save(p, path)
}
