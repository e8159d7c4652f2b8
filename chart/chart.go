// Package chart renders supply/demand curves and market size bars.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"bitcraftsd/config"
	"bitcraftsd/models"
	"bitcraftsd/processor"
)

// Size is the rendered image size.
type Size struct {
	Width  vg.Length
	Height vg.Length
}

// SizeFromConfig reads the chart size in inches.
func SizeFromConfig(cfg config.ChartConfig) Size {
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = 10
	}
	if h <= 0 {
		h = 6
	}
	return Size{Width: vg.Length(w) * vg.Inch, Height: vg.Length(h) * vg.Inch}
}

var (
	demandColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	supplyColor = color.RGBA{R: 40, G: 80, B: 220, A: 255}
)

// SupplyDemand plots every curve with the transaction-averaged price on X
// and the cumulative quantity on Y.
func SupplyDemand(title string, demand, supply []models.NamedCurve) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Transaction-Averaged Price [Ħ]"
	p.Y.Label.Text = "Extant Order Quantity"
	p.X.Min = 0
	p.Y.Min = 0
	p.Legend.Top = true

	for _, group := range []struct {
		curves []models.NamedCurve
		color  color.RGBA
	}{{demand, demandColor}, {supply, supplyColor}} {
		for _, nc := range group.curves {
			line, err := plotter.NewLine(curvePoints(nc.Curve))
			if err != nil {
				return nil, fmt.Errorf("%s line: %w", nc.Label, err)
			}
			styleLine(line, nc.Scope, group.color)
			p.Add(line)
			p.Legend.Add(nc.Label, line)
		}
	}
	return p, nil
}

// curvePoints skips depth zero, which has no average price.
func curvePoints(c models.Curve) plotter.XYs {
	pts := make(plotter.XYs, 0, len(c.PTot))
	for i := 1; i < len(c.PTot); i++ {
		pts = append(pts, plotter.XY{X: c.AveragePrice(i), Y: float64(c.Q[i])})
	}
	return pts
}

func styleLine(line *plotter.Line, scope models.CurveScope, base color.RGBA) {
	c := base
	switch scope {
	case models.ScopeGlobal:
		c.A = 51
		line.LineStyle.Width = vg.Points(1)
	case models.ScopeRegion:
		c.A = 128
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	case models.ScopeClaim:
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
	}
	// Alpha-premultiplied to stay a valid color.RGBA.
	ratio := float64(c.A) / 255
	line.LineStyle.Color = color.RGBA{
		R: uint8(float64(c.R) * ratio),
		G: uint8(float64(c.G) * ratio),
		B: uint8(float64(c.B) * ratio),
		A: c.A,
	}
}

// MarketSizes plots the top claims of a ranking as bars followed by the
// "All Other Markets" bucket.
func MarketSizes(r processor.HoldingsRanking) (*plot.Plot, error) {
	names, amounts := r.Bars()
	values := make(plotter.Values, len(amounts))
	for i, a := range amounts {
		values[i] = float64(a)
	}

	p := plot.New()
	p.Y.Label.Text = r.Metric.Label()
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("%s bars: %w", r.Metric, err)
	}
	bars.Color = supplyColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 9
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.Font.Size = vg.Points(5)
	return p, nil
}

// SaveSupplyDemand renders the curves to path. The format follows the file
// extension.
func SaveSupplyDemand(path string, size Size, title string, demand, supply []models.NamedCurve) error {
	p, err := SupplyDemand(title, demand, supply)
	if err != nil {
		return err
	}
	return save(path, size, [][]*plot.Plot{{p}})
}

// SaveMarketSizes renders the buy and sell rankings stacked in one image.
func SaveMarketSizes(path string, size Size, buy, sell processor.HoldingsRanking) error {
	top, err := MarketSizes(buy)
	if err != nil {
		return err
	}
	top.Title.Text = "BitCraft Online Market Sizes"
	bottom, err := MarketSizes(sell)
	if err != nil {
		return err
	}
	return save(path, size, [][]*plot.Plot{{top}, {bottom}})
}

func save(path string, size Size, plots [][]*plot.Plot) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}

	canvas, err := draw.NewFormattedCanvas(size.Width, size.Height, format)
	if err != nil {
		return fmt.Errorf("chart format %q: %w", format, err)
	}

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, draw.New(canvas))
	for i := range plots {
		for j, p := range plots[i] {
			p.Draw(canvases[i][j])
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := canvas.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write chart %s: %w", path, err)
	}
	return f.Close()
}
