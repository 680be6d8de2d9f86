package viz

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/invincibleAntares/vtu-vtk/internal/vtk"
)

// renderDPI converts requested pixel sizes to canvas lengths.
const renderDPI = 96

// scalarBarWidth is the horizontal slice of the canvas reserved for the
// scalar bar when it is visible.
const scalarBarWidth = 1.2 * vg.Inch

// Scene describes what to draw: the dataset surface, an optional scalar
// coloring, and optional contour overlays. It is assembled by the Pipeline
// and consumed by RenderPNG.
type Scene struct {
	Dataset *vtk.Dataset

	// SolidColor paints every point when no color array is active.
	SolidColor color.Color

	// ColorArray and ColorMap drive scalar coloring. The map's min/max must
	// already be set to the array's range.
	ColorArray string
	ColorMap   palette.ColorMap

	ShowScalarBar  bool
	ScalarBarTitle string

	ContourArray   string
	ContourValues  []float64
	ContourOpacity float64
}

// View holds the render view geometry.
type View struct {
	Width      int
	Height     int
	Background color.Color
}

// RenderPNG draws the scene as a PNG of the view's pixel size and writes it
// to w, returning the encoded byte count. The dataset is projected
// orthographically onto the XY plane; depth is carried by scalar color rather
// than perspective, which is what the dashboard's topology view shows.
func RenderPNG(scene *Scene, view View, out io.Writer) (int64, error) {
	if scene.Dataset == nil {
		return 0, fmt.Errorf("no dataset loaded")
	}
	if view.Width <= 0 || view.Height <= 0 {
		return 0, fmt.Errorf("invalid view size %dx%d", view.Width, view.Height)
	}

	p := plot.New()
	p.Title.Text = scene.Dataset.Title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	if view.Background != nil {
		p.BackgroundColor = view.Background
	}

	if err := addSurface(p, scene); err != nil {
		return 0, err
	}
	if err := addContours(p, scene); err != nil {
		return 0, err
	}

	w := vg.Length(view.Width) / renderDPI * vg.Inch
	h := vg.Length(view.Height) / renderDPI * vg.Inch

	img := vgimg.NewWith(vgimg.UseDPI(renderDPI), vgimg.UseWH(w, h))
	dc := draw.New(img)

	if scene.ShowScalarBar && scene.ColorMap != nil {
		bar := plot.New()
		bar.Title.Text = scene.ScalarBarTitle
		bar.HideX()
		cb := &plotter.ColorBar{ColorMap: scene.ColorMap}
		cb.Vertical = true
		bar.Add(cb)

		p.Draw(draw.Crop(dc, 0, -scalarBarWidth, 0, 0))
		bar.Draw(draw.Crop(dc, dc.Max.X-dc.Min.X-scalarBarWidth, 0, 0, 0))
	} else {
		p.Draw(dc)
	}

	png := vgimg.PngCanvas{Canvas: img}
	n, err := png.WriteTo(out)
	if err != nil {
		return 0, fmt.Errorf("encode png: %w", err)
	}
	return n, nil
}

// addSurface adds the projected dataset points, colored through the active
// transfer function or painted with the solid representation color.
func addSurface(p *plot.Plot, scene *Scene) error {
	ds := scene.Dataset
	xys := make(plotter.XYs, len(ds.Points))
	for i, pt := range ds.Points {
		xys[i].X = pt[0]
		xys[i].Y = pt[1]
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("surface scatter: %w", err)
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Shape = draw.CircleGlyph{}

	if scene.ColorArray != "" && scene.ColorMap != nil {
		arr, ok := ds.Array(scene.ColorArray)
		if !ok {
			return fmt.Errorf("array %q not found", scene.ColorArray)
		}
		values := arr.Component(0)
		cm := scene.ColorMap
		base := s.GlyphStyle
		s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			st := base
			v := math.Min(math.Max(values[i], cm.Min()), cm.Max())
			if c, err := cm.At(v); err == nil {
				st.Color = c
			}
			return st
		}
	} else {
		solid := scene.SolidColor
		if solid == nil {
			solid = color.NRGBA{R: 255, A: 255}
		}
		s.GlyphStyle.Color = solid
	}

	p.Add(s)
	return nil
}

// addContours overlays the points that sit on each iso-value band. With an
// unstructured point cloud the contour filter selects the points whose array
// value falls within half a band width of each iso-value.
func addContours(p *plot.Plot, scene *Scene) error {
	if scene.ContourArray == "" || len(scene.ContourValues) == 0 {
		return nil
	}
	ds := scene.Dataset
	arr, ok := ds.Array(scene.ContourArray)
	if !ok {
		return fmt.Errorf("contour array %q not found", scene.ContourArray)
	}
	values := arr.Component(0)

	opacity := scene.ContourOpacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	contourColor := color.NRGBA{B: 255, A: uint8(opacity * 255)}

	band := (arr.Max - arr.Min) / float64(2*(len(scene.ContourValues)+1))
	if band <= 0 {
		band = 1e-9
	}

	for _, iso := range scene.ContourValues {
		var xys plotter.XYs
		for i, v := range values {
			if math.Abs(v-iso) <= band/2 {
				xys = append(xys, plotter.XY{X: ds.Points[i][0], Y: ds.Points[i][1]})
			}
		}
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("contour scatter at %g: %w", iso, err)
		}
		s.GlyphStyle.Radius = vg.Points(1)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = contourColor
		p.Add(s)
	}
	return nil
}
