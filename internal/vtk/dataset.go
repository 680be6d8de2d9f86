// Package vtk reads datasets in the legacy ASCII VTK file format. It covers
// the subset used by topology exports: point geometry, cell counts, and
// point-data attribute arrays. Rendering is the visualization engine's job;
// this package only surfaces the data the RPC layer reports and colors by.
package vtk

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DataArray is one point-data attribute array.
type DataArray struct {
	Name       string
	Components int
	// Values holds tuples in point order, Components values per point.
	Values []float64
	// Min and Max are the range of the first component, which is what the
	// color transfer function and contour spacing operate on.
	Min float64
	Max float64
}

// Range returns the first-component range as a two-element slice, the shape
// the dashboard expects in JSON.
func (a *DataArray) Range() []float64 { return []float64{a.Min, a.Max} }

// Component returns the values of one component across all points.
func (a *DataArray) Component(c int) []float64 {
	if c < 0 || c >= a.Components {
		return nil
	}
	out := make([]float64, 0, len(a.Values)/a.Components)
	for i := c; i < len(a.Values); i += a.Components {
		out = append(out, a.Values[i])
	}
	return out
}

// Dataset is a parsed legacy VTK file.
type Dataset struct {
	Title  string
	Kind   string // POLYDATA, UNSTRUCTURED_GRID or STRUCTURED_GRID
	Points [][3]float64
	Cells  int
	Arrays []DataArray
}

// NumPoints returns the point count.
func (d *Dataset) NumPoints() int { return len(d.Points) }

// Array looks up a point-data array by name.
func (d *Dataset) Array(name string) (*DataArray, bool) {
	for i := range d.Arrays {
		if d.Arrays[i].Name == name {
			return &d.Arrays[i], true
		}
	}
	return nil, false
}

// Bounds returns the axis-aligned bounding box as
// [xmin, xmax, ymin, ymax, zmin, zmax].
func (d *Dataset) Bounds() [6]float64 {
	var b [6]float64
	if len(d.Points) == 0 {
		return b
	}
	for axis := 0; axis < 3; axis++ {
		vals := make([]float64, len(d.Points))
		for i, p := range d.Points {
			vals[i] = p[axis]
		}
		b[2*axis] = floats.Min(vals)
		b[2*axis+1] = floats.Max(vals)
	}
	return b
}

// setRange computes Min/Max from the first component of Values.
func (a *DataArray) setRange() error {
	comp0 := a.Component(0)
	if len(comp0) == 0 {
		return fmt.Errorf("array %q has no values", a.Name)
	}
	a.Min = floats.Min(comp0)
	a.Max = floats.Max(comp0)
	return nil
}
