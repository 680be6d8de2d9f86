package vtk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const samplePolyData = `# vtk DataFile Version 3.0
Topology sample
ASCII
DATASET POLYDATA
POINTS 4 float
0 0 0
1 0 0.5
1 1 1
0 1 2
POLYGONS 2 8
3 0 1 2
3 0 2 3
POINT_DATA 4
SCALARS Temperature float 1
LOOKUP_TABLE default
10.0 20.0 30.0 40.0
VECTORS Velocity float
1 0 0
0 1 0
0 0 1
1 1 0
FIELD FieldData 1
Pressure 1 4 float
100 105 110 99
`

const sampleUnstructured = `# vtk DataFile Version 2.0
Unstructured sample
ASCII
DATASET UNSTRUCTURED_GRID
POINTS 3 double
-1 -2 -3
0 0 0
1 2 3
CELLS 1 4
3 0 1 2
CELL_TYPES 1
5
POINT_DATA 3
SCALARS Elevation float
LOOKUP_TABLE default
-3 0 3
`

func TestReadPolyData(t *testing.T) {
	ds, err := Read(strings.NewReader(samplePolyData))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if ds.Title != "Topology sample" {
		t.Errorf("title = %q", ds.Title)
	}
	if ds.Kind != "POLYDATA" {
		t.Errorf("kind = %q", ds.Kind)
	}
	if ds.NumPoints() != 4 {
		t.Errorf("points = %d, want 4", ds.NumPoints())
	}
	if ds.Cells != 2 {
		t.Errorf("cells = %d, want 2", ds.Cells)
	}

	wantBounds := [6]float64{0, 1, 0, 1, 0, 2}
	if diff := cmp.Diff(wantBounds, ds.Bounds()); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}

	if len(ds.Arrays) != 3 {
		t.Fatalf("arrays = %d, want 3", len(ds.Arrays))
	}

	temp, ok := ds.Array("Temperature")
	if !ok {
		t.Fatal("Temperature array not found")
	}
	if temp.Components != 1 {
		t.Errorf("Temperature components = %d", temp.Components)
	}
	if diff := cmp.Diff([]float64{10, 40}, temp.Range()); diff != "" {
		t.Errorf("Temperature range mismatch (-want +got):\n%s", diff)
	}

	vel, ok := ds.Array("Velocity")
	if !ok {
		t.Fatal("Velocity array not found")
	}
	if vel.Components != 3 {
		t.Errorf("Velocity components = %d, want 3", vel.Components)
	}
	// The range is over the first component only.
	if diff := cmp.Diff([]float64{0, 1}, vel.Range()); diff != "" {
		t.Errorf("Velocity range mismatch (-want +got):\n%s", diff)
	}

	pressure, ok := ds.Array("Pressure")
	if !ok {
		t.Fatal("Pressure array not found")
	}
	if diff := cmp.Diff([]float64{99, 110}, pressure.Range()); diff != "" {
		t.Errorf("Pressure range mismatch (-want +got):\n%s", diff)
	}
}

func TestReadUnstructuredGrid(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleUnstructured))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if ds.Kind != "UNSTRUCTURED_GRID" {
		t.Errorf("kind = %q", ds.Kind)
	}
	if ds.NumPoints() != 3 || ds.Cells != 1 {
		t.Errorf("points/cells = %d/%d, want 3/1", ds.NumPoints(), ds.Cells)
	}

	elev, ok := ds.Array("Elevation")
	if !ok {
		t.Fatal("Elevation array not found")
	}
	if elev.Min != -3 || elev.Max != 3 {
		t.Errorf("Elevation range = [%g, %g], want [-3, 3]", elev.Min, elev.Max)
	}

	wantBounds := [6]float64{-1, 1, -2, 2, -3, 3}
	if diff := cmp.Diff(wantBounds, ds.Bounds()); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.vtk")
	if err := os.WriteFile(path, []byte(samplePolyData), 0644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}

	ds, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if ds.NumPoints() != 4 {
		t.Errorf("points = %d, want 4", ds.NumPoints())
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.vtk")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadRejectsBinary(t *testing.T) {
	input := "# vtk DataFile Version 3.0\ntitle\nBINARY\nDATASET POLYDATA\n"
	if _, err := Read(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for binary format")
	}
}

func TestReadRejectsBadHeader(t *testing.T) {
	if _, err := Read(strings.NewReader("not a vtk file\n\n\n")); err == nil {
		t.Fatal("expected error for bad header")
	}
}

func TestReadRejectsCountMismatch(t *testing.T) {
	input := `# vtk DataFile Version 3.0
bad counts
ASCII
DATASET POLYDATA
POINTS 2 float
0 0 0
1 1 1
POINT_DATA 5
`
	if _, err := Read(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for point data count mismatch")
	}
}

func TestReadRejectsEmptyDataset(t *testing.T) {
	input := `# vtk DataFile Version 3.0
empty
ASCII
DATASET POLYDATA
`
	if _, err := Read(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for dataset with no points")
	}
}

func TestComponentExtraction(t *testing.T) {
	arr := DataArray{Name: "v", Components: 3, Values: []float64{1, 2, 3, 4, 5, 6}}
	if diff := cmp.Diff([]float64{1, 4}, arr.Component(0)); diff != "" {
		t.Errorf("component 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3, 6}, arr.Component(2)); diff != "" {
		t.Errorf("component 2 mismatch (-want +got):\n%s", diff)
	}
	if arr.Component(3) != nil {
		t.Error("out of range component should be nil")
	}
}

func TestReadScalarsWithoutLookupTable(t *testing.T) {
	// No LOOKUP_TABLE line and integer-valued data: the first value must
	// not be mistaken for the header's optional component count.
	input := `# vtk DataFile Version 3.0
table-less scalars
ASCII
DATASET POLYDATA
POINTS 3 float
0 0 0
1 0 0
2 0 0
POINT_DATA 3
SCALARS Flags int
3 4 5
`
	ds, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	arr, ok := ds.Array("Flags")
	if !ok {
		t.Fatal("Flags array missing")
	}
	if arr.Components != 1 {
		t.Errorf("components = %d, want 1", arr.Components)
	}
	if diff := cmp.Diff([]float64{3, 4, 5}, arr.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRejectsBadComponentCount(t *testing.T) {
	input := `# vtk DataFile Version 3.0
bad comps
ASCII
DATASET POLYDATA
POINTS 1 float
0 0 0
POINT_DATA 1
SCALARS T float default
1.0
`
	if _, err := Read(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for non-numeric component count")
	}
}
