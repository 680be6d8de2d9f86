// Package testutil provides shared test fixtures and helpers.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// PolyData is a small legacy VTK polydata fixture: six points on two rows
// with a Temperature point array spanning [0, 12].
const PolyData = `# vtk DataFile Version 3.0
Test topology
ASCII
DATASET POLYDATA
POINTS 6 float
0 0 0
1 0 0
2 0 0
0 1 0
1 1 0
2 1 0
POLYGONS 2 8
3 0 1 4
3 0 4 3
POINT_DATA 6
SCALARS Temperature float 1
LOOKUP_TABLE default
0 2 4 6 8 12
`

// WriteVTK writes the PolyData fixture into a temp directory and returns
// its path.
func WriteVTK(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Topology.vtk")
	if err := os.WriteFile(path, []byte(PolyData), 0644); err != nil {
		t.Fatalf("failed to write dataset fixture: %v", err)
	}
	return path
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
