package testutil

import (
	"net/http"
	"os"
	"strings"
	"testing"
)

func TestWriteVTK(t *testing.T) {
	path := WriteVTK(t)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("fixture not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "# vtk DataFile") {
		t.Errorf("fixture missing VTK header: %q", string(data[:20]))
	}
}

func TestAssertStatusCode(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)

	ok := t.Run("status mismatch", func(t *testing.T) {
		AssertStatusCode(t, http.StatusOK, http.StatusBadRequest)
	})
	if ok {
		t.Fatal("expected subtest to fail on mismatched status code")
	}
}
