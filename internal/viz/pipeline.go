// Package viz is the binding layer between the RPC surface and the
// rendering engine. The Pipeline mirrors the call sequence a ParaViewWeb
// protocol would make: create a view, load the dataset, configure the
// representation, look up color transfer functions, export screenshots. All
// rendering value lives in gonum/plot; this package only marshals state into
// it.
package viz

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/plot/palette"

	"github.com/invincibleAntares/vtu-vtk/internal/config"
	"github.com/invincibleAntares/vtu-vtk/internal/fsutil"
	"github.com/invincibleAntares/vtu-vtk/internal/security"
	"github.com/invincibleAntares/vtu-vtk/internal/vtk"
)

// Operation result statuses on the wire.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ArrayInfo describes one point-data array to the dashboard.
type ArrayInfo struct {
	Name       string    `json:"name"`
	Range      []float64 `json:"range"`
	Components int       `json:"components"`
}

// InitResult is the payload of vtk.initialize.
type InitResult struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	DataArrays []ArrayInfo `json:"data_arrays,omitempty"`
	Bounds     []float64   `json:"bounds,omitempty"`
	Points     int         `json:"points,omitempty"`
	Cells      int         `json:"cells,omitempty"`
}

// OpResult is the payload of vtk.apply_color_map.
type OpResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ContourResult is the payload of vtk.generate_contours.
type ContourResult struct {
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	ContourValues []float64 `json:"contour_values,omitempty"`
}

// ExportResult is the payload of vtk.export_image.
type ExportResult struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
}

// ExportRecorder receives a record of every written screenshot. The store
// implements it; the pipeline stays storage-agnostic.
type ExportRecorder interface {
	RecordExport(sessionID, filename string, width, height int, sizeBytes int64) error
}

// Pipeline holds the per-server visualization state and implements the four
// RPC operations. Handler failures are reported in-result with status
// "error" rather than as transport errors, which is what the dashboard's
// RPC client expects.
type Pipeline struct {
	mu        sync.Mutex
	settings  config.Settings
	dataPath  string
	outputDir string
	sessionID string
	fs        fsutil.FileSystem

	view    *View
	dataset *vtk.Dataset
	arrays  []ArrayInfo

	colorArray    string
	colorMapName  string
	colorMap      palette.ColorMap
	showScalarBar bool

	contourArray  string
	contourValues []float64

	recorder ExportRecorder
}

// NewPipeline creates a pipeline that loads dataPath on initialize and
// writes exports under outputDir.
func NewPipeline(settings config.Settings, dataPath, outputDir string) *Pipeline {
	return &Pipeline{
		settings:  settings,
		dataPath:  dataPath,
		outputDir: outputDir,
		sessionID: uuid.New().String(),
		fs:        fsutil.OSFileSystem{},
	}
}

// SetFileSystem replaces the filesystem used for dataset reads and export
// writes. Tests use a MemoryFileSystem.
func (p *Pipeline) SetFileSystem(fs fsutil.FileSystem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fs = fs
}

// SessionID tags audit records for this pipeline's lifetime.
func (p *Pipeline) SessionID() string { return p.sessionID }

// SetExportRecorder installs the export audit sink. Pass nil to disable.
func (p *Pipeline) SetExportRecorder(r ExportRecorder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recorder = r
}

// ContourState reports the active contour overlay for the chart endpoint.
func (p *Pipeline) ContourState() (string, []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	values := make([]float64, len(p.contourValues))
	copy(values, p.contourValues)
	return p.contourArray, values
}

// Initialize builds the render view, loads the dataset, and reports its
// arrays, bounds, and sizes.
func (p *Pipeline) Initialize() *InitResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Printf("viz: initializing visualization pipeline (session %s)", p.sessionID)

	p.view = &View{
		Width:      p.settings.ViewWidth,
		Height:     p.settings.ViewHeight,
		Background: rgbColor(p.settings.Background),
	}

	path, err := p.locateDataFile()
	if err != nil {
		log.Printf("viz: %v", err)
		return &InitResult{Status: StatusError, Message: err.Error()}
	}

	log.Printf("viz: loading VTK file: %s", path)
	f, err := p.fs.Open(path)
	if err != nil {
		log.Printf("viz: initialization failed: %v", err)
		return &InitResult{Status: StatusError, Message: fmt.Sprintf("initialization failed: %v", err)}
	}
	ds, err := vtk.Read(f)
	f.Close()
	if err != nil {
		log.Printf("viz: initialization failed: %v", err)
		return &InitResult{Status: StatusError, Message: fmt.Sprintf("initialization failed: %v", err)}
	}

	p.dataset = ds
	p.colorArray = ""
	p.colorMap = nil
	p.showScalarBar = false
	p.contourArray = ""
	p.contourValues = nil

	p.arrays = make([]ArrayInfo, len(ds.Arrays))
	for i := range ds.Arrays {
		arr := &ds.Arrays[i]
		p.arrays[i] = ArrayInfo{Name: arr.Name, Range: arr.Range(), Components: arr.Components}
		log.Printf("viz: found data array: %s (range: [%g, %g])", arr.Name, arr.Min, arr.Max)
	}

	bounds := ds.Bounds()
	return &InitResult{
		Status:     StatusSuccess,
		Message:    "visualization pipeline initialized successfully",
		DataArrays: p.arrays,
		Bounds:     bounds[:],
		Points:     ds.NumPoints(),
		Cells:      ds.Cells,
	}
}

// ApplyColorMap colors the surface representation by the named point array
// using a preset transfer function and enables the scalar bar.
func (p *Pipeline) ApplyColorMap(arrayName, colorMapName string) *OpResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dataset == nil || arrayName == "" {
		return &OpResult{Status: StatusError, Message: "no valid representation or array"}
	}

	arr, ok := p.dataset.Array(arrayName)
	if !ok {
		return &OpResult{Status: StatusError, Message: fmt.Sprintf("array %s not found", arrayName)}
	}

	if colorMapName == "" {
		colorMapName = p.settings.DefaultColorMap
	}
	log.Printf("viz: applying color map %q to array %q", colorMapName, arrayName)

	used, cm := LookupColorMap(colorMapName)
	min, max := arr.Min, arr.Max
	if max <= min {
		// A constant array still needs a non-degenerate transfer function.
		max = min + 1
	}
	cm.SetMin(min)
	cm.SetMax(max)

	p.colorArray = arrayName
	p.colorMapName = used
	p.colorMap = cm
	p.showScalarBar = true

	return &OpResult{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("applied %s color map to %s", used, arrayName),
	}
}

// GenerateContours computes evenly spaced iso-values strictly inside the
// array's range and installs the contour overlay.
func (p *Pipeline) GenerateContours(arrayName string, numContours int) *ContourResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dataset == nil || arrayName == "" {
		return &ContourResult{Status: StatusError, Message: "no valid data or array"}
	}

	arr, ok := p.dataset.Array(arrayName)
	if !ok {
		return &ContourResult{Status: StatusError, Message: fmt.Sprintf("array %s not found", arrayName)}
	}

	if numContours <= 0 {
		numContours = p.settings.DefaultContours
	}
	log.Printf("viz: generating %d contours for array %q", numContours, arrayName)

	step := (arr.Max - arr.Min) / float64(numContours+1)
	values := make([]float64, numContours)
	for i := range values {
		values[i] = arr.Min + step*float64(i+1)
	}

	p.contourArray = arrayName
	p.contourValues = values

	return &ContourResult{
		Status:        StatusSuccess,
		Message:       fmt.Sprintf("generated %d contours", numContours),
		ContourValues: values,
	}
}

// ExportImage resizes the view and writes a PNG screenshot of the current
// scene. Relative filenames land in the configured output directory.
func (p *Pipeline) ExportImage(filename string, width, height int) *ExportResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.view == nil {
		return &ExportResult{Status: StatusError, Message: "no valid view"}
	}

	if filename == "" {
		filename = p.settings.ExportFilename
	}
	if width <= 0 {
		width = p.settings.ExportWidth
	}
	if height <= 0 {
		height = p.settings.ExportHeight
	}
	log.Printf("viz: exporting image: %s (%dx%d)", filename, width, height)

	p.view.Width = width
	p.view.Height = height

	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.outputDir, path)
		if err := security.ValidatePathWithinDirectory(path, p.outputDir); err != nil {
			log.Printf("viz: image export rejected: %v", err)
			return &ExportResult{Status: StatusError, Message: fmt.Sprintf("image export failed: %v", err)}
		}
	}

	scene := &Scene{
		Dataset:        p.dataset,
		ColorArray:     p.colorArray,
		ColorMap:       p.colorMap,
		ShowScalarBar:  p.showScalarBar,
		ScalarBarTitle: p.colorArray,
		ContourArray:   p.contourArray,
		ContourValues:  p.contourValues,
		ContourOpacity: p.settings.ContourOpacity,
	}

	if err := p.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("viz: image export failed: %v", err)
		return &ExportResult{Status: StatusError, Message: fmt.Sprintf("image export failed: %v", err)}
	}
	f, err := p.fs.Create(path)
	if err != nil {
		log.Printf("viz: image export failed: %v", err)
		return &ExportResult{Status: StatusError, Message: fmt.Sprintf("image export failed: %v", err)}
	}
	size, err := RenderPNG(scene, *p.view, f)
	f.Close()
	if err != nil {
		log.Printf("viz: image export failed: %v", err)
		return &ExportResult{Status: StatusError, Message: fmt.Sprintf("image export failed: %v", err)}
	}

	if p.recorder != nil {
		if err := p.recorder.RecordExport(p.sessionID, filename, width, height, size); err != nil {
			log.Printf("viz: failed to record export: %v", err)
		}
	}

	return &ExportResult{
		Status:   StatusSuccess,
		Message:  fmt.Sprintf("image exported: %s", filename),
		Filename: filename,
	}
}

// locateDataFile resolves the dataset path, falling back to the bare
// filename in the working directory when the configured path is missing.
func (p *Pipeline) locateDataFile() (string, error) {
	if p.fs.Exists(p.dataPath) {
		return p.dataPath, nil
	}
	log.Printf("viz: VTK file not found: %s", p.dataPath)
	base := filepath.Base(p.dataPath)
	if base != p.dataPath && p.fs.Exists(base) {
		return base, nil
	}
	return "", fmt.Errorf("VTK file not found: %s", p.dataPath)
}

func rgbColor(rgb [3]float64) color.Color {
	return color.NRGBA{
		R: uint8(rgb[0] * 255),
		G: uint8(rgb[1] * 255),
		B: uint8(rgb[2] * 255),
		A: 255,
	}
}
