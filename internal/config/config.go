package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxConfigFileSize caps config files at 1MB to prevent loading huge files.
const maxConfigFileSize = 1 << 20

// Config holds the render defaults for the visualization pipeline. All
// fields are pointers so a partial JSON file only overrides what it names;
// the same shape is accepted on startup and (in future) over the API.
type Config struct {
	// View params
	ViewWidth  *int        `json:"view_width,omitempty"`
	ViewHeight *int        `json:"view_height,omitempty"`
	Background *[3]float64 `json:"background,omitempty"` // RGB in 0..1

	// Color mapping params
	DefaultColorMap *string `json:"default_color_map,omitempty"`

	// Contour params
	DefaultContours *int     `json:"default_contours,omitempty"`
	ContourOpacity  *float64 `json:"contour_opacity,omitempty"`

	// Export params
	ExportWidth    *int    `json:"export_width,omitempty"`
	ExportHeight   *int    `json:"export_height,omitempty"`
	ExportFilename *string `json:"export_filename,omitempty"`
}

// Helper functions to create pointers
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// Default returns the stock render configuration: a 1200x800 view on a dark
// background, Cool to Warm coloring, five contours at 0.7 opacity, and
// 1920x1080 exports.
func Default() *Config {
	return &Config{
		ViewWidth:       ptrInt(1200),
		ViewHeight:      ptrInt(800),
		Background:      &[3]float64{0.1, 0.1, 0.1},
		DefaultColorMap: ptrString("Cool to Warm"),
		DefaultContours: ptrInt(5),
		ContourOpacity:  ptrFloat64(0.7),
		ExportWidth:     ptrInt(1920),
		ExportHeight:    ptrInt(1080),
		ExportFilename:  ptrString("paraview_export.png"),
	}
}

// Load reads a Config from a JSON file. Fields omitted from the file stay
// nil, so partial configs are safe to merge over defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// Merge overlays the non-nil fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.ViewWidth != nil {
		c.ViewWidth = other.ViewWidth
	}
	if other.ViewHeight != nil {
		c.ViewHeight = other.ViewHeight
	}
	if other.Background != nil {
		c.Background = other.Background
	}
	if other.DefaultColorMap != nil {
		c.DefaultColorMap = other.DefaultColorMap
	}
	if other.DefaultContours != nil {
		c.DefaultContours = other.DefaultContours
	}
	if other.ContourOpacity != nil {
		c.ContourOpacity = other.ContourOpacity
	}
	if other.ExportWidth != nil {
		c.ExportWidth = other.ExportWidth
	}
	if other.ExportHeight != nil {
		c.ExportHeight = other.ExportHeight
	}
	if other.ExportFilename != nil {
		c.ExportFilename = other.ExportFilename
	}
}

// Settings is the fully resolved form of Config handed to the pipeline.
type Settings struct {
	ViewWidth       int
	ViewHeight      int
	Background      [3]float64
	DefaultColorMap string
	DefaultContours int
	ContourOpacity  float64
	ExportWidth     int
	ExportHeight    int
	ExportFilename  string
}

// Settings resolves the config against the stock defaults.
func (c *Config) Settings() Settings {
	resolved := Default()
	resolved.Merge(c)
	return Settings{
		ViewWidth:       *resolved.ViewWidth,
		ViewHeight:      *resolved.ViewHeight,
		Background:      *resolved.Background,
		DefaultColorMap: *resolved.DefaultColorMap,
		DefaultContours: *resolved.DefaultContours,
		ContourOpacity:  *resolved.ContourOpacity,
		ExportWidth:     *resolved.ExportWidth,
		ExportHeight:    *resolved.ExportHeight,
		ExportFilename:  *resolved.ExportFilename,
	}
}
