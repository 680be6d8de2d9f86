package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/invincibleAntares/vtu-vtk/internal/httputil"
)

// showContourChart renders a quick HTML chart of the active contour
// iso-values using go-echarts. This is a debugging-only endpoint to inspect
// contour spacing without the dashboard.
func (s *Server) showContourChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	array, values := s.pipeline.ContourState()
	if array == "" || len(values) == 0 {
		httputil.NotFound(w, "no contours generated yet")
		return
	}

	labels := make([]string, len(values))
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		labels[i] = fmt.Sprintf("c%d", i+1)
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Contour Iso-Values", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Contour Iso-Values", Subtitle: fmt.Sprintf("array=%s contours=%d", array, len(values))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: array}),
	)
	line.SetXAxis(labels).AddSeries("iso-values", data)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
