package viz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invincibleAntares/vtu-vtk/internal/rpc"
)

// Method names of the visualization RPC surface.
const (
	MethodInitialize    = "vtk.initialize"
	MethodApplyColorMap = "vtk.apply_color_map"
	MethodGenContours   = "vtk.generate_contours"
	MethodExportImage   = "vtk.export_image"
)

type colorMapParams struct {
	ArrayName    string `json:"array_name"`
	ColorMapName string `json:"color_map_name"`
}

type contourParams struct {
	ArrayName   string `json:"array_name"`
	NumContours int    `json:"num_contours"`
}

type exportParams struct {
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// RegisterHandlers binds the pipeline's operations onto the dispatcher.
func RegisterHandlers(d *rpc.Dispatcher, p *Pipeline) {
	d.Register(MethodInitialize, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return p.Initialize(), nil
	})

	d.Register(MethodApplyColorMap, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var args colorMapParams
		if err := decodeParams(params, &args); err != nil {
			return nil, err
		}
		return p.ApplyColorMap(args.ArrayName, args.ColorMapName), nil
	})

	d.Register(MethodGenContours, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var args contourParams
		if err := decodeParams(params, &args); err != nil {
			return nil, err
		}
		return p.GenerateContours(args.ArrayName, args.NumContours), nil
	})

	d.Register(MethodExportImage, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var args exportParams
		if err := decodeParams(params, &args); err != nil {
			return nil, err
		}
		return p.ExportImage(args.Filename, args.Width, args.Height), nil
	})
}

// decodeParams tolerates absent params; a present params value must be an
// object matching the method's parameter struct.
func decodeParams(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("invalid params: %v", err)
	}
	return nil
}
