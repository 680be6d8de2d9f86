package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/invincibleAntares/vtu-vtk/internal/rpc"
)

// RegisterSyntheticHandlers binds canned responses for the whole RPC surface
// onto the dispatcher. This is the test double used to exercise the
// dashboard without the rendering stack: no state, no dataset, fixed
// payloads per method, and a generic success for anything unrecognized.
//
// The canned initialize payload deliberately reports data_arrays as bare
// names rather than the full array descriptors; dashboards must cope with
// both shapes.
func RegisterSyntheticHandlers(d *rpc.Dispatcher) {
	d.Register(MethodInitialize, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		log.Printf("viz: mock received %s", MethodInitialize)
		return map[string]interface{}{
			"status":      StatusSuccess,
			"message":     "mock visualization pipeline initialized",
			"data_arrays": []string{"Temperature", "Pressure", "Velocity"},
			"bounds":      []float64{-100, 100, -50, 50, -75, 75},
			"points":      1234567,
			"cells":       987654,
		}, nil
	})

	d.Register(MethodApplyColorMap, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		log.Printf("viz: mock received %s", MethodApplyColorMap)
		var args colorMapParams
		if err := decodeParams(params, &args); err != nil {
			return nil, err
		}
		array := args.ArrayName
		if array == "" {
			array = "unknown"
		}
		return &OpResult{
			Status:  StatusSuccess,
			Message: fmt.Sprintf("applied color map to %s", array),
		}, nil
	})

	d.Register(MethodGenContours, func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		log.Printf("viz: mock received %s", MethodGenContours)
		return &ContourResult{
			Status:        StatusSuccess,
			Message:       "generated 5 contours",
			ContourValues: []float64{10, 20, 30, 40, 50},
		}, nil
	})

	// Any other method, vtk.export_image included, gets a generic success.
	d.Fallback = func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
		log.Printf("viz: mock received %s", method)
		return &OpResult{Status: StatusSuccess, Message: fmt.Sprintf("mock response for %s", method)}, nil
	}
}
