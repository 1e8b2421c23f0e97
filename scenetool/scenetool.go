// Package scenetool provides the CAD scene manipulation tools. These tools
// do not touch a backend: they return action envelopes that the frontend
// executes against the 3D scene.
package scenetool

import (
	"context"

	"github.com/pochehq/agentloop/tool"
)

// Default dimensions (inches) and color applied when the model omits them.
const (
	defaultBoxSize  = float64(24)
	defaultRectSize = float64(48)
	defaultColor    = "#4a90d9"
)

// Tools returns the scene manipulation toolset.
func Tools() []tool.Tool {
	return []tool.Tool{createBoxTool(), createRectangleTool(), clearSceneTool()}
}

func createBoxTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":      map[string]any{"type": "number", "description": "X position of the box center", "default": float64(0)},
			"y":      map[string]any{"type": "number", "description": "Y position (height) of the box base", "default": float64(0)},
			"z":      map[string]any{"type": "number", "description": "Z position of the box center", "default": float64(0)},
			"width":  map[string]any{"type": "number", "description": "Width of the box in X direction (inches)", "default": defaultBoxSize},
			"height": map[string]any{"type": "number", "description": "Height of the box in Y direction (inches)", "default": defaultBoxSize},
			"depth":  map[string]any{"type": "number", "description": "Depth of the box in Z direction (inches)", "default": defaultBoxSize},
			"color":  map[string]any{"type": "string", "description": "Color of the box as hex string (e.g., '#ff0000' for red)", "default": defaultColor},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"create_box",
		"Create a 3D box/cube in the CAD scene. Use this when the user asks to create a box, cube, or rectangular shape.",
		params,
		func(_ context.Context, args map[string]any) (any, error) {
			return actionEnvelope("create_box", "Box created", map[string]any{
				"x":      args["x"],
				"y":      args["y"],
				"z":      args["z"],
				"width":  args["width"],
				"height": args["height"],
				"depth":  args["depth"],
				"color":  args["color"],
			}), nil
		},
	)
}

func createRectangleTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":     map[string]any{"type": "number", "description": "X position of rectangle center", "default": float64(0)},
			"z":     map[string]any{"type": "number", "description": "Z position of rectangle center", "default": float64(0)},
			"width": map[string]any{"type": "number", "description": "Width in X direction (inches)", "default": defaultRectSize},
			"depth": map[string]any{"type": "number", "description": "Depth in Z direction (inches)", "default": defaultRectSize},
			"color": map[string]any{"type": "string", "description": "Color as hex string", "default": defaultColor},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"create_rectangle",
		"Create a 2D rectangle on the ground plane (XZ plane at Y=0). Use this for flat floor plans or 2D shapes.",
		params,
		func(_ context.Context, args map[string]any) (any, error) {
			return actionEnvelope("create_rectangle", "Rectangle created", map[string]any{
				"x":     args["x"],
				"z":     args["z"],
				"width": args["width"],
				"depth": args["depth"],
				"color": args["color"],
			}), nil
		},
	)
}

func clearSceneTool() tool.Tool {
	params := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
	return tool.NewFunctionTool(
		"clear_scene",
		"Clear all geometry from the scene. Use when user asks to clear, reset, or start fresh.",
		params,
		func(_ context.Context, _ map[string]any) (any, error) {
			return actionEnvelope("clear_scene", "Scene cleared", map[string]any{}), nil
		},
	)
}

func actionEnvelope(action, message string, params map[string]any) map[string]any {
	return map[string]any{
		"action":  action,
		"params":  params,
		"success": true,
		"message": message,
	}
}
