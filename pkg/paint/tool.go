package paint

import (
	"fmt"
	"strings"
)

// Tool is the active drawing tool.
type Tool int

const (
	ToolPencil Tool = iota
	ToolEraser
	ToolSpray
	ToolPaintBucket
)

var toolNames = map[Tool]string{
	ToolPencil:      "pencil",
	ToolEraser:      "eraser",
	ToolSpray:       "spray",
	ToolPaintBucket: "paint-bucket",
}

func (t Tool) String() string {
	if n, ok := toolNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolPaintBucket, ToolPencil, ToolSpray, ToolEraser}

// ParseTool maps a tool name to a Tool.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pencil", "pen":
		return ToolPencil, nil
	case "eraser", "erase":
		return ToolEraser, nil
	case "spray", "spraypaint", "spray-paint":
		return ToolSpray, nil
	case "paint-bucket", "paintbucket", "bucket", "fill":
		return ToolPaintBucket, nil
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// BrushSizes are the line width presets in pixels.
var BrushSizes = []int{5, 10, 20}

// Palette is the default set of crayon colors.
var Palette = []string{
	"#FF0000", "#0000FF", "#008000", "#FFFF00",
	"#FFA500", "#800080", "#A52A2A", "#000000",
	"#FFFFFF", "#FFC0CB", "#40E0D0", "#C39797",
}

const (
	DefaultTool  = ToolPaintBucket
	DefaultColor = "#FF0000"
	DefaultSize  = 5
)
