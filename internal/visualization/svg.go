// Package visualization renders the planned network over a contribution
// grid as an animated SVG, or as JSON for inspection.
package visualization

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/neuralgraph/internal/contrib"
	"github.com/nvandessel/neuralgraph/internal/layout"
)

// Format specifies the output format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
)

// Grid geometry in SVG user units.
const (
	CellSize = 10
	Gap      = 3
	Margin   = 10

	// LoopPeriod is the length of one animation cycle in seconds.
	LoopPeriod = 5

	// columnStagger offsets off-path reveals left to right.
	columnStagger = 0.05
)

// Palette holds the fill for each activity level, GitHub dark theme.
var Palette = [contrib.MaxLevel + 1]string{
	"#161b22",
	"#0e4429",
	"#006d32",
	"#26a641",
	"#39d353",
}

const background = "#0d1117"

// Kind classifies how a cell is animated.
type Kind string

const (
	// KindStatic is an off-path cell with no activity.
	KindStatic Kind = "static"
	// KindPulse is an on-path cell with no activity; it pulses forever.
	KindPulse Kind = "pulse"
	// KindDiscovery is an active cell revealed once, then held at its
	// level color.
	KindDiscovery Kind = "discovery"
)

// CellStyle is the rendering decision for one grid cell.
type CellStyle struct {
	X      int           `json:"x"`
	Y      int           `json:"y"`
	Level  contrib.Level `json:"level"`
	Kind   Kind          `json:"kind"`
	OnPath bool          `json:"on_path"`
	Class  string        `json:"class,omitempty"`
	Delay  float64       `json:"delay"`
}

// Scene bundles everything a renderer needs.
type Scene struct {
	Grid      *contrib.Grid
	Plan      *layout.Plan
	Discovery map[layout.Cell]int
}

// Style decides how cell (x, y) is drawn.
func (s *Scene) Style(x, y int) CellStyle {
	level := s.Grid.At(x, y)
	pathDelay, onPath := s.Plan.Delays.Get(x, y)
	cs := CellStyle{X: x, Y: y, Level: level, OnPath: onPath, Kind: KindStatic}

	switch {
	case level > 0:
		idx := s.Discovery[layout.Cell{X: x, Y: y}]
		cs.Kind = KindDiscovery
		cs.Class = fmt.Sprintf("disc-%d", level)
		offset := float64(idx * LoopPeriod)
		if onPath {
			cs.Delay = offset + pathDelay
		} else {
			cs.Delay = offset + float64(x)*columnStagger
		}
	case onPath:
		cs.Kind = KindPulse
		cs.Class = "cell"
		cs.Delay = pathDelay
	}
	return cs
}

// Styles returns every cell's style in column-major order.
func (s *Scene) Styles() []CellStyle {
	styles := make([]CellStyle, 0, contrib.Weeks*contrib.Days)
	for x := 0; x < contrib.Weeks; x++ {
		for y := 0; y < contrib.Days; y++ {
			styles = append(styles, s.Style(x, y))
		}
	}
	return styles
}

// RenderSVG produces the animated SVG document.
func RenderSVG(s *Scene) []byte {
	width := contrib.Weeks*(CellSize+Gap) + 2*Margin
	height := contrib.Days*(CellSize+Gap) + 2*Margin
	c0, c4 := Palette[0], Palette[contrib.MaxLevel]

	lines := []string{
		fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, width, height, width, height),
		"<style>",
		"  @keyframes neural-cycle {",
		fmt.Sprintf("    0%% { fill: %s; }", c0),
		fmt.Sprintf("    5%% { fill: %s; }", c4),
		fmt.Sprintf("    15%% { fill: %s; }", c0),
		fmt.Sprintf("    100%% { fill: %s; }", c0),
		"  }",
	}
	// Discovery flashes bright, then settles at the level color and stays.
	for l := 1; l <= int(contrib.MaxLevel); l++ {
		lines = append(lines, fmt.Sprintf(
			"  @keyframes discovery-%d { 0%% { fill: %s; } 5%% { fill: %s; } 15%% { fill: %s; } 100%% { fill: %s; } }",
			l, c0, c4, Palette[l], Palette[l]))
	}
	lines = append(lines, fmt.Sprintf("  .cell { animation: neural-cycle %ds infinite; }", LoopPeriod))
	for l := 1; l <= int(contrib.MaxLevel); l++ {
		lines = append(lines, fmt.Sprintf("  .disc-%d { animation: discovery-%d %ds forwards; }", l, l, LoopPeriod))
	}
	lines = append(lines,
		"</style>",
		fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s" rx="6"/>`, background),
	)

	for _, cs := range s.Styles() {
		lines = append(lines, rect(cs))
	}
	lines = append(lines, "</svg>")

	return []byte(strings.Join(lines, "\n"))
}

func rect(cs CellStyle) string {
	cx := cs.X*(CellSize+Gap) + Margin
	cy := cs.Y*(CellSize+Gap) + Margin
	base := fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="2"`,
		cx, cy, CellSize, CellSize, Palette[0])
	if cs.Kind == KindStatic {
		return base + "/>"
	}
	return fmt.Sprintf(`%s class="%s" style="animation-delay: %ss;"/>`, base, cs.Class, FormatDelay(cs.Delay))
}

// FormatDelay writes d as the shortest decimal that round-trips, always
// with a fractional part ("0.0", "0.24", "15.0").
func FormatDelay(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// RenderJSON produces a JSON-ready summary of the scene.
func RenderJSON(s *Scene) map[string]interface{} {
	layers := make([]map[string]interface{}, 0, len(s.Plan.Layers))
	for i, l := range s.Plan.Layers {
		arrivals := make([]interface{}, l.Height)
		for r := 0; r < l.Height; r++ {
			if t, ok := s.Plan.Arrivals.At(i, r); ok {
				arrivals[r] = t
			}
		}
		layers = append(layers, map[string]interface{}{
			"start_col": l.StartCol,
			"width":     l.Width,
			"height":    l.Height,
			"arrivals":  arrivals,
		})
	}

	return map[string]interface{}{
		"step_time":  s.Plan.StepTime,
		"layers":     layers,
		"path_cells": s.Plan.Delays.Len(),
		"active":     s.Grid.Active(),
		"cells":      s.Styles(),
	}
}

// WriteFile writes data to path, replacing any existing file.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
