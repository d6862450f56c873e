// Package layout plans the signal path of the neural network diagram.
//
// A fixed stack of layers is overlaid on the contribution grid. A pulse
// starts at the input layer and crosses each gap to the next layer along
// fixed fan-out connections. The planner records, for every grid cell
// the pulse touches, the earliest time it gets there.
package layout

import "github.com/nvandessel/neuralgraph/internal/contrib"

// DefaultStepTime is the time the pulse takes to advance one cell.
const DefaultStepTime = 0.08

// LayerSpec places one layer of neurons on the grid.
// Each neuron is a horizontal run of Width cells; a layer has Height
// neurons stacked vertically and centered in the grid.
type LayerSpec struct {
	StartCol int `json:"start_col" yaml:"start_col"`
	Width    int `json:"width" yaml:"width"`
	Height   int `json:"height" yaml:"height"`
}

// RowStart is the grid row of the layer's first neuron.
func (l LayerSpec) RowStart() int {
	return (contrib.Days - l.Height) / 2
}

// End is the first column past the layer body.
func (l LayerSpec) End() int {
	return l.StartCol + l.Width
}

// DefaultLayers is the 3-5-7-7-7-5-3 network spread across 53 weeks.
var DefaultLayers = []LayerSpec{
	{StartCol: 0, Width: 3, Height: 3},  // input
	{StartCol: 8, Width: 3, Height: 5},  // hidden 1
	{StartCol: 16, Width: 3, Height: 7}, // hidden 2
	{StartCol: 25, Width: 3, Height: 7}, // hidden 3
	{StartCol: 34, Width: 3, Height: 7}, // hidden 4
	{StartCol: 42, Width: 3, Height: 5}, // hidden 5
	{StartCol: 50, Width: 3, Height: 3}, // output
}

type heightPair struct {
	cur, next int
}

// fanOut lists, per current-layer row, the next-layer rows it feeds.
var fanOut = map[heightPair][][]int{
	{3, 5}: {{0, 1}, {2}, {3, 4}},
	{5, 7}: {{0, 1}, {2}, {3}, {4}, {5, 6}},
	{7, 7}: {{0}, {1}, {2}, {3}, {4}, {5}, {6}},
	{7, 5}: {{0}, {0}, {1}, {2}, {3}, {4}, {4}},
	{5, 3}: {{0}, {0}, {1}, {2}, {2}},
}

// FanOut returns the connection table between a layer of height cur and
// one of height next. Pairs outside the table have no connections and
// return nil.
func FanOut(cur, next int) [][]int {
	return fanOut[heightPair{cur, next}]
}

// Targets returns the next-layer rows fed by current row r.
func Targets(cur, next, r int) []int {
	table := FanOut(cur, next)
	if r < 0 || r >= len(table) {
		return nil
	}
	return table[r]
}
