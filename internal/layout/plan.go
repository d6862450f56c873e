package layout

import "github.com/nvandessel/neuralgraph/internal/contrib"

// Cell is a grid coordinate: X is the week column, Y the weekday row.
type Cell struct {
	X, Y int
}

// Delays holds the earliest pulse time for each grid cell on the path.
type Delays struct {
	t   [contrib.Weeks][contrib.Days]float64
	set [contrib.Weeks][contrib.Days]bool
	n   int
}

// Mark records that the pulse reaches (x, y) at t, keeping the earlier
// time if the cell was already reached. Cells off the grid are ignored.
func (d *Delays) Mark(x, y int, t float64) {
	if x < 0 || x >= contrib.Weeks || y < 0 || y >= contrib.Days {
		return
	}
	if !d.set[x][y] {
		d.set[x][y] = true
		d.t[x][y] = t
		d.n++
		return
	}
	if t < d.t[x][y] {
		d.t[x][y] = t
	}
}

// Get returns the delay at (x, y) and whether the cell is on the path.
func (d *Delays) Get(x, y int) (float64, bool) {
	if x < 0 || x >= contrib.Weeks || y < 0 || y >= contrib.Days {
		return 0, false
	}
	return d.t[x][y], d.set[x][y]
}

// Len is the number of cells on the path.
func (d *Delays) Len() int {
	return d.n
}

// Cells returns the path cells in column-major order.
func (d *Delays) Cells() []Cell {
	cells := make([]Cell, 0, d.n)
	for x := 0; x < contrib.Weeks; x++ {
		for y := 0; y < contrib.Days; y++ {
			if d.set[x][y] {
				cells = append(cells, Cell{x, y})
			}
		}
	}
	return cells
}

// Arrivals holds, per layer, the earliest time the pulse reaches each
// neuron row. A missing row was never reached.
type Arrivals []map[int]float64

// At returns the arrival time of row r in layer l.
func (a Arrivals) At(l, r int) (float64, bool) {
	if l < 0 || l >= len(a) {
		return 0, false
	}
	t, ok := a[l][r]
	return t, ok
}

func (a Arrivals) update(l, r int, t float64) {
	if prev, ok := a[l][r]; !ok || t < prev {
		a[l][r] = t
	}
}

// Plan is the computed pulse schedule for a layer stack.
type Plan struct {
	Layers   []LayerSpec
	StepTime float64
	Delays   *Delays
	Arrivals Arrivals
}

// Compute plans the pulse through layers, advancing stepTime per cell.
// The result depends only on the layer stack, never on activity.
func Compute(layers []LayerSpec, stepTime float64) *Plan {
	p := &Plan{
		Layers:   layers,
		StepTime: stepTime,
		Delays:   &Delays{},
		Arrivals: make(Arrivals, len(layers)),
	}
	for i := range p.Arrivals {
		p.Arrivals[i] = make(map[int]float64)
	}
	if len(layers) == 0 {
		return p
	}

	in := layers[0]
	for r := 0; r < in.Height; r++ {
		y := in.RowStart() + r
		for dx := 0; dx < in.Width; dx++ {
			p.Delays.Mark(in.StartCol+dx, y, float64(dx)*stepTime)
		}
		p.Arrivals[0][r] = float64(in.Width) * stepTime
	}

	for i := 0; i+1 < len(layers); i++ {
		cur, next := layers[i], layers[i+1]
		for r := 0; r < cur.Height; r++ {
			start, ok := p.Arrivals[i][r]
			if !ok {
				continue
			}
			for _, rn := range Targets(cur.Height, next.Height, r) {
				t := p.connect(cur, next, r, rn, start)
				p.Arrivals.update(i+1, rn, t)
			}
		}
	}
	return p
}

// connect walks one connection from row r of cur to row rn of next,
// starting at time t, and returns the time the pulse leaves the target
// neuron body.
func (p *Plan) connect(cur, next LayerSpec, r, rn int, t float64) float64 {
	yCur := cur.RowStart() + r
	yNext := next.RowStart() + rn
	gapStart := cur.End()
	half := (next.StartCol - gapStart) / 2

	for idx, x := 0, gapStart; x < next.StartCol; idx, x = idx+1, x+1 {
		switch {
		case idx < half:
			t = p.step(x, yCur, t)
		case idx == half:
			t = p.step(x, yCur, t)
			if yNext != yCur {
				dir := 1
				if yNext < yCur {
					dir = -1
				}
				for y := yCur + dir; y != yNext; y += dir {
					t = p.step(x, y, t)
				}
			}
			t = p.step(x, yNext, t)
		default:
			t = p.step(x, yNext, t)
		}
	}

	for dx := 0; dx < next.Width; dx++ {
		t = p.step(next.StartCol+dx, yNext, t)
	}
	return t
}

// step marks (x, y) at t and returns the advanced time.
func (p *Plan) step(x, y int, t float64) float64 {
	p.Delays.Mark(x, y, t)
	return t + p.StepTime
}
