// Package contrib fetches yearly contribution-activity grids.
// A grid is 53 weeks by 7 weekdays of activity levels 0-4, either pulled
// from the GitHub GraphQL API or synthesized for local runs.
package contrib

import "context"

const (
	// Weeks is the number of grid columns.
	Weeks = 53
	// Days is the number of grid rows.
	Days = 7
	// MaxLevel is the brightest activity level.
	MaxLevel Level = 4
)

// Level is a bucketed contribution intensity for a single day.
type Level int

// levelNames maps GraphQL ContributionLevel enum values to levels.
var levelNames = map[string]Level{
	"NONE":            0,
	"FIRST_QUARTILE":  1,
	"SECOND_QUARTILE": 2,
	"THIRD_QUARTILE":  3,
	"FOURTH_QUARTILE": 4,
}

// ParseLevel maps a ContributionLevel name to a Level.
// Unknown names map to 0.
func ParseLevel(name string) Level {
	return levelNames[name]
}

// Grid is an activity grid indexed as [week][weekday].
type Grid [Weeks][Days]Level

// At returns the level at week x, weekday y.
// Out-of-range coordinates read as 0.
func (g *Grid) At(x, y int) Level {
	if x < 0 || x >= Weeks || y < 0 || y >= Days {
		return 0
	}
	return g[x][y]
}

// Set stores a level, clamped to 0..MaxLevel. Out-of-range coordinates
// are ignored.
func (g *Grid) Set(x, y int, l Level) {
	if x < 0 || x >= Weeks || y < 0 || y >= Days {
		return
	}
	if l < 0 {
		l = 0
	}
	if l > MaxLevel {
		l = MaxLevel
	}
	g[x][y] = l
}

// Active counts cells with a nonzero level.
func (g *Grid) Active() int {
	n := 0
	for x := 0; x < Weeks; x++ {
		for y := 0; y < Days; y++ {
			if g[x][y] > 0 {
				n++
			}
		}
	}
	return n
}

// Source produces an activity grid.
type Source interface {
	Fetch(ctx context.Context) (*Grid, error)
}
