package timeline

import (
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// Placement is the horizontal extent of a bar relative to the render start.
type Placement struct {
	Left  int
	Width int
}

// Right returns the x coordinate just past the bar.
func (p Placement) Right() int { return p.Left + p.Width }

// Place positions task t on g. A bar is never narrower than one column so
// degenerate durations stay interactable.
func Place(t models.Task, g *Geometry) Placement {
	return PlaceSpan(t.StartDate, t.Duration, g)
}

// PlaceSpan positions a bar starting at start and spanning days columns.
func PlaceSpan(start string, days int, g *Geometry) Placement {
	width := days * g.ColumnWidth
	if width < g.ColumnWidth {
		width = g.ColumnWidth
	}
	return Placement{
		Left:  g.DateOffset(start),
		Width: width,
	}
}
