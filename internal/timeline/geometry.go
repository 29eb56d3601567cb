// Package timeline maps a project's date span onto a grid of fixed-width day
// columns. All functions are pure given the project snapshot and options;
// callers recompute geometry whenever the committed task set or zoom changes.
package timeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// Options configures the render window. Zero-valued window fields fall back
// to the defaults in models.DefaultTimelineConfig.
type Options struct {
	LeadDays     int
	TailDays     int
	MinDays      int
	MaxDays      int
	SidebarWidth int
	Zoom         Zoom

	// Today overrides the current date; used by tests and replays.
	Today  time.Time
	Logger *slog.Logger
}

// OptionsFromConfig builds Options from the timeline section of .ganttconfig.
func OptionsFromConfig(cfg models.TimelineConfig) Options {
	return Options{
		LeadDays:     cfg.LeadDays,
		TailDays:     cfg.TailDays,
		MinDays:      cfg.MinDays,
		MaxDays:      cfg.MaxDays,
		SidebarWidth: cfg.SidebarWidth,
		Zoom:         NewZoom(cfg),
	}
}

func (o Options) withDefaults() Options {
	def := models.DefaultTimelineConfig()
	if o.LeadDays <= 0 {
		o.LeadDays = def.LeadDays
	}
	if o.TailDays <= 0 {
		o.TailDays = def.TailDays
	}
	if o.MinDays <= 0 {
		o.MinDays = def.MinDays
	}
	if o.MaxDays < o.MinDays {
		o.MaxDays = def.MaxDays
	}
	if o.Zoom == (Zoom{}) {
		o.Zoom = NewZoom(def)
	}
	if o.Today.IsZero() {
		o.Today = dates.Today()
	}
	return o
}

// DayCell holds the per-day attributes of one timeline column.
type DayCell struct {
	Date      string
	Time      time.Time
	Weekday   time.Weekday
	ISOWeek   int
	IsWeekend bool
	IsHoliday bool
	IsToday   bool
}

// HeaderGroup is a run of contiguous days sharing a month (or ISO week).
type HeaderGroup struct {
	Label      string
	Year       int
	Month      time.Month
	Week       int
	StartIndex int
	Days       int
	Offset     int
	Width      int
}

// Geometry is the materialised render window.
type Geometry struct {
	Mode         ViewMode
	ColumnWidth  int
	RenderStart  time.Time
	Days         []DayCell
	Months       []HeaderGroup
	Weeks        []HeaderGroup
	TotalWidth   int
	SidebarWidth int
	CanvasWidth  int

	todayOffset  int
	todayVisible bool
}

// Compute builds the geometry for project p at the zoom level of mode.
func Compute(p *models.Project, mode ViewMode, opts Options) *Geometry {
	opts = opts.withDefaults()
	cw := opts.Zoom.ColumnWidth(mode)

	projectStart := dates.Resolve(p.StartDate, opts.Logger)
	renderStart := dates.Add(projectStart, -opts.LeadDays)
	latest := projectStart

	if p.EndDate != "" {
		if end, err := dates.ParseLocal(p.EndDate); err == nil && end.After(latest) {
			latest = end
		}
	}
	for _, t := range p.Tasks {
		if t.StartDate == "" || t.Duration <= 0 {
			continue
		}
		end := dates.Add(dates.Resolve(t.StartDate, opts.Logger), t.Duration)
		if end.After(latest) {
			latest = end
		}
	}

	span := dates.DayDiff(renderStart, latest) + opts.TailDays
	if span > opts.MaxDays {
		span = opts.MaxDays
	}
	if span < opts.MinDays {
		span = opts.MinDays
	}

	holidays := make(map[string]struct{}, len(p.Holidays))
	for _, h := range p.Holidays {
		if n, ok := dates.Normalize(h); ok {
			holidays[n] = struct{}{}
		}
	}

	g := &Geometry{
		Mode:         mode,
		ColumnWidth:  cw,
		RenderStart:  renderStart,
		Days:         make([]DayCell, span),
		TotalWidth:   span * cw,
		SidebarWidth: opts.SidebarWidth,
	}
	g.CanvasWidth = g.SidebarWidth + g.TotalWidth

	today := dates.Midnight(opts.Today)
	for i := range g.Days {
		d := dates.Add(renderStart, i)
		key := dates.Format(d)
		_, holiday := holidays[key]
		g.Days[i] = DayCell{
			Date:      key,
			Time:      d,
			Weekday:   d.Weekday(),
			ISOWeek:   dates.ISOWeek(d),
			IsWeekend: dates.IsWeekend(d),
			IsHoliday: holiday,
			IsToday:   dates.DayDiff(d, today) == 0,
		}
	}

	g.Months = groupDays(g.Days, cw, func(c DayCell) groupKey {
		return groupKey{year: c.Time.Year(), n: int(c.Time.Month())}
	}, func(c DayCell, k groupKey) HeaderGroup {
		return HeaderGroup{Label: c.Time.Format("Jan 2006"), Year: k.year, Month: time.Month(k.n)}
	})
	g.Weeks = groupDays(g.Days, cw, func(c DayCell) groupKey {
		y, w := c.Time.ISOWeek()
		return groupKey{year: y, n: w}
	}, func(c DayCell, k groupKey) HeaderGroup {
		return HeaderGroup{Label: fmt.Sprintf("W%02d", k.n), Year: k.year, Week: k.n}
	})

	if idx := dates.DayDiff(renderStart, today); idx >= 0 && idx < span {
		g.todayOffset = idx * cw
		g.todayVisible = true
	}

	return g
}

type groupKey struct {
	year int
	n    int
}

// groupDays merges contiguous cells with the same key into header groups.
func groupDays(days []DayCell, cw int, key func(DayCell) groupKey, build func(DayCell, groupKey) HeaderGroup) []HeaderGroup {
	var groups []HeaderGroup
	var last groupKey
	for i, c := range days {
		k := key(c)
		if len(groups) > 0 && k == last {
			g := &groups[len(groups)-1]
			g.Days++
			g.Width += cw
			continue
		}
		g := build(c, k)
		g.StartIndex = i
		g.Days = 1
		g.Offset = i * cw
		g.Width = cw
		groups = append(groups, g)
		last = k
	}
	return groups
}

// PixelOffset returns the x offset of date t relative to the render start.
func (g *Geometry) PixelOffset(t time.Time) int {
	return dates.DayDiff(g.RenderStart, t) * g.ColumnWidth
}

// DateOffset is PixelOffset for a YYYY-MM-DD string. Malformed input is
// placed at today's column.
func (g *Geometry) DateOffset(s string) int {
	t, _ := dates.ParseLocal(s)
	return g.PixelOffset(t)
}

// TodayOffset returns the x offset of today's column. The boolean is false
// when today lies outside the render window and no marker should be drawn.
func (g *Geometry) TodayOffset() (int, bool) {
	return g.todayOffset, g.todayVisible
}

// DateAt returns the date of the column containing x.
func (g *Geometry) DateAt(x int) string {
	idx := x / g.ColumnWidth
	if x < 0 && x%g.ColumnWidth != 0 {
		idx--
	}
	return dates.Format(dates.Add(g.RenderStart, idx))
}

// RenderEnd returns the first date past the window.
func (g *Geometry) RenderEnd() time.Time {
	return dates.Add(g.RenderStart, len(g.Days))
}
