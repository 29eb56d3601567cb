package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/timeline"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// pxPerCell maps timeline pixels onto terminal character cells.
const pxPerCell = 8

const uncategorized = "(uncategorized)"

type cellKind int

const (
	cellBlank cellKind = iota
	cellWeekend
	cellHoliday
	cellToday
	cellBar
	cellBarDone
	cellBarDelayed
	cellRollup
	cellGhost
)

// Style definitions.
var (
	monthStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	weekStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	cellStyles = map[cellKind]lipgloss.Style{
		cellWeekend:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		cellHoliday:    lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		cellToday:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		cellBar:        lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		cellBarDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		cellBarDelayed: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		cellRollup:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		cellGhost:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}

	cellRunes = map[cellKind]rune{
		cellBlank:      ' ',
		cellWeekend:    '·',
		cellHoliday:    '░',
		cellToday:      '│',
		cellBar:        '▒',
		cellBarDone:    '█',
		cellBarDelayed: '▒',
		cellRollup:     '▬',
		cellGhost:      '╌',
	}
)

// renderOptions tweaks a timeline render for the interactive board.
type renderOptions struct {
	Selected string
	// Ghost is the in-flight drag position of the selected task.
	Ghost *timeline.Placement
	// FirstCell and MaxCells select the visible window; zero MaxCells
	// renders the whole canvas.
	FirstCell int
	MaxCells  int
	Plain     bool
	Logger    *slog.Logger
}

type row struct {
	label    string
	selected bool
	heading  bool
	kinds    []cellKind
	suffix   string
}

// timelineRenderer lays geometry out on a character grid.
type timelineRenderer struct {
	g       *timeline.Geometry
	first   int
	cells   int
	sidebar int
	plain   bool
}

func newTimelineRenderer(g *timeline.Geometry, opts renderOptions) *timelineRenderer {
	total := ceilDiv(g.TotalWidth, pxPerCell)
	first := min(max(opts.FirstCell, 0), max(total-1, 0))
	cells := total - first
	if opts.MaxCells > 0 && cells > opts.MaxCells {
		cells = opts.MaxCells
	}
	return &timelineRenderer{
		g:       g,
		first:   first,
		cells:   cells,
		sidebar: sidebarCells(g),
		plain:   opts.Plain,
	}
}

// sidebarCells is the width of the label column in characters.
func sidebarCells(g *timeline.Geometry) int {
	return max(g.SidebarWidth/pxPerCell, 16)
}

// renderTimeline draws project p as a text Gantt chart.
func renderTimeline(p *models.Project, g *timeline.Geometry, opts renderOptions) string {
	r := newTimelineRenderer(g, opts)
	rollups := core.CollapsedRollups(p, opts.Logger)

	var b strings.Builder
	b.WriteString(r.headerLine(g.Months, monthStyle))
	b.WriteByte('\n')
	b.WriteString(r.headerLine(g.Weeks, weekStyle))
	b.WriteByte('\n')
	b.WriteString(r.renderRow(row{label: "", kinds: r.background()}))
	b.WriteByte('\n')

	known := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		known[c.Name] = true
		marker := "▾ "
		if c.Collapsed {
			marker = "▸ "
		}
		heading := row{label: marker + c.Name, heading: true, kinds: r.background()}
		if sum := rollups[c.Name]; sum != nil {
			r.paintSpan(heading.kinds, timeline.PlaceSpan(sum.Start, sum.Duration, g), cellRollup)
			heading.suffix = fmt.Sprintf(" %d%%", sum.Progress)
		}
		b.WriteString(r.renderRow(heading))
		b.WriteByte('\n')
		if c.Collapsed {
			continue
		}
		for _, t := range p.Tasks {
			if t.Category == c.Name {
				b.WriteString(r.renderRow(r.taskRow(t, opts)))
				b.WriteByte('\n')
			}
		}
	}

	var orphans []models.Task
	for _, t := range p.Tasks {
		if !known[t.Category] {
			orphans = append(orphans, t)
		}
	}
	if len(orphans) > 0 {
		b.WriteString(r.renderRow(row{label: "▾ " + uncategorized, heading: true, kinds: r.background()}))
		b.WriteByte('\n')
		for _, t := range orphans {
			b.WriteString(r.renderRow(r.taskRow(t, opts)))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (r *timelineRenderer) taskRow(t models.Task, opts renderOptions) row {
	kinds := r.background()
	pl := timeline.Place(t, r.g)

	kind := cellBar
	if t.DelayReason != "" {
		kind = cellBarDelayed
	}
	first, last := r.span(pl)
	r.paintRange(kinds, first, last, kind)
	if t.Progress > 0 && last > first {
		done := first + (last-first)*t.Progress/100
		r.paintRange(kinds, first, done, cellBarDone)
	}

	selected := opts.Selected != "" && opts.Selected == t.ID
	if selected && opts.Ghost != nil {
		r.paintSpan(kinds, *opts.Ghost, cellGhost)
	}
	suffix := fmt.Sprintf(" %d%%", t.Progress)
	if t.DelayReason != "" {
		suffix += " (" + t.DelayReason + ")"
	}
	return row{
		label:    "  " + t.ID + " " + t.Title,
		selected: selected,
		kinds:    kinds,
		suffix:   suffix,
	}
}

// background returns a fresh row shaded with weekends, holidays and today.
func (r *timelineRenderer) background() []cellKind {
	kinds := make([]cellKind, r.cells)
	for i, d := range r.g.Days {
		kind := cellBlank
		switch {
		case d.IsHoliday:
			kind = cellHoliday
		case d.IsWeekend:
			kind = cellWeekend
		default:
			continue
		}
		first, last := r.span(timeline.Placement{Left: i * r.g.ColumnWidth, Width: r.g.ColumnWidth})
		r.paintRange(kinds, first, last, kind)
	}
	if off, ok := r.g.TodayOffset(); ok {
		if c := off/pxPerCell - r.first; c >= 0 && c < len(kinds) {
			kinds[c] = cellToday
		}
	}
	return kinds
}

// span converts a pixel placement into a half-open cell range. Every bar
// occupies at least one cell.
func (r *timelineRenderer) span(pl timeline.Placement) (int, int) {
	first := floorDiv(pl.Left, pxPerCell)
	last := ceilDiv(pl.Right(), pxPerCell)
	if last <= first {
		last = first + 1
	}
	return first, last
}

func (r *timelineRenderer) paintSpan(kinds []cellKind, pl timeline.Placement, kind cellKind) {
	first, last := r.span(pl)
	r.paintRange(kinds, first, last, kind)
}

// paintRange fills absolute cells [first, last) that fall inside the window.
func (r *timelineRenderer) paintRange(kinds []cellKind, first, last int, kind cellKind) {
	first = max(first-r.first, 0)
	last -= r.first
	last = min(last, len(kinds))
	for i := first; i < last; i++ {
		kinds[i] = kind
	}
}

func (r *timelineRenderer) headerLine(groups []timeline.HeaderGroup, style lipgloss.Style) string {
	line := make([]rune, r.cells)
	for i := range line {
		line[i] = ' '
	}
	for _, g := range groups {
		start := g.Offset/pxPerCell - r.first
		width := ceilDiv(g.Offset+g.Width, pxPerCell) - r.first - start
		if start < 0 {
			width += start
			start = 0
		}
		if width <= 0 || start >= len(line) {
			continue
		}
		label := []rune(g.Label)
		if len(label) > width-1 {
			// Too narrow for the full label; keep what fits.
			label = label[:max(width-1, 0)]
		}
		line[start] = '▏'
		for i, ch := range label {
			if pos := start + 1 + i; pos < len(line) {
				line[pos] = ch
			}
		}
	}
	return strings.Repeat(" ", r.sidebar) + r.style(style, string(line))
}

func (r *timelineRenderer) renderRow(rw row) string {
	label := truncate(rw.label, r.sidebar-1)
	label += strings.Repeat(" ", r.sidebar-len([]rune(label)))
	switch {
	case rw.selected:
		label = r.style(selectedStyle, label)
	case rw.heading:
		label = r.style(categoryStyle, label)
	}

	var b strings.Builder
	b.WriteString(label)
	for i := 0; i < len(rw.kinds); {
		j := i
		for j < len(rw.kinds) && rw.kinds[j] == rw.kinds[i] {
			j++
		}
		run := strings.Repeat(string(cellRunes[rw.kinds[i]]), j-i)
		if st, ok := cellStyles[rw.kinds[i]]; ok {
			run = r.style(st, run)
		}
		b.WriteString(run)
		i = j
	}
	if rw.suffix != "" {
		b.WriteString(r.style(mutedStyle, rw.suffix))
	}
	return b.String()
}

func (r *timelineRenderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}

// renderLabor draws the engineer x day grid with row and column totals.
func renderLabor(rep *core.LaborReport, plain bool) string {
	const nameWidth = 16
	const colWidth = 8

	style := func(s lipgloss.Style, text string) string {
		if plain {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Labor for %s %s (week of %s)\n\n", rep.Project.ID, rep.Project.Name, rep.Week[0])

	header := fmt.Sprintf("%-*s", nameWidth, "Engineer")
	for _, d := range rep.Week {
		header += fmt.Sprintf("%*s", colWidth, d[5:])
	}
	header += fmt.Sprintf("%*s", colWidth, "Total")
	b.WriteString(style(monthStyle, header))
	b.WriteByte('\n')

	engineers := rep.Engineers()
	if len(engineers) == 0 {
		b.WriteString(style(mutedStyle, "No hours logged this week."))
		b.WriteByte('\n')
	}
	for _, e := range engineers {
		fmt.Fprintf(&b, "%-*s", nameWidth, truncate(e, nameWidth-1))
		for _, d := range rep.Week {
			b.WriteString(hoursCell(rep.Hours[e][d], colWidth))
		}
		b.WriteString(hoursCell(rep.RowTotal(e), colWidth))
		b.WriteByte('\n')
	}

	footer := fmt.Sprintf("%-*s", nameWidth, "Total")
	for _, d := range rep.Week {
		footer += hoursCell(rep.ColumnTotal(d), colWidth)
	}
	footer += hoursCell(rep.GrandTotal(), colWidth)
	b.WriteString(style(categoryStyle, footer))
	b.WriteByte('\n')
	return b.String()
}

func hoursCell(h float64, width int) string {
	if h == 0 {
		return fmt.Sprintf("%*s", width, "-")
	}
	return fmt.Sprintf("%*.1f", width, h)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
