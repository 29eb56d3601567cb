package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/internal/storage"
	"github.com/valter-silva-au/wbs-gantt/internal/timeline"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// Rows above the first timeline row: title, blank, month, week, calendar.
const boardTimelineTop = 5

// zoomStep is the column width change per +/- keypress, in pixels.
const zoomStep = 4

var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("208")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// boardRow is one line of the timeline body: a category heading or a task.
type boardRow struct {
	taskID     string
	categoryID string
}

// boardRows lists body rows in the order renderTimeline draws them.
func boardRows(p *models.Project) []boardRow {
	var rows []boardRow
	known := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		known[c.Name] = true
		rows = append(rows, boardRow{categoryID: c.ID})
		if c.Collapsed {
			continue
		}
		for _, t := range p.Tasks {
			if t.Category == c.Name {
				rows = append(rows, boardRow{taskID: t.ID})
			}
		}
	}
	heading := false
	for _, t := range p.Tasks {
		if known[t.Category] {
			continue
		}
		if !heading {
			rows = append(rows, boardRow{})
			heading = true
		}
		rows = append(rows, boardRow{taskID: t.ID})
	}
	return rows
}

type boardModel struct {
	pm     core.ProjectManager
	drag   core.DragEngine
	who    models.Identity
	opts   timeline.Options
	mode   timeline.ViewMode
	save   func() error
	logger *slog.Logger

	width  int
	height int
	cursor int
	scroll int

	session *core.DragSession
	pending *core.DelayCandidate
	pointer float64
	input   textinput.Model

	status string
	err    error
}

func newBoardModel(pm core.ProjectManager, drag core.DragEngine, who models.Identity, opts timeline.Options, mode timeline.ViewMode, logger *slog.Logger) boardModel {
	input := textinput.New()
	input.Placeholder = "Why is this task late?"
	input.CharLimit = 200

	return boardModel{
		pm:     pm,
		drag:   drag,
		who:    who,
		opts:   opts,
		mode:   mode,
		save:   pm.Save,
		logger: logger,
		input:  input,
	}
}

func (m boardModel) Init() tea.Cmd {
	return nil
}

func (m boardModel) geometry() (*models.Project, *timeline.Geometry) {
	p := m.pm.Snapshot()
	return p, timeline.Compute(p, m.mode, m.opts)
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.pending != nil:
			return m.updatePending(msg)
		case m.session != nil:
			return m.updateDragging(msg), nil
		default:
			return m.updateIdle(msg)
		}

	case tea.MouseMsg:
		return m.updateMouse(msg), nil
	}

	return m, nil
}

func (m boardModel) updateIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p, g := m.geometry()
	rows := boardRows(p)

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "left", "h":
		m.scroll = max(m.scroll-4, 0)
	case "right", "l":
		m.scroll += 4
	case "t":
		if off, ok := g.TodayOffset(); ok {
			m.scroll = max(off/pxPerCell-4, 0)
		}
	case "+", "=":
		m.mode = m.opts.Zoom.By(m.mode, zoomStep)
		m.status = fmt.Sprintf("zoom %dpx/day", m.opts.Zoom.ColumnWidth(m.mode))
	case "-":
		m.mode = m.opts.Zoom.By(m.mode, -zoomStep)
		m.status = fmt.Sprintf("zoom %dpx/day", m.opts.Zoom.ColumnWidth(m.mode))
	case "d":
		m.mode = timeline.Day()
	case "w":
		m.mode = timeline.Week()
	case "m":
		m.mode = timeline.Month()
	case "enter", " ":
		if m.cursor >= len(rows) {
			return m, nil
		}
		r := rows[m.cursor]
		if r.taskID == "" {
			return m.toggleCollapse(p, r.categoryID), nil
		}
		pl := m.placement(r.taskID, g)
		return m.beginDrag(r.taskID, float64(pl.Left), g), nil
	}
	return m, nil
}

func (m boardModel) updateDragging(msg tea.KeyMsg) boardModel {
	step := float64(m.session.ColumnWidth)
	switch msg.String() {
	case "left", "h":
		m.pointer -= step
	case "right", "l":
		m.pointer += step
	case "shift+left", "H":
		m.pointer -= step / 4
	case "shift+right", "L":
		m.pointer += step / 4
	case "esc":
		m.drag.AbortDrag(m.session)
		m.session = nil
		m.status = "drag cancelled"
		return m
	case "enter", " ":
		return m.endDrag()
	default:
		return m
	}
	m.drag.UpdateDrag(m.session, m.pointer)
	return m
}

func (m boardModel) updatePending(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if err := m.drag.DiscardDelay(m.pending); err != nil {
			m.err = err
		}
		m.pending = nil
		m.input.Reset()
		m.input.Blur()
		m.status = "delay discarded"
		return m, nil
	case "enter":
		task, err := m.drag.ConfirmDelay(m.pending, m.input.Value())
		if errors.Is(err, core.ErrEmptyDelayReason) {
			m.err = fmt.Errorf("a delay reason is required")
			return m, nil
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.pending = nil
		m.input.Reset()
		m.input.Blur()
		m.status = fmt.Sprintf("%s delayed to %s: %s", task.ID, task.StartDate, task.DelayReason)
		m.persist()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m boardModel) updateMouse(msg tea.MouseMsg) boardModel {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.session != nil || m.pending != nil {
			return m
		}
		p, g := m.geometry()
		rows := boardRows(p)
		idx := msg.Y - boardTimelineTop
		if idx < 0 || idx >= len(rows) {
			return m
		}
		m.cursor = idx
		r := rows[idx]
		if r.taskID == "" {
			return m.toggleCollapse(p, r.categoryID)
		}
		x := m.pixelAt(msg.X, g)
		pl := m.placement(r.taskID, g)
		if x < pl.Left || x >= pl.Right() {
			return m
		}
		return m.beginDrag(r.taskID, float64(x), g)

	case msg.Action == tea.MouseActionMotion && m.session != nil:
		_, g := m.geometry()
		m.pointer = float64(m.pixelAt(msg.X, g))
		m.drag.UpdateDrag(m.session, m.pointer)

	case msg.Action == tea.MouseActionRelease && m.session != nil:
		_, g := m.geometry()
		m.pointer = float64(m.pixelAt(msg.X, g))
		m.drag.UpdateDrag(m.session, m.pointer)
		return m.endDrag()
	}
	return m
}

// pixelAt converts a terminal column to a timeline x offset.
func (m boardModel) pixelAt(col int, g *timeline.Geometry) int {
	return (col-sidebarCells(g)+m.scroll)*pxPerCell + pxPerCell/2
}

func (m boardModel) placement(taskID string, g *timeline.Geometry) timeline.Placement {
	t, err := m.pm.GetTask(taskID)
	if err != nil {
		return timeline.Placement{}
	}
	return timeline.Place(t, g)
}

func (m boardModel) beginDrag(taskID string, x float64, g *timeline.Geometry) boardModel {
	s, err := m.drag.BeginDrag(taskID, x, m.who, g.ColumnWidth)
	if errors.Is(err, core.ErrUnauthorizedDrag) {
		// Read-only viewers just see nothing happen.
		m.logger.Debug("drag ignored", "task_id", taskID, "user", m.who.UserID)
		return m
	}
	if err != nil {
		m.err = err
		return m
	}
	m.session = s
	m.pointer = x
	m.err = nil
	m.status = "dragging " + taskID
	return m
}

func (m boardModel) endDrag() boardModel {
	res, err := m.drag.EndDrag(m.session)
	m.session = nil
	if err != nil {
		m.err = err
		return m
	}
	switch {
	case res.DelayDetected:
		m.pending = res.Candidate
		m.input.Focus()
		m.status = ""
	case res.Committed:
		m.status = fmt.Sprintf("%s moved to %s", res.Task.ID, res.Task.StartDate)
		m.persist()
	default:
		m.status = "no change"
	}
	return m
}

func (m boardModel) toggleCollapse(p *models.Project, categoryID string) boardModel {
	for _, c := range p.Categories {
		if c.ID != categoryID {
			continue
		}
		if err := m.pm.SetCollapsed(c.ID, !c.Collapsed); err != nil {
			m.err = err
			return m
		}
		m.persist()
	}
	return m
}

func (m *boardModel) persist() {
	if m.save == nil {
		return
	}
	if err := m.save(); err != nil {
		if errors.Is(err, storage.ErrStaleProject) {
			// Someone else saved first; show their version and drop ours.
			if lerr := m.pm.Load(); lerr != nil {
				err = errors.Join(err, lerr)
			} else {
				m.logger.Warn("project changed on disk, reloaded", "user", m.who.UserID)
				m.err = fmt.Errorf("project changed on disk; reloaded, redo your change")
				return
			}
		}
		m.err = fmt.Errorf("saving project: %w", err)
		return
	}
	m.err = nil
}

func (m boardModel) View() string {
	p, g := m.geometry()
	rows := boardRows(p)

	opts := renderOptions{FirstCell: m.scroll, Logger: m.logger}
	if m.width > 0 {
		opts.MaxCells = max(m.width-sidebarCells(g)-12, 10)
	}
	if m.cursor < len(rows) && rows[m.cursor].taskID != "" {
		opts.Selected = rows[m.cursor].taskID
		if m.session != nil {
			pl := m.placement(m.session.TaskID, g)
			opts.Ghost = &timeline.Placement{Left: pl.Left + int(m.session.OffsetPx), Width: pl.Width}
		}
		if m.pending != nil {
			ghost := timeline.PlaceSpan(m.pending.NewStart, m.pending.Candidate.Duration, g)
			opts.Ghost = &ghost
		}
	}

	var b strings.Builder
	title := fmt.Sprintf(" %s %s  [%s, %dpx/day] ", p.ID, p.Name, g.Mode, g.ColumnWidth)
	b.WriteString(boardTitleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(renderTimeline(p, g, opts))
	b.WriteByte('\n')

	if m.session != nil {
		target := dates.Format(dates.Add(dates.Resolve(m.session.OriginalStart, m.logger), m.session.DaysDelta()))
		b.WriteString(statusStyle.Render(fmt.Sprintf("%s: %+d day(s) -> %s", m.session.TaskID, m.session.DaysDelta(), target)))
		b.WriteByte('\n')
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteByte('\n')
	}

	if m.pending != nil {
		c := m.pending
		end := dates.Format(dates.Add(dates.Resolve(c.NewStart, m.logger), c.Candidate.Duration))
		prompt := fmt.Sprintf("%s %s would now finish on %s (%+d day(s)).\nEnter a delay reason:\n\n%s\n\nenter: confirm   esc: discard",
			c.Original.ID, c.Original.Title, end, c.DaysDelta, m.input.View())
		b.WriteString(promptStyle.Render(prompt))
		b.WriteByte('\n')
	}

	var help string
	switch {
	case m.pending != nil:
		help = ""
	case m.session != nil:
		help = "←/→: move a day | shift+←/→: fine | enter: drop | esc: cancel"
	default:
		help = "↑/↓: select | enter: drag / collapse | ←/→: scroll | t: today | +/-: zoom | d/w/m: view | q: quit"
	}
	if help != "" {
		b.WriteString(helpStyle.Render(help))
	}
	return b.String()
}

var boardView string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive Gantt board with drag-to-reschedule",
	Long: `Open the interactive timeline.

Select a task and press enter (or click its bar) to start dragging, move it
with the arrow keys or the mouse, and drop it with enter or by releasing the
button. Moving a task so it ends later opens a prompt for the delay reason;
esc discards the move. Enter on a category heading collapses or expands it.
Changes are saved to the project file as they are committed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireProject(); err != nil {
			return err
		}
		if DragEngine == nil {
			return fmt.Errorf("drag engine not initialized")
		}
		mode, err := resolveView(boardView)
		if err != nil {
			return err
		}

		m := newBoardModel(ProjectMgr, DragEngine, Identity, timelineOptions(), mode, logger())
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running board: %w", err)
		}
		return nil
	},
}

func init() {
	boardCmd.Flags().StringVar(&boardView, "view", "", "Initial zoom level: day, week, month, or a column width")
	registerViewCompletion(boardCmd)
	rootCmd.AddCommand(boardCmd)
}
