// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the schedule engine as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/internal/observability"
	"github.com/valter-silva-au/wbs-gantt/internal/storage"
	"github.com/valter-silva-au/wbs-gantt/internal/timeline"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// LogReader supplies the labor log corpus.
type LogReader interface {
	ReadAll() ([]models.LogEntry, error)
}

// Deps are the services the server exposes. Logs, MetricsCalc and
// AlertEngine may be nil.
type Deps struct {
	Projects    core.ProjectManager
	Drag        core.DragEngine
	Logs        LogReader
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
	Identity    models.Identity
	Timeline    timeline.Options
	Logger      *slog.Logger
}

// Server wraps the schedule services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	deps   Deps

	// mu serialises tool calls that touch the project; the project manager
	// itself is not safe for concurrent use.
	mu sync.Mutex
}

// NewServer creates an MCP server over deps.
func NewServer(deps Deps, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{deps: deps}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "gantt", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listTasksInput struct {
	Category string `json:"category,omitempty" jsonschema:"only return tasks in this WBS category"`
}

type taskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Duration    int    `json:"duration"`
	Progress    int    `json:"progress"`
	DelayReason string `json:"delay_reason,omitempty"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type getGeometryInput struct {
	View string `json:"view,omitempty" jsonschema:"day, week, month, or a column width in pixels. Defaults to day."`
}

type headerOutput struct {
	Label  string `json:"label"`
	Offset int    `json:"offset"`
	Width  int    `json:"width"`
}

type placementOutput struct {
	TaskID string `json:"task_id"`
	Left   int    `json:"left"`
	Width  int    `json:"width"`
}

type geometryOutput struct {
	View         string            `json:"view"`
	ColumnWidth  int               `json:"column_width"`
	RenderStart  string            `json:"render_start"`
	RenderEnd    string            `json:"render_end"`
	DayCount     int               `json:"day_count"`
	TotalWidth   int               `json:"total_width"`
	CanvasWidth  int               `json:"canvas_width"`
	TodayOffset  *int              `json:"today_offset,omitempty"`
	Months       []headerOutput    `json:"months"`
	Weeks        []headerOutput    `json:"weeks"`
	Placements   []placementOutput `json:"placements"`
	Weekends     []string          `json:"weekends,omitempty"`
	HolidayDates []string          `json:"holidays,omitempty"`
}

type rollupInput struct {
	Category string `json:"category" jsonschema:"required,WBS category name"`
}

type rollupOutput struct {
	Found   bool                `json:"found"`
	Summary *core.RollupSummary `json:"summary,omitempty"`
}

type weeklyLaborInput struct {
	ReferenceDate string `json:"reference_date,omitempty" jsonschema:"any date in the week (YYYY-MM-DD). Defaults to today."`
}

type weeklyLaborOutput struct {
	Week        []string                      `json:"week"`
	Hours       map[string]map[string]float64 `json:"hours"`
	RowTotals   map[string]float64            `json:"row_totals"`
	ColumnTotal map[string]float64            `json:"column_totals"`
	GrandTotal  float64                       `json:"grand_total"`
}

type rescheduleInput struct {
	TaskID string `json:"task_id" jsonschema:"required,task identifier (e.g. T-4)"`
	Days   int    `json:"days" jsonschema:"required,number of days to shift; negative moves earlier"`
	Reason string `json:"reason,omitempty" jsonschema:"delay justification, required when the end date moves later"`
}

type rescheduleOutput struct {
	Committed     bool       `json:"committed"`
	DelayDetected bool       `json:"delay_detected"`
	Task          taskOutput `json:"task"`
	Message       string     `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List scheduled tasks with start, end, duration, progress and delay reason.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_geometry",
		Description: "Compute the timeline layout: render window, header groups, today marker and bar placement for every task.",
	}, s.handleGetGeometry)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "rollup_category",
		Description: "Summarise a WBS category: earliest start, latest end and duration-weighted progress.",
	}, s.handleRollup)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "weekly_labor",
		Description: "Aggregate logged hours per engineer and day for the Monday-start week containing the reference date.",
	}, s.handleWeeklyLabor)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reschedule_task",
		Description: "Shift a task by whole days. Moves that push the end date later require a reason.",
	}, s.handleReschedule)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get schedule metrics from the event log: reschedules, confirmed and discarded delays, aborted drags.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate schedule-slip alerts (repeatedly delayed tasks, delay volume, unparseable dates).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	s.mu.Lock()
	tasks := s.deps.Projects.Tasks()
	s.mu.Unlock()

	out := listTasksOutput{Tasks: []taskOutput{}}
	for _, t := range tasks {
		if input.Category != "" && t.Category != input.Category {
			continue
		}
		out.Tasks = append(out.Tasks, s.taskToOutput(t))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleGetGeometry(_ context.Context, _ *gomcp.CallToolRequest, input getGeometryInput) (*gomcp.CallToolResult, geometryOutput, error) {
	mode, err := timeline.ParseViewMode(input.View)
	if err != nil {
		return errorResult(err.Error()), geometryOutput{}, nil
	}

	s.mu.Lock()
	p := s.deps.Projects.Snapshot()
	s.mu.Unlock()

	opts := s.deps.Timeline
	opts.Logger = s.deps.Logger
	g := timeline.Compute(p, mode, opts)

	out := geometryOutput{
		View:        g.Mode.String(),
		ColumnWidth: g.ColumnWidth,
		RenderStart: dates.Format(g.RenderStart),
		RenderEnd:   dates.Format(g.RenderEnd()),
		DayCount:    len(g.Days),
		TotalWidth:  g.TotalWidth,
		CanvasWidth: g.CanvasWidth,
		Months:      headers(g.Months),
		Weeks:       headers(g.Weeks),
		Placements:  make([]placementOutput, 0, len(p.Tasks)),
	}
	if off, ok := g.TodayOffset(); ok {
		out.TodayOffset = &off
	}
	for _, t := range p.Tasks {
		pl := timeline.Place(t, g)
		out.Placements = append(out.Placements, placementOutput{TaskID: t.ID, Left: pl.Left, Width: pl.Width})
	}
	for _, d := range g.Days {
		if d.IsWeekend {
			out.Weekends = append(out.Weekends, d.Date)
		}
		if d.IsHoliday {
			out.HolidayDates = append(out.HolidayDates, d.Date)
		}
	}
	return nil, out, nil
}

func (s *Server) handleRollup(_ context.Context, _ *gomcp.CallToolRequest, input rollupInput) (*gomcp.CallToolResult, rollupOutput, error) {
	if input.Category == "" {
		return errorResult("category is required"), rollupOutput{}, nil
	}

	s.mu.Lock()
	tasks := s.deps.Projects.Tasks()
	s.mu.Unlock()

	summary := core.Rollup(tasks, input.Category, s.deps.Logger)
	return nil, rollupOutput{Found: summary != nil, Summary: summary}, nil
}

func (s *Server) handleWeeklyLabor(_ context.Context, _ *gomcp.CallToolRequest, input weeklyLaborInput) (*gomcp.CallToolResult, weeklyLaborOutput, error) {
	if s.deps.Logs == nil {
		return errorResult("labor log store not available"), weeklyLaborOutput{}, nil
	}
	ref := dates.Today()
	if input.ReferenceDate != "" {
		d, ok := dates.Normalize(input.ReferenceDate)
		if !ok {
			return errorResult(fmt.Sprintf("invalid reference_date %q", input.ReferenceDate)), weeklyLaborOutput{}, nil
		}
		ref, _ = dates.ParseLocal(d)
	}

	logs, err := s.deps.Logs.ReadAll()
	if err != nil {
		return errorResult(fmt.Sprintf("reading labor logs: %s", err)), weeklyLaborOutput{}, nil
	}

	s.mu.Lock()
	project := s.deps.Projects.Snapshot().Ref()
	s.mu.Unlock()

	r := core.WeeklyLabor(logs, project, ref)
	out := weeklyLaborOutput{
		Week:        r.Week,
		Hours:       r.Hours,
		RowTotals:   make(map[string]float64, len(r.Hours)),
		ColumnTotal: make(map[string]float64, len(r.Week)),
		GrandTotal:  r.GrandTotal(),
	}
	for _, e := range r.Engineers() {
		out.RowTotals[e] = r.RowTotal(e)
	}
	for _, d := range r.Week {
		out.ColumnTotal[d] = r.ColumnTotal(d)
	}
	return nil, out, nil
}

// handleReschedule drives the drag engine with a one-pixel column so that
// Days maps directly onto the pointer offset.
func (s *Server) handleReschedule(_ context.Context, _ *gomcp.CallToolRequest, input rescheduleInput) (*gomcp.CallToolResult, rescheduleOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), rescheduleOutput{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.deps.Drag.BeginDrag(input.TaskID, 0, s.deps.Identity, 1)
	if errors.Is(err, core.ErrUnauthorizedDrag) {
		return errorResult(fmt.Sprintf("user %q may not reschedule tasks in this project", s.deps.Identity.UserID)), rescheduleOutput{}, nil
	}
	if err != nil {
		return errorResult(err.Error()), rescheduleOutput{}, nil
	}
	s.deps.Drag.UpdateDrag(session, float64(input.Days))
	res, err := s.deps.Drag.EndDrag(session)
	if err != nil {
		return errorResult(err.Error()), rescheduleOutput{}, nil
	}

	out := rescheduleOutput{Committed: res.Committed, DelayDetected: res.DelayDetected, Task: s.taskToOutput(res.Task)}
	switch {
	case res.DelayDetected:
		task, err := s.deps.Drag.ConfirmDelay(res.Candidate, input.Reason)
		if err != nil {
			_ = s.deps.Drag.DiscardDelay(res.Candidate)
			return errorResult(fmt.Sprintf("task %s would finish %d days later: %s", input.TaskID, res.DaysDelta, err)), rescheduleOutput{}, nil
		}
		out.Committed = true
		out.Task = s.taskToOutput(task)
		out.Message = fmt.Sprintf("task %s delayed by %d days", task.ID, res.DaysDelta)
	case res.Committed:
		out.Message = fmt.Sprintf("task %s moved by %d days", res.Task.ID, res.DaysDelta)
	default:
		out.Message = "no change"
		return nil, out, nil
	}

	if err := s.deps.Projects.Save(); err != nil {
		if errors.Is(err, storage.ErrStaleProject) {
			if lerr := s.deps.Projects.Load(); lerr == nil {
				s.deps.Logger.Warn("project changed on disk, reloaded", "task_id", input.TaskID)
				return errorResult(fmt.Sprintf("project changed on disk; reloaded without moving %s, retry", input.TaskID)), rescheduleOutput{}, nil
			}
		}
		return errorResult(fmt.Sprintf("saving project: %s", err)), rescheduleOutput{}, nil
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, observability.Metrics, error) {
	if s.deps.MetricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), observability.Metrics{}, nil
	}
	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	since, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), observability.Metrics{}, nil
	}
	m, err := s.deps.MetricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), observability.Metrics{}, nil
	}
	return nil, *m, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.deps.AlertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}
	alerts, err := s.deps.AlertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}
	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func (s *Server) taskToOutput(t models.Task) taskOutput {
	start := dates.Resolve(t.StartDate, s.deps.Logger)
	return taskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Category:    t.Category,
		Assignee:    t.Assignee,
		StartDate:   t.StartDate,
		EndDate:     dates.Format(dates.Add(start, t.Duration)),
		Duration:    t.Duration,
		Progress:    t.Progress,
		DelayReason: t.DelayReason,
	}
}

func headers(groups []timeline.HeaderGroup) []headerOutput {
	out := make([]headerOutput, len(groups))
	for i, g := range groups {
		out[i] = headerOutput{Label: g.Label, Offset: g.Offset, Width: g.Width}
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses "7d" or "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	suffix := s[len(s)-1]
	var num int
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
