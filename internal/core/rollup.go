package core

import (
	"log/slog"
	"math"
	"time"

	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// RollupSummary is the single summary bar drawn for a collapsed category.
type RollupSummary struct {
	Category  string `json:"category"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Duration  int    `json:"duration"`
	Progress  int    `json:"progress"`
	TaskCount int    `json:"task_count"`
}

// Rollup aggregates the tasks whose category equals category. Only tasks with
// a start date and a positive duration count. Progress is weighted by
// duration and rounded half-up. It returns nil when no task qualifies, in
// which case no summary should be drawn.
func Rollup(tasks []models.Task, category string, logger *slog.Logger) *RollupSummary {
	var (
		start, end time.Time
		weighted   int
		totalDays  int
		count      int
	)
	for _, t := range tasks {
		if t.Category != category || t.StartDate == "" || t.Duration <= 0 {
			continue
		}
		s := dates.Resolve(t.StartDate, logger)
		e := dates.Add(s, t.Duration)
		if count == 0 || s.Before(start) {
			start = s
		}
		if count == 0 || e.After(end) {
			end = e
		}
		weighted += t.Duration * t.Progress
		totalDays += t.Duration
		count++
	}
	if count == 0 {
		return nil
	}
	return &RollupSummary{
		Category:  category,
		Start:     dates.Format(start),
		End:       dates.Format(end),
		Duration:  dates.DayDiff(start, end),
		Progress:  int(math.Floor(float64(weighted)/float64(totalDays) + 0.5)),
		TaskCount: count,
	}
}

// CollapsedRollups returns a summary for every collapsed category that has at
// least one qualifying task, keyed by category name.
func CollapsedRollups(p *models.Project, logger *slog.Logger) map[string]*RollupSummary {
	out := make(map[string]*RollupSummary)
	for _, c := range p.Categories {
		if !c.Collapsed {
			continue
		}
		if r := Rollup(p.Tasks, c.Name, logger); r != nil {
			out[c.Name] = r
		}
	}
	return out
}
