package core

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/valter-silva-au/wbs-gantt/internal/dates"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// WeekOf returns the seven dates of the Monday-start week containing
// reference.
func WeekOf(reference time.Time) []string {
	ref := dates.Midnight(reference)
	back := int(ref.Weekday()) - 1
	if ref.Weekday() == time.Sunday {
		back = 6
	}
	monday := dates.Add(ref, -back)

	week := make([]string, 7)
	for i := range week {
		week[i] = dates.Format(dates.Add(monday, i))
	}
	return week
}

// MatchesProject reports whether a log record belongs to the project. The
// upstream project field is free text, so a record matches when it equals
// the project id ignoring case, or when any of its tokens appears among the
// tokens of the project id and name.
func MatchesProject(entry models.LogEntry, ref models.ProjectRef) bool {
	logID := strings.ToLower(strings.TrimSpace(entry.ProjectID))
	if logID == "" {
		return false
	}
	if logID == strings.ToLower(strings.TrimSpace(ref.ID)) {
		return true
	}

	projectTokens := make(map[string]struct{})
	for _, tok := range tokens(ref.ID + " " + ref.Name) {
		projectTokens[tok] = struct{}{}
	}
	for _, tok := range tokens(logID) {
		if _, ok := projectTokens[tok]; ok {
			return true
		}
	}
	return false
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// LaborReport is the engineer by day matrix of hours for one week.
type LaborReport struct {
	Project models.ProjectRef             `json:"project"`
	Week    []string                      `json:"week"`
	Hours   map[string]map[string]float64 `json:"hours"`
}

// WeeklyLabor buckets the logs that match ref into the week containing
// referenceDate. Records with unparseable dates are skipped.
func WeeklyLabor(logs []models.LogEntry, ref models.ProjectRef, referenceDate time.Time) *LaborReport {
	r := &LaborReport{
		Project: ref,
		Week:    WeekOf(referenceDate),
		Hours:   make(map[string]map[string]float64),
	}
	inWeek := make(map[string]struct{}, len(r.Week))
	for _, d := range r.Week {
		inWeek[d] = struct{}{}
	}

	for _, entry := range logs {
		day, ok := dates.Normalize(entry.Date)
		if !ok {
			continue
		}
		if _, ok := inWeek[day]; !ok {
			continue
		}
		if !MatchesProject(entry, ref) {
			continue
		}
		row, ok := r.Hours[entry.Engineer]
		if !ok {
			row = make(map[string]float64)
			r.Hours[entry.Engineer] = row
		}
		row[day] += entry.Hours
	}
	return r
}

// Engineers returns the engineers with logged hours, sorted by name.
func (r *LaborReport) Engineers() []string {
	names := make([]string, 0, len(r.Hours))
	for name := range r.Hours {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RowTotal is the engineer's total for the week.
func (r *LaborReport) RowTotal(engineer string) float64 {
	var sum float64
	for _, h := range r.Hours[engineer] {
		sum += h
	}
	return sum
}

// ColumnTotal is the total across engineers for one date.
func (r *LaborReport) ColumnTotal(date string) float64 {
	var sum float64
	for _, row := range r.Hours {
		sum += row[date]
	}
	return sum
}

// GrandTotal is the total hours in the report.
func (r *LaborReport) GrandTotal() float64 {
	var sum float64
	for name := range r.Hours {
		sum += r.RowTotal(name)
	}
	return sum
}
