package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// ViewKind tags a ViewMode variant.
type ViewKind string

const (
	ViewDay    ViewKind = "day"
	ViewWeek   ViewKind = "week"
	ViewMonth  ViewKind = "month"
	ViewCustom ViewKind = "custom"
)

// ViewMode is one of Day, Week, Month or Custom(width). Only Custom carries
// its own width; the presets resolve through Zoom.
type ViewMode struct {
	Kind  ViewKind
	width int
}

func Day() ViewMode   { return ViewMode{Kind: ViewDay} }
func Week() ViewMode  { return ViewMode{Kind: ViewWeek} }
func Month() ViewMode { return ViewMode{Kind: ViewMonth} }

// Custom returns a manual zoom level. The width is clamped when resolved.
func Custom(width int) ViewMode { return ViewMode{Kind: ViewCustom, width: width} }

func (v ViewMode) String() string {
	if v.Kind == ViewCustom {
		return fmt.Sprintf("custom(%d)", v.width)
	}
	return string(v.Kind)
}

// ParseViewMode accepts "day", "week", "month", "custom(N)" or a bare
// integer width.
func ParseViewMode(s string) (ViewMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "day":
		return Day(), nil
	case "week":
		return Week(), nil
	case "month":
		return Month(), nil
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(s, "custom("), ")")
	w, err := strconv.Atoi(raw)
	if err != nil {
		return ViewMode{}, fmt.Errorf("unknown view mode %q: use day, week, month or a width", s)
	}
	return Custom(w), nil
}

// Zoom resolves view modes to column widths. Widths are always kept inside
// [MinWidth, MaxWidth].
type Zoom struct {
	DayWidth   int
	WeekWidth  int
	MonthWidth int
	MinWidth   int
	MaxWidth   int
}

// NewZoom builds a Zoom from timeline configuration.
func NewZoom(cfg models.TimelineConfig) Zoom {
	z := Zoom{
		DayWidth:   cfg.DayWidth,
		WeekWidth:  cfg.WeekWidth,
		MonthWidth: cfg.MonthWidth,
		MinWidth:   cfg.MinWidth,
		MaxWidth:   cfg.MaxWidth,
	}
	if z.MinWidth <= 0 {
		z.MinWidth = 10
	}
	if z.MaxWidth < z.MinWidth {
		z.MaxWidth = 200
	}
	return z
}

// ColumnWidth returns the per-day column width for v.
func (z Zoom) ColumnWidth(v ViewMode) int {
	switch v.Kind {
	case ViewWeek:
		return z.clamp(z.WeekWidth)
	case ViewMonth:
		return z.clamp(z.MonthWidth)
	case ViewCustom:
		return z.clamp(v.width)
	default:
		return z.clamp(z.DayWidth)
	}
}

// By applies a manual zoom step to v. The result is always Custom, even when
// the new width happens to equal a preset.
func (z Zoom) By(v ViewMode, delta int) ViewMode {
	return Custom(z.clamp(z.ColumnWidth(v) + delta))
}

// To sets an explicit manual width.
func (z Zoom) To(width int) ViewMode {
	return Custom(z.clamp(width))
}

func (z Zoom) clamp(w int) int {
	if w < z.MinWidth {
		return z.MinWidth
	}
	if w > z.MaxWidth {
		return z.MaxWidth
	}
	return w
}
