package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteTaskIDs_NilProjectMgr(t *testing.T) {
	orig := ProjectMgr
	defer func() { ProjectMgr = orig }()
	ProjectMgr = nil

	ids, directive := completeTaskIDs(&cobra.Command{}, nil, "")
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected NoFileComp directive, got %d", directive)
	}
}

func TestCompleteTaskIDs(t *testing.T) {
	setupCLI(t, adminID)

	tests := []struct {
		name       string
		args       []string
		toComplete string
		want       []string
	}{
		{"all", nil, "", []string{"T-1\tSurvey (2025-01-01)", "T-2\tDrawings (2025-01-03)", "T-3\tFoundations (2025-01-10)"}},
		{"prefix", nil, "T-3", []string{"T-3\tFoundations (2025-01-10)"}},
		{"no match", nil, "X", nil},
		{"second arg", []string{"T-1"}, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := completeTaskIDs(taskMoveCmd, tt.args, tt.toComplete)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompleteCategories(t *testing.T) {
	setupCLI(t, adminID)

	got, _ := completeCategories(&cobra.Command{}, nil, "des")
	if want := []string{"Design\tc-design"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	got, _ = completeCategoryArg(&cobra.Command{}, nil, "")
	if len(got) != 2 {
		t.Errorf("expected both categories, got %q", got)
	}
	if got, _ = completeCategoryArg(&cobra.Command{}, []string{"Design"}, ""); got != nil {
		t.Errorf("second argument completed: %q", got)
	}
}

func TestCompleteViews(t *testing.T) {
	got, directive := completeViews(&cobra.Command{}, nil, "")
	if len(got) != 3 || !strings.HasPrefix(got[0], "day\t40px") {
		t.Errorf("unexpected views: %q", got)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected NoFileComp directive, got %d", directive)
	}
}

func TestCompleteHolidays(t *testing.T) {
	setupCLI(t, adminID)
	if _, err := runCmd(t, "holiday", "toggle", "2025-01-06"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got, _ := completeHolidays(holidayToggleCmd, nil, "")
	if len(got) != 2 || got[1] != "2025-01-06\tholiday" || !strings.HasSuffix(got[0], "\ttoday") {
		t.Errorf("unexpected holidays: %q", got)
	}
}

func TestCompletion_Wiring(t *testing.T) {
	for _, cmd := range []*cobra.Command{taskSetCmd, taskMoveCmd, taskRmCmd, wbsRenameCmd, wbsRmCmd, wbsCollapseCmd, rollupCmd, holidayToggleCmd} {
		if cmd.ValidArgsFunction == nil {
			t.Errorf("%s has no argument completion", cmd.CommandPath())
		}
	}
	for _, cmd := range []*cobra.Command{timelineCmd, boardCmd} {
		if _, ok := cmd.GetFlagCompletionFunc("view"); !ok {
			t.Errorf("%s --view has no completion", cmd.CommandPath())
		}
	}
}
