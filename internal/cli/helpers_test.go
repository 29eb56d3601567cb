package cli

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/valter-silva-au/wbs-gantt/internal/core"
	"github.com/valter-silva-au/wbs-gantt/internal/storage"
	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

var (
	adminID   = models.Identity{UserID: "root", Role: models.RoleAdmin}
	managerID = models.Identity{UserID: "mgr", Role: models.RoleMember}
	memberID  = models.Identity{UserID: "bob", Role: models.RoleMember}
)

func sampleProject() *models.Project {
	return &models.Project{
		ID:        "P100",
		Name:      "Plant Upgrade",
		ManagerID: "mgr",
		StartDate: "2025-01-01",
		Categories: []models.WBSCategory{
			{ID: "c-design", Name: "Design"},
			{ID: "c-build", Name: "Build"},
		},
		Tasks: []models.Task{
			{ID: "T-1", Title: "Survey", Category: "Design", StartDate: "2025-01-01", Duration: 5, Progress: 50},
			{ID: "T-2", Title: "Drawings", Category: "Design", StartDate: "2025-01-03", Duration: 1, Progress: 100},
			{ID: "T-3", Title: "Foundations", Category: "Build", StartDate: "2025-01-10", Duration: 4},
		},
		NextTaskSeq: 3,
	}
}

type cliFixture struct {
	dir   string
	files storage.ProjectFileManager
	logs  storage.LogStore
}

// reload reads the project back from disk.
func (f *cliFixture) reload(t *testing.T) *models.Project {
	t.Helper()
	p, err := f.files.Load()
	if err != nil {
		t.Fatalf("reloading project: %v", err)
	}
	return p
}

// setupCLI wires the package-level services to a project file in a temp
// directory and restores the previous values when the test ends.
func setupCLI(t *testing.T, who models.Identity) *cliFixture {
	t.Helper()

	origPM, origDrag, origFile, origLogs, origID, origLogger := ProjectMgr, DragEngine, ProjectFile, LogStore, Identity, Logger
	t.Cleanup(func() {
		ProjectMgr, DragEngine, ProjectFile, LogStore, Identity, Logger = origPM, origDrag, origFile, origLogs, origID, origLogger
	})

	dir := t.TempDir()
	files := storage.NewProjectFileManager(filepath.Join(dir, "project.yaml"))
	if err := files.Save(sampleProject()); err != nil {
		t.Fatalf("seeding project: %v", err)
	}

	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	pm := core.NewProjectManager(files, core.NewTaskIDGenerator("T", 0), nil, lg)
	if err := pm.Load(); err != nil {
		t.Fatalf("loading project: %v", err)
	}

	f := &cliFixture{dir: dir, files: files, logs: storage.NewLogStore(filepath.Join(dir, "labor.jsonl"))}
	ProjectMgr = pm
	DragEngine = core.NewDragEngine(pm, nil, lg)
	ProjectFile = files
	LogStore = f.logs
	Identity = who
	Logger = lg
	return f
}

// runCmd executes the root command with args and returns combined output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default so package-level
// flag variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func findTask(p *models.Project, id string) (models.Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}
