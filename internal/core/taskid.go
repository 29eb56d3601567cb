package core

import (
	"fmt"

	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// TaskIDGenerator defines the interface for generating unique, sequential task IDs.
type TaskIDGenerator interface {
	NextTaskID(p *models.Project) string
}

// seqTaskIDGenerator implements TaskIDGenerator with the counter stored on
// the project itself, so an id is never handed out twice even after the task
// that held it is deleted.
type seqTaskIDGenerator struct {
	prefix   string
	padWidth int
}

// NewTaskIDGenerator creates a new TaskIDGenerator. padWidth controls the
// zero-padding width of the numeric portion. Use 0 for no padding (e.g., T-1).
func NewTaskIDGenerator(prefix string, padWidth int) TaskIDGenerator {
	if prefix == "" {
		prefix = "T"
	}
	return &seqTaskIDGenerator{prefix: prefix, padWidth: padWidth}
}

// NextTaskID increments p.NextTaskSeq and returns the formatted id. Counter
// values whose id is already present (hand-edited project files) are skipped.
func (g *seqTaskIDGenerator) NextTaskID(p *models.Project) string {
	taken := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		taken[t.ID] = struct{}{}
	}
	for {
		p.NextTaskSeq++
		id := g.format(p.NextTaskSeq)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}

func (g *seqTaskIDGenerator) format(n int) string {
	if g.padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", g.prefix, g.padWidth, n)
	}
	return fmt.Sprintf("%s-%d", g.prefix, n)
}
