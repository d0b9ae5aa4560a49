package orchestrator

import (
	"fmt"
	"time"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
)

// Status is the terminal outcome of a run.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusNoSkillsFound Status = "no_skills_found"
	StatusError         Status = "error"
)

// Phase is a step of the run state machine. Error is absorbing: a run that
// enters it aborts without rolling back already-completed writes.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseDiscovering   Phase = "discovering"
	PhaseClustering    Phase = "clustering"
	PhaseConsolidating Phase = "consolidating"
	PhasePublishing    Phase = "publishing"
	PhaseArchiving     Phase = "archiving"
	PhaseDone          Phase = "done"
	PhaseError         Phase = "error"
)

// Summary is the structured result of one orchestration run. Per-item
// failures are not listed separately; they simply reduce the success counts.
type Summary struct {
	RunID              string    `json:"runId"`
	Status             Status    `json:"status"`
	SkillsDiscovered   int       `json:"skillsDiscovered"`
	ClustersCreated    int       `json:"clustersCreated"`
	SkillsConsolidated int       `json:"skillsConsolidated"`
	SkillsPublished    int       `json:"skillsPublished"`
	SkillsArchived     int       `json:"skillsArchived"`
	PublishedFiles     []string  `json:"publishedFiles"`
	ArchivedFiles      []string  `json:"archivedFiles"`
	StartedAt          time.Time `json:"startedAt"`
	FinishedAt         time.Time `json:"finishedAt"`

	// Masters carries the consolidated records for post-run collaborators
	// (publish channel, version control). Not serialized.
	Masters []*skills.MasterRecord `json:"-"`
}

// WriteError reports a failed output write for one consolidated skill. The
// skill is excluded from the published list; the run continues.
type WriteError struct {
	Skill string
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write skill %s to %s: %v", e.Skill, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ArchiveError reports a failed relocation of one source file. The file stays
// in place; the run continues.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
