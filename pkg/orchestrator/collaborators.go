package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
)

// ArchiveStore relocates superseded source files. The default implementation
// renames files on the local filesystem.
type ArchiveStore interface {
	MoveFile(from, to string) error
}

// PublishChannel announces a consolidated skill to a remote network. It is
// optional and invoked by a caller of the core after a successful run; the
// core itself needs no network access.
type PublishChannel interface {
	Announce(ctx context.Context, record *skills.MasterRecord, category string) error
}

// VersionControl stages, commits, and pushes file changes. Invoked by a
// caller after a successful run, outside the core's responsibility.
type VersionControl interface {
	Stage(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context, remote, branch string) error
}

type osArchiveStore struct{}

func (osArchiveStore) MoveFile(from, to string) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return errors.Wrap(err, "failed to create archive directory")
	}
	return os.Rename(from, to)
}
