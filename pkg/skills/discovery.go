package skills

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
)

const skillGlob = "**/*.md"

// Discovery enumerates skill documents under a root directory.
type Discovery struct {
	root string
}

// NewDiscovery creates a discovery instance rooted at dir.
func NewDiscovery(dir string) *Discovery {
	return &Discovery{root: dir}
}

// Root returns the directory being scanned.
func (d *Discovery) Root() string {
	return d.root
}

// Discover finds and parses all skill documents under the root, in lexical
// path order. A file that fails to parse is logged and skipped; it never
// aborts the scan. A missing root yields an empty result.
func (d *Discovery) Discover(ctx context.Context) ([]*SkillRecord, error) {
	log := logger.G(ctx)

	if _, err := os.Stat(d.root); err != nil {
		log.WithField("dir", d.root).Warn("skills directory not found")
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(d.root), skillGlob)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan skills directory %s", d.root)
	}

	records := make([]*SkillRecord, 0, len(matches))
	for _, match := range matches {
		path := filepath.Join(d.root, filepath.FromSlash(match))

		content, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Error("failed to read skill file")
			continue
		}

		record, err := Parse(content, path)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("skipping unparsable skill file")
			continue
		}

		log.WithField("skill", record.Name).WithField("file", path).Info("discovered skill")
		records = append(records, record)
	}

	return records, nil
}
