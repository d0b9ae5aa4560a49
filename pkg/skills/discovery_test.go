package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscoverFindsNestedSkills(t *testing.T) {
	tmpDir := t.TempDir()

	writeSkillFile(t, tmpDir, "alpha.md", "---\nname: alpha\ndescription: First skill\n---\nAlpha body.\n")
	writeSkillFile(t, filepath.Join(tmpDir, "nested", "deep"), "beta.md", "---\nname: beta\n---\nBeta body.\n")

	discovery := NewDiscovery(tmpDir)
	records, err := discovery.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	names := []string{records[0].Name, records[1].Name}
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "beta")

	for _, record := range records {
		assert.NotEmpty(t, record.SourcePath)
		_, statErr := os.Stat(record.SourcePath)
		assert.NoError(t, statErr)
	}
}

func TestDiscoverSkipsUnparsableFiles(t *testing.T) {
	tmpDir := t.TempDir()

	writeSkillFile(t, tmpDir, "good.md", "---\nname: good\n---\nbody\n")
	writeSkillFile(t, tmpDir, "no-frontmatter.md", "# Just markdown\n")
	writeSkillFile(t, tmpDir, "no-name.md", "---\ndescription: nameless\n---\nbody\n")

	discovery := NewDiscovery(tmpDir)
	records, err := discovery.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].Name)
}

func TestDiscoverMissingRoot(t *testing.T) {
	discovery := NewDiscovery(filepath.Join(t.TempDir(), "does-not-exist"))

	records, err := discovery.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDiscoverIgnoresNonMarkdown(t *testing.T) {
	tmpDir := t.TempDir()

	writeSkillFile(t, tmpDir, "skill.md", "---\nname: skill\n---\nbody\n")
	writeSkillFile(t, tmpDir, "notes.txt", "---\nname: not-a-skill\n---\nbody\n")

	discovery := NewDiscovery(tmpDir)
	records, err := discovery.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "skill", records[0].Name)
}
