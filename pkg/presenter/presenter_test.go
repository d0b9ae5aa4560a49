package presenter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestError(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(assert.AnError, "doing the thing")
	assert.Contains(t, errOut.String(), "[ERROR] doing the thing:")
	assert.Empty(t, out.String())

	errOut.Reset()
	p.Error(nil, "ignored")
	assert.Empty(t, errOut.String())
}

func TestMessages(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")

	output := out.String()
	assert.Contains(t, output, "✓ done")
	assert.Contains(t, output, "⚠ careful")
	assert.Contains(t, output, "plain")
}

func TestSection(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Section("Results")
	assert.Contains(t, out.String(), "Results\n-------\n")
}

func TestStats(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Stats(&RunStats{
		Status:       "success",
		Discovered:   5,
		Clusters:     3,
		Consolidated: 1,
		Published:    1,
		Archived:     2,
	})

	output := out.String()
	assert.Contains(t, output, "Status: success")
	assert.Contains(t, output, "Discovered: 5")
	assert.Contains(t, output, "Archived: 2")

	out.Reset()
	p.Stats(nil)
	assert.Empty(t, out.String())
}

func TestQuietMode(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)
	require.True(t, p.IsQuiet())

	p.Success("hidden")
	p.Warning("hidden")
	p.Info("hidden")
	p.Section("hidden")
	p.Separator()
	p.Stats(&RunStats{Status: "success"})
	assert.Empty(t, out.String())

	// Errors still show in quiet mode.
	p.Error(assert.AnError, "still visible")
	assert.NotEmpty(t, errOut.String())
}

func TestConvertSummary(t *testing.T) {
	assert.Nil(t, ConvertSummary(nil))

	stats := ConvertSummary(&orchestrator.Summary{
		Status:             orchestrator.StatusSuccess,
		SkillsDiscovered:   4,
		ClustersCreated:    2,
		SkillsConsolidated: 1,
		SkillsPublished:    1,
		SkillsArchived:     2,
	})
	require.NotNil(t, stats)
	assert.Equal(t, "success", stats.Status)
	assert.Equal(t, 4, stats.Discovered)
	assert.Equal(t, 2, stats.Clusters)
	assert.Equal(t, 1, stats.Consolidated)
	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 2, stats.Archived)
}
