package skills

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderParseRoundTrip(t *testing.T) {
	original := `---
name: backup-db
description: Back up the database nightly
version: 3.0.1
author: DBA Team
category: storage
tags:
  - backup
  - cron
retention_days: 30
---

# Backup

Dump and upload.

## Verify

Check the checksum.
`

	record, err := Parse([]byte(original), "backup.md")
	require.NoError(t, err)

	rendered, err := Render(record)
	require.NoError(t, err)

	reparsed, err := Parse(rendered, "backup.md")
	require.NoError(t, err)

	assert.Equal(t, record.Name, reparsed.Name)
	assert.Equal(t, record.Description, reparsed.Description)
	assert.Equal(t, record.Version, reparsed.Version)
	assert.Equal(t, record.Author, reparsed.Author)
	assert.Equal(t, record.Category, reparsed.Category)
	assert.Equal(t, record.Tags, reparsed.Tags)
	assert.Equal(t, record.Body, reparsed.Body)
	assert.Equal(t, record.RawMetadata["retention_days"], reparsed.RawMetadata["retention_days"])
}

func TestRenderStableFieldOrder(t *testing.T) {
	record := &SkillRecord{
		Name:        "ordered",
		Description: "stable output",
		Version:     "1.0.0",
		Author:      "Unknown",
		Category:    "uncategorized",
		Tags:        []string{"a"},
		RawMetadata: map[string]interface{}{
			"zeta":  "last",
			"alpha": "first-extra",
		},
		Body: "body",
	}

	first, err := Render(record)
	require.NoError(t, err)
	second, err := Render(record)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	lines := strings.Split(string(first), "\n")
	require.Greater(t, len(lines), 8)
	assert.Equal(t, "---", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "name:"))
	assert.True(t, strings.HasPrefix(lines[2], "description:"))
	assert.True(t, strings.HasPrefix(lines[3], "version:"))
	assert.True(t, strings.HasPrefix(lines[4], "author:"))
	assert.True(t, strings.HasPrefix(lines[5], "category:"))

	// Extras come after the known fields, sorted.
	content := string(first)
	assert.Less(t, strings.Index(content, "alpha:"), strings.Index(content, "zeta:"))
}

func TestRenderMasterRecord(t *testing.T) {
	master := &MasterRecord{
		SkillRecord: SkillRecord{
			Name:        "deploy_Master",
			Description: "Deploy code to prod Deploys code to production",
			Version:     "1.2.10",
			Author:      "Clawstr Orchestrator",
			Category:    "devops",
			Tags:        []string{"deploy", "ci"},
			RawMetadata: map[string]interface{}{
				"merged_from": []string{"deploy", "deployer"},
			},
			Body: "# Consolidated Workflow\n\nShip it.",
		},
		MergedFrom: []string{"deploy", "deployer"},
	}

	rendered, err := Render(&master.SkillRecord)
	require.NoError(t, err)

	reparsed, err := Parse(rendered, "deploy_Master.md")
	require.NoError(t, err)
	assert.Equal(t, "deploy_Master", reparsed.Name)
	assert.Equal(t, "1.2.10", reparsed.Version)
	assert.Equal(t, []string{"deploy", "ci"}, reparsed.Tags)
	assert.Equal(t, "# Consolidated Workflow\n\nShip it.", reparsed.Body)

	mergedFrom, ok := reparsed.RawMetadata["merged_from"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"deploy", "deployer"}, mergedFrom)
}

func TestRenderEmptyBody(t *testing.T) {
	record := &SkillRecord{
		Name:     "empty-body",
		Version:  DefaultVersion,
		Author:   DefaultAuthor,
		Category: DefaultCategory,
	}

	rendered, err := Render(record)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(rendered), "\n"))

	reparsed, err := Parse(rendered, "empty.md")
	require.NoError(t, err)
	assert.Empty(t, reparsed.Body)
}
