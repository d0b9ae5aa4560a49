// Package consolidation merges a cluster of similar skills into a single
// master skill: deduplicated descriptions and body sections, unioned tags,
// and an incremented version.
package consolidation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/clustering"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
)

const (
	// MasterSuffix is appended to the first cluster member's name.
	MasterSuffix = "_Master"
	// MasterAuthor is recorded as the author of every consolidated skill.
	MasterAuthor = "Clawstr Orchestrator"
	// FallbackVersion is used when any source version fails to parse.
	FallbackVersion = "1.0.1"

	consolidatedHeading = "# Consolidated Workflow"
	placeholderBody     = "# Consolidated Workflow\n\nNo body content found."
)

var headingLine = regexp.MustCompile(`^#+\s`)

// VersionFormatError reports an unparsable source version. It never aborts a
// merge; the merge falls back to FallbackVersion.
type VersionFormatError struct {
	Version string
}

func (e *VersionFormatError) Error() string {
	return fmt.Sprintf("invalid version format %q, expected major.minor.patch", e.Version)
}

// Consolidate merges the cluster's skills into one master record. Clusters of
// size 1 or less are never consolidated; they return nil.
func Consolidate(ctx context.Context, cluster *clustering.Cluster) *skills.MasterRecord {
	if cluster == nil || cluster.Size() <= 1 {
		return nil
	}

	sources := cluster.Skills
	first := sources[0]

	name := first.Name + MasterSuffix
	description := mergeDescriptions(sources)
	version, err := mergeVersions(sources)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("cluster", cluster.ID).
			Warn("unparsable source version, falling back to default")
	}
	tags := mergeTags(sources)

	mergedFrom := make([]string, len(sources))
	for i, source := range sources {
		mergedFrom[i] = source.Name
	}

	metadata := map[string]interface{}{
		"name":        name,
		"description": description,
		"version":     version,
		"author":      MasterAuthor,
		"category":    first.Category,
		"tags":        tags,
		"merged_from": mergedFrom,
	}

	return &skills.MasterRecord{
		SkillRecord: skills.SkillRecord{
			Name:        name,
			Description: description,
			Version:     version,
			Author:      MasterAuthor,
			Category:    first.Category,
			Tags:        tags,
			RawMetadata: metadata,
			Body:        mergeBodies(sources),
		},
		MergedFrom:     mergedFrom,
		ConsolidatedAt: time.Now(),
	}
}

// mergeVersions parses every source version as a major.minor.patch integer
// tuple, takes the maximum tuple, and increments its patch component. Any
// unparsable version makes the whole merge fall back to FallbackVersion.
func mergeVersions(sources []*skills.SkillRecord) (string, error) {
	var max [3]int
	for i, source := range sources {
		parsed, err := parseVersion(source.Version)
		if err != nil {
			return FallbackVersion, err
		}
		if i == 0 || lessVersion(max, parsed) {
			max = parsed
		}
	}

	max[2]++
	return fmt.Sprintf("%d.%d.%d", max[0], max[1], max[2]), nil
}

func parseVersion(version string) ([3]int, error) {
	var parsed [3]int

	parts := strings.Split(version, ".")
	if len(parts) < 3 {
		return parsed, &VersionFormatError{Version: version}
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return parsed, &VersionFormatError{Version: version}
		}
		parsed[i] = n
	}

	return parsed, nil
}

func lessVersion(a, b [3]int) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// mergeDescriptions trims and drops empty descriptions, deduplicates by exact
// string equality preserving first occurrence, and joins with single spaces.
func mergeDescriptions(sources []*skills.SkillRecord) string {
	seen := make(map[string]bool)
	var unique []string

	for _, source := range sources {
		description := strings.TrimSpace(source.Description)
		if description == "" || seen[description] {
			continue
		}
		seen[description] = true
		unique = append(unique, description)
	}

	return strings.Join(unique, " ")
}

// mergeBodies splits every source body into sections at heading boundaries,
// deduplicates sections by exact equality across all sources in first-seen
// order, and joins them under a fixed heading. Sources with no body content
// produce a fixed placeholder.
func mergeBodies(sources []*skills.SkillRecord) string {
	seen := make(map[string]bool)
	var unique []string

	for _, source := range sources {
		for _, section := range splitSections(source.Body) {
			if seen[section] {
				continue
			}
			seen[section] = true
			unique = append(unique, section)
		}
	}

	if len(unique) == 0 {
		return placeholderBody
	}

	return consolidatedHeading + "\n\n" + strings.Join(unique, "\n\n")
}

// splitSections splits a body at boundaries preceding a markdown heading
// line, trimming each section and dropping empty ones.
func splitSections(body string) []string {
	var sections []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		section := strings.TrimSpace(strings.Join(current, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		current = nil
	}

	for _, line := range strings.Split(body, "\n") {
		if headingLine.MatchString(line) && len(current) > 0 {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return sections
}

// mergeTags unions tags across all sources, collapsing duplicates and
// preserving first-seen order.
func mergeTags(sources []*skills.SkillRecord) []string {
	seen := make(map[string]bool)
	var union []string

	for _, source := range sources {
		for _, tag := range source.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			union = append(union, tag)
		}
	}

	return union
}
