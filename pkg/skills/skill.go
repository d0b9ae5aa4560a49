// Package skills implements the skill document model: discovery of skill
// markdown files with YAML frontmatter, parsing them into records, and
// serializing consolidated records back into the same format.
package skills

import "time"

// Default values applied for optional frontmatter fields.
const (
	DefaultVersion  = "1.0.0"
	DefaultAuthor   = "Unknown"
	DefaultCategory = "uncategorized"
)

// Metadata represents the recognized YAML frontmatter fields of a skill
// document. Unknown keys are kept in SkillRecord.RawMetadata.
type Metadata struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Description string   `yaml:"description" mapstructure:"description"`
	Version     string   `yaml:"version" mapstructure:"version"`
	Author      string   `yaml:"author" mapstructure:"author"`
	Category    string   `yaml:"category" mapstructure:"category"`
	Tags        []string `yaml:"tags" mapstructure:"tags"`
}

// SkillRecord is one parsed skill document. Records are never mutated after
// creation; consolidation supersedes them with a MasterRecord.
type SkillRecord struct {
	Name        string
	Description string
	Version     string
	Author      string
	Category    string
	Tags        []string
	RawMetadata map[string]interface{} // full frontmatter, preserved for round-trip
	Body        string
	SourcePath  string
}

// MasterRecord is a skill record produced by consolidating a cluster of
// similar skills.
type MasterRecord struct {
	SkillRecord

	MergedFrom     []string // source skill names, in cluster order
	ConsolidatedAt time.Time
}
