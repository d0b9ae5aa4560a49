package orchestrator

import (
	"fmt"
	"path/filepath"
)

// Default configuration values, matching the conventional repository layout.
const (
	DefaultSkillsDir           = "skills"
	DefaultArchiveDir          = "archive"
	DefaultSimilarityThreshold = 0.6
	DefaultDuplicateThreshold  = 0.85
	DefaultRemote              = "origin"
)

// Config carries everything a run needs. It is passed in explicitly; the core
// never reads ambient process state.
type Config struct {
	// RepoPath is the root of the target repository. Required.
	RepoPath string
	// SkillsDir is the directory under RepoPath scanned for skill documents.
	SkillsDir string
	// OutputDir is the directory under RepoPath consolidated skills are
	// written to. Defaults to SkillsDir.
	OutputDir string
	// ArchiveDir is the directory under RepoPath superseded sources are
	// moved to.
	ArchiveDir string
	// SimilarityThreshold is the minimum score for grouping two skills. It
	// is accepted as-is, including values outside [0, 1].
	SimilarityThreshold float64
	// DuplicateThreshold is the minimum score for flagging a pair as
	// duplicates.
	DuplicateThreshold float64
	// AutoCommit and AutoPush control the version-control collaborator
	// invoked by the caller after a successful run.
	AutoCommit bool
	AutoPush   bool
	Remote     string
	Branch     string
}

// DefaultConfig returns a Config with defaults applied for the given repo.
func DefaultConfig(repoPath string) Config {
	return Config{
		RepoPath:            repoPath,
		SkillsDir:           DefaultSkillsDir,
		ArchiveDir:          DefaultArchiveDir,
		SimilarityThreshold: DefaultSimilarityThreshold,
		DuplicateThreshold:  DefaultDuplicateThreshold,
		AutoCommit:          true,
		Remote:              DefaultRemote,
	}
}

// SkillsRoot returns the absolute directory scanned for skill documents.
func (c Config) SkillsRoot() string {
	return filepath.Join(c.RepoPath, c.SkillsDir)
}

// ConfigurationError reports absent or unusable required configuration. It is
// fatal: the run never starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("fatal configuration error: %s", e.Reason)
}

// Validate fills defaults and rejects configs a run cannot start with.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return &ConfigurationError{Reason: "repository path is required"}
	}
	if c.SkillsDir == "" {
		c.SkillsDir = DefaultSkillsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = c.SkillsDir
	}
	if c.ArchiveDir == "" {
		c.ArchiveDir = DefaultArchiveDir
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.DuplicateThreshold == 0 {
		c.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if c.Remote == "" {
		c.Remote = DefaultRemote
	}
	return nil
}
