// Package orchestrator sequences the skill consolidation pipeline:
// discovery, clustering, consolidation, publishing, and archival. It is the
// sole caller of the other components and reports a structured run summary.
// A run is strictly sequential; each phase completes before the next begins.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/clustering"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/consolidation"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/embedding"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/similarity"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/telemetry"
)

// Orchestrator drives the consolidation pipeline for one repository.
type Orchestrator struct {
	config    Config
	clusterer *clustering.Engine
	archive   ArchiveStore
	phase     Phase
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEmbedder replaces the default in-process hashing embedder.
func WithEmbedder(embedder embedding.Embedder) Option {
	return func(o *Orchestrator) {
		o.clusterer = clustering.NewEngine(similarity.NewEngine(embedder))
	}
}

// WithArchiveStore replaces the default filesystem archive store.
func WithArchiveStore(store ArchiveStore) Option {
	return func(o *Orchestrator) {
		o.archive = store
	}
}

// New creates an orchestrator for the given configuration.
func New(config Config, opts ...Option) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		config:  config,
		archive: osArchiveStore{},
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.clusterer == nil {
		o.clusterer = clustering.NewEngine(similarity.NewEngine(embedding.NewHashingProvider(0)))
	}

	return o, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.config
}

// Phase returns the current step of the run state machine.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Discover enumerates and parses skill documents without running the rest of
// the pipeline.
func (o *Orchestrator) Discover(ctx context.Context) ([]*skills.SkillRecord, error) {
	discovery := skills.NewDiscovery(o.config.SkillsRoot())
	return discovery.Discover(ctx)
}

// Duplicates reports skill pairs scoring at or above the duplicate threshold.
func (o *Orchestrator) Duplicates(ctx context.Context) ([]clustering.DuplicatePair, error) {
	records, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return o.clusterer.FindDuplicates(records, o.config.DuplicateThreshold)
}

// Run executes the full pipeline and returns its summary. Per-item failures
// (one document, one write, one archive move) are contained to that item and
// logged; only phase-level failures abort the run, leaving the summary in
// the error status. Completed writes are never rolled back.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:          uuid.NewString(),
		Status:         StatusError,
		PublishedFiles: []string{},
		ArchivedFiles:  []string{},
		StartedAt:      time.Now(),
	}

	log := logger.G(ctx).WithField("run_id", summary.RunID)
	ctx = logger.WithLogger(ctx, log)
	log.Info("starting skill orchestration")

	// Phase 1: discovery
	o.phase = PhaseDiscovering
	var records []*skills.SkillRecord
	err := telemetry.WithSpan(ctx, "orchestrator.discover", func(ctx context.Context) error {
		var discoverErr error
		records, discoverErr = o.Discover(ctx)
		return discoverErr
	})
	if err != nil {
		return o.fail(summary), err
	}
	summary.SkillsDiscovered = len(records)

	if len(records) == 0 {
		log.Warn("no skills discovered")
		o.phase = PhaseDone
		summary.Status = StatusNoSkillsFound
		summary.FinishedAt = time.Now()
		return summary, nil
	}

	// Phase 2: clustering
	o.phase = PhaseClustering
	var clusters []*clustering.Cluster
	err = telemetry.WithSpan(ctx, "orchestrator.cluster", func(ctx context.Context) error {
		var clusterErr error
		clusters, clusterErr = o.clusterer.Cluster(records, o.config.SimilarityThreshold)
		return clusterErr
	}, attribute.Float64("threshold", o.config.SimilarityThreshold))
	if err != nil {
		return o.fail(summary), err
	}
	summary.ClustersCreated = len(clusters)
	log.WithField("skills", len(records)).WithField("clusters", len(clusters)).Info("clustered skills")

	// Phase 3: consolidation. Singleton clusters pass through untouched:
	// never consolidated, never archived.
	o.phase = PhaseConsolidating
	var masters []*skills.MasterRecord
	var archivable []*skills.SkillRecord
	telemetry.WithSpanFunc(ctx, "orchestrator.consolidate", func(ctx context.Context) {
		for _, cluster := range clusters {
			master := consolidation.Consolidate(ctx, cluster)
			if master == nil {
				continue
			}
			log.WithField("cluster", cluster.ID).WithField("master", master.Name).Info("consolidated cluster")
			telemetry.AddEvent(ctx, "cluster.consolidated",
				attribute.String("master", master.Name),
				attribute.Int("members", cluster.Size()))
			masters = append(masters, master)
			archivable = append(archivable, cluster.Skills...)
		}
	})
	summary.SkillsConsolidated = len(masters)
	summary.Masters = masters

	// Phase 4: publishing
	o.phase = PhasePublishing
	var itemErrs *multierror.Error
	telemetry.WithSpanFunc(ctx, "orchestrator.publish", func(ctx context.Context) {
		outputDir := filepath.Join(o.config.RepoPath, o.config.OutputDir)
		for _, master := range masters {
			path, err := o.publish(outputDir, master)
			if err != nil {
				log.WithError(err).WithField("skill", master.Name).Error("failed to publish consolidated skill")
				telemetry.RecordError(ctx, err)
				itemErrs = multierror.Append(itemErrs, err)
				continue
			}
			log.WithField("file", path).Info("published consolidated skill")
			summary.PublishedFiles = append(summary.PublishedFiles, path)
		}
	})
	summary.SkillsPublished = len(summary.PublishedFiles)

	// Phase 5: archiving. Originals are relocated, not deleted; a failed
	// move leaves the file in place.
	o.phase = PhaseArchiving
	telemetry.WithSpanFunc(ctx, "orchestrator.archive", func(ctx context.Context) {
		archiveDir := filepath.Join(o.config.RepoPath, o.config.ArchiveDir)
		for _, record := range archivable {
			dest := filepath.Join(archiveDir, filepath.Base(record.SourcePath))
			if err := o.archive.MoveFile(record.SourcePath, dest); err != nil {
				archiveErr := &ArchiveError{Path: record.SourcePath, Err: err}
				log.WithError(archiveErr).Error("failed to archive source skill")
				telemetry.RecordError(ctx, archiveErr)
				itemErrs = multierror.Append(itemErrs, archiveErr)
				continue
			}
			log.WithField("from", record.SourcePath).WithField("to", dest).Info("archived source skill")
			summary.ArchivedFiles = append(summary.ArchivedFiles, dest)
		}
	})
	summary.SkillsArchived = len(summary.ArchivedFiles)

	if err := itemErrs.ErrorOrNil(); err != nil {
		log.WithField("failures", itemErrs.Len()).Warn("run completed with per-item failures")
	}

	o.phase = PhaseDone
	summary.Status = StatusSuccess
	summary.FinishedAt = time.Now()
	log.WithField("consolidated", summary.SkillsConsolidated).
		WithField("published", summary.SkillsPublished).
		WithField("archived", summary.SkillsArchived).
		Info("orchestration complete")

	return summary, nil
}

func (o *Orchestrator) fail(summary *Summary) *Summary {
	o.phase = PhaseError
	summary.Status = StatusError
	summary.FinishedAt = time.Now()
	return summary
}

// publish serializes a master record into the output directory and returns
// the written path.
func (o *Orchestrator) publish(outputDir string, master *skills.MasterRecord) (string, error) {
	path := filepath.Join(outputDir, master.Name+".md")

	content, err := skills.Render(&master.SkillRecord)
	if err != nil {
		return "", &WriteError{Skill: master.Name, Path: path, Err: err}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", &WriteError{Skill: master.Name, Path: path, Err: err}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", &WriteError{Skill: master.Name, Path: path, Err: err}
	}

	return path, nil
}
