// Package clustering groups skill records by semantic similarity of their
// descriptions using greedy single-link clustering.
package clustering

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/similarity"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
)

// Cluster is a non-empty ordered group of skills judged mutually similar.
// Clusters are identified by a run-scoped sequential id and discarded at run
// end.
type Cluster struct {
	ID     string
	Skills []*skills.SkillRecord
}

// Size returns the number of skills in the cluster.
func (c *Cluster) Size() int {
	return len(c.Skills)
}

// Engine partitions skill records into clusters.
type Engine struct {
	sim *similarity.Engine
}

// NewEngine creates a clustering engine on top of a similarity engine.
func NewEngine(sim *similarity.Engine) *Engine {
	return &Engine{sim: sim}
}

// Cluster groups records whose similarity to a cluster's seed meets the
// threshold. The algorithm is greedy and order-dependent: records are visited
// in input order, each unassigned record seeds a new cluster, and every later
// unassigned record joins when its similarity to the seed reaches the
// threshold. Members are only ever compared against the seed, not against
// each other, so this is not transitive-closure clustering. The threshold is
// accepted as-is, including values outside [0, 1].
func (e *Engine) Cluster(records []*skills.SkillRecord, threshold float64) ([]*Cluster, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = textKey(record)
	}

	matrix, err := e.sim.Matrix(texts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute similarity matrix")
	}

	clustered := make([]bool, len(records))
	clusters := make([]*Cluster, 0)

	for i, record := range records {
		if clustered[i] {
			continue
		}

		cluster := &Cluster{
			ID:     fmt.Sprintf("cluster_%d", len(clusters)),
			Skills: []*skills.SkillRecord{record},
		}
		clustered[i] = true

		for j := i + 1; j < len(records); j++ {
			if clustered[j] {
				continue
			}
			if matrix[i][j] >= threshold {
				cluster.Skills = append(cluster.Skills, records[j])
				clustered[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters, nil
}

// DuplicatePair is a pair of skills whose similarity meets the duplicate
// threshold.
type DuplicatePair struct {
	A     *skills.SkillRecord
	B     *skills.SkillRecord
	Score float64
}

// FindDuplicates reports all pairs of records scoring at or above the
// threshold, in input-pair order.
func (e *Engine) FindDuplicates(records []*skills.SkillRecord, threshold float64) ([]DuplicatePair, error) {
	var duplicates []DuplicatePair

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			score, err := e.sim.Similarity(textKey(records[i]), textKey(records[j]))
			if err != nil {
				return nil, errors.Wrap(err, "failed to score pair")
			}
			if score >= threshold {
				duplicates = append(duplicates, DuplicatePair{
					A:     records[i],
					B:     records[j],
					Score: score,
				})
			}
		}
	}

	return duplicates, nil
}

// textKey is the text a record is clustered by: its description, falling back
// to its name when the description is empty.
func textKey(record *skills.SkillRecord) string {
	if record.Description != "" {
		return record.Description
	}
	return record.Name
}
