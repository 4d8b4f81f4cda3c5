package tasks

import (
	"context"
	"fmt"

	"github.com/dnbdoctor/labelsync/internal/dedup"
	"github.com/dnbdoctor/labelsync/internal/repositories"
)

// DedupeResult is the plan and, when applied, the per-cluster outcomes.
type DedupeResult struct {
	Applied  bool                        `json:"applied"`
	Clusters []dedup.Cluster             `json:"clusters"`
	Summary  dedup.Summary               `json:"summary"`
	Merges   []*repositories.MergeResult `json:"merges,omitempty"`
	Stats    *Stats                      `json:"stats"`
}

// Dedupe plans merges of subscribers sharing a canonical email and, when apply is set, merges each
// cluster in its own transaction. Without apply nothing but the journal is written.
func (e *Engine) Dedupe(ctx context.Context, apply bool, progress chan<- ProgressUpdate) (*DedupeResult, error) {
	j, err := e.begin(ctx, TaskDedupe, !apply)
	if err != nil {
		return nil, err
	}

	subs, err := e.subscribers.List(ctx)
	if err != nil {
		_, err = j.finish(ctx, err)
		return nil, err
	}

	clusters := dedup.Plan(subs, e.canon)
	result := &DedupeResult{Applied: apply, Clusters: clusters, Summary: dedup.Summarize(clusters)}
	e.sendProgress(progress, planUpdate(len(clusters), len(subs)))

	j.stats.Total = len(clusters)
	j.logger.Info("planned merges",
		"subscribers", len(subs),
		"clusters", result.Summary.Clusters,
		"duplicates", result.Summary.Duplicates,
		"rewrites", result.Summary.Rewrites,
	)

	if !apply {
		j.stats.Skipped = len(clusters)
		result.Stats, err = j.finish(ctx, nil)
		return result, err
	}

	for i, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			result.Stats, err = j.finish(ctx, err)
			return result, err
		}

		merge, err := e.subscribers.MergeCluster(ctx, cluster, e.now())
		if err != nil {
			j.stats.Failed++
			result.Stats, err = j.finish(ctx, fmt.Errorf("cluster %d/%d: %w", i+1, len(clusters), err))
			return result, err
		}
		result.Merges = append(result.Merges, merge)
		j.stats.Updated++

		j.logger.Info(fmt.Sprintf("Merged %d/%d", i+1, len(clusters)),
			"key", cluster.Key,
			"primary", merge.Primary.ID,
			"deleted", merge.Deleted,
			"email_logs", merge.EmailLogsMoved,
			"influencers", merge.InfluencersMerged,
		)
		e.sendProgress(progress, mergedUpdate(i+1, len(clusters), cluster.Key))
	}

	result.Stats, err = j.finish(ctx, nil)
	return result, err
}
