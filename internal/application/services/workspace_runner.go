package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/internal/domain/ports"

	log "github.com/sirupsen/logrus"
)

// DefaultConcurrency bounds concurrent workspace passes when none is configured
const DefaultConcurrency = 4

// WorkspaceSyncer reconciles a single workspace
type WorkspaceSyncer interface {
	SyncWorkspace(ctx context.Context, workspaceID string) (*models.MigrationPlan, error)
}

// WorkspaceLister lists the workspaces to reconcile
type WorkspaceLister interface {
	ListWorkspaceIDs(ctx context.Context) ([]string, error)
}

// WorkspaceRunner runs independent workspace passes with bounded concurrency.
// A failing workspace is reported and never stops the others.
type WorkspaceRunner struct {
	syncer      WorkspaceSyncer
	lister      WorkspaceLister
	locker      ports.WorkspaceLocker
	concurrency int
}

// NewWorkspaceRunner creates a new WorkspaceRunner. locker may be nil.
func NewWorkspaceRunner(syncer WorkspaceSyncer, lister WorkspaceLister, locker ports.WorkspaceLocker, concurrency int) *WorkspaceRunner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &WorkspaceRunner{
		syncer:      syncer,
		lister:      lister,
		locker:      locker,
		concurrency: concurrency,
	}
}

// SyncAll reconciles the given workspaces, or every workspace when none is given
func (r *WorkspaceRunner) SyncAll(ctx context.Context, workspaceIDs []string) (*models.RunReport, error) {
	if len(workspaceIDs) == 0 {
		ids, err := r.lister.ListWorkspaceIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list workspaces: %w", err)
		}
		workspaceIDs = ids
	}

	report := &models.RunReport{
		StartedAt: time.Now(),
		Outcomes:  make([]models.WorkspaceOutcome, len(workspaceIDs)),
	}
	log.Printf("🚀 Reconciling %d workspace(s) with concurrency %d", len(workspaceIDs), r.concurrency)

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, workspaceID := range workspaceIDs {
		g.Go(func() error {
			report.Outcomes[i] = r.syncOne(ctx, workspaceID)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	failed := report.Failed()
	for _, o := range failed {
		log.WithField("workspace", o.WorkspaceID).Errorf("❌ Workspace %s failed: %v", o.WorkspaceID, o.Err)
	}
	log.Printf("🏁 Reconciled %d/%d workspace(s) in %s", report.Succeeded(), len(workspaceIDs), report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (r *WorkspaceRunner) syncOne(ctx context.Context, workspaceID string) (outcome models.WorkspaceOutcome) {
	outcome.WorkspaceID = workspaceID
	start := time.Now()
	defer func() { outcome.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		outcome.Skipped = true
		outcome.Err = err
		return outcome
	}

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, workspaceID)
		if err != nil {
			outcome.Err = fmt.Errorf("failed to lock workspace %s: %w", workspaceID, err)
			return outcome
		}
		defer unlock()
	}

	outcome.Plan, outcome.Err = r.syncer.SyncWorkspace(ctx, workspaceID)
	return outcome
}
