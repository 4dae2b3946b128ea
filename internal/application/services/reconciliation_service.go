package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexuscrm/fieldsync/internal/application/comparator"
	"github.com/nexuscrm/fieldsync/internal/application/compiler"
	"github.com/nexuscrm/fieldsync/internal/application/syncstorage"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/internal/domain/ports"
	"github.com/nexuscrm/fieldsync/pkg/constants"
	appErrors "github.com/nexuscrm/fieldsync/pkg/errors"

	log "github.com/sirupsen/logrus"
)

// ReconciliationConfig selects how target specs are produced
type ReconciliationConfig struct {
	Mode                 constants.SyncMode
	ReferenceWorkspaceID string
}

// ReconciliationService drives one workspace pass end to end: compile,
// compare, apply, then plan and execute the physical migrations.
type ReconciliationService struct {
	store    ports.MetadataStore
	flags    ports.FeatureFlagProvider
	executor ports.MigrationExecutor
	compiler *compiler.Compiler
	config   ReconciliationConfig
}

// NewReconciliationService creates a new ReconciliationService.
// executor may be nil, in which case plans are returned but not executed.
func NewReconciliationService(
	store ports.MetadataStore,
	flags ports.FeatureFlagProvider,
	executor ports.MigrationExecutor,
	c *compiler.Compiler,
	config ReconciliationConfig,
) *ReconciliationService {
	if config.Mode == "" {
		config.Mode = constants.SyncModeGenesis
	}
	return &ReconciliationService{
		store:    store,
		flags:    flags,
		executor: executor,
		compiler: c,
		config:   config,
	}
}

// PlanResult is the outcome of the compare phase of a pass
type PlanResult struct {
	WorkspaceID string
	Storage     *syncstorage.Storage
	Objects     map[string]*models.ObjectMetadata
}

// SyncWorkspace reconciles one workspace and returns the migration plan it
// produced. An up-to-date workspace yields an empty plan and no writes.
func (s *ReconciliationService) SyncWorkspace(ctx context.Context, workspaceID string) (*models.MigrationPlan, error) {
	start := time.Now()
	planned, err := s.Plan(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	logger := log.WithField("workspace", workspaceID)
	if planned.Storage.IsEmpty() {
		logger.Infof("✅ Workspace %s field metadata is up to date", workspaceID)
		return &models.MigrationPlan{WorkspaceID: workspaceID}, nil
	}

	result, err := s.store.ApplyFieldChanges(ctx, workspaceID, planned.Storage.ChangeSet())
	if err != nil {
		if appErrors.IsApply(err) {
			return nil, err
		}
		return nil, appErrors.NewApplyError(workspaceID, err)
	}

	plan := BuildMigrationPlan(workspaceID, result, planned.Objects)
	if s.executor != nil && !plan.IsEmpty() {
		if err := s.executor.ExecuteMigrations(ctx, workspaceID, plan); err != nil {
			if appErrors.IsMigration(err) {
				return nil, err
			}
			return nil, appErrors.NewMigrationError(workspaceID, "", err)
		}
	}

	logger.WithFields(log.Fields{
		"deleted":  plan.Count(constants.ActionDelete),
		"updated":  plan.Count(constants.ActionUpdate),
		"created":  plan.Count(constants.ActionCreate),
		"duration": time.Since(start).String(),
	}).Infof("🔄 Reconciled workspace %s", workspaceID)
	return plan, nil
}

// Plan runs the read-only part of a pass: every object is compiled and
// compared and the results accumulated. Nothing is written.
func (s *ReconciliationService) Plan(ctx context.Context, workspaceID string) (*PlanResult, error) {
	objects, err := s.store.ListObjects(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load objects of workspace %s: %w", workspaceID, err)
	}
	if len(objects) == 0 {
		return nil, appErrors.NewNotFoundError("workspace", workspaceID)
	}

	flags, err := s.flags.GetFeatureFlags(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature flags of workspace %s: %w", workspaceID, err)
	}

	var reference *compiler.ReferenceSnapshot
	if s.usesReference(workspaceID) {
		reference, err = s.loadReference(ctx)
		if err != nil {
			return nil, err
		}
	}

	cctx := compiler.NewContext(workspaceID, flags, objects)
	storage := syncstorage.New()
	byID := make(map[string]*models.ObjectMetadata, len(objects))
	var custom []*models.ObjectMetadata

	for i := range objects {
		obj := &objects[i]
		byID[obj.ID] = obj
		if obj.IsCustom {
			custom = append(custom, obj)
			continue
		}

		target, err := s.compileStandard(cctx, reference, obj)
		if err != nil {
			return nil, fmt.Errorf("failed to compile object %s: %w", obj.NameSingular, err)
		}
		if target == nil {
			continue
		}
		if err := s.compare(storage, obj, target); err != nil {
			return nil, err
		}
	}

	if len(custom) > 0 {
		tpl, err := s.compiler.CompileTemplate(cctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom object template: %w", err)
		}
		for _, obj := range custom {
			target, err := s.compiler.InstantiateTemplate(cctx, tpl, obj)
			if err != nil {
				return nil, fmt.Errorf("failed to compile custom object %s: %w", obj.NameSingular, err)
			}
			if err := s.compare(storage, obj, target); err != nil {
				return nil, err
			}
		}
	}

	storage.OrderCreates()

	creates, updates, deletes := storage.Counts()
	log.WithFields(log.Fields{
		"workspace": workspaceID,
		"mode":      s.modeFor(workspaceID),
		"create":    creates,
		"update":    updates,
		"delete":    deletes,
	}).Debugf("📐 Planned workspace %s", workspaceID)

	return &PlanResult{WorkspaceID: workspaceID, Storage: storage, Objects: byID}, nil
}

// usesReference reports whether a workspace is re-projected. The reference
// workspace itself is always compiled from code.
func (s *ReconciliationService) usesReference(workspaceID string) bool {
	return s.config.Mode == constants.SyncModeReference && workspaceID != s.config.ReferenceWorkspaceID
}

func (s *ReconciliationService) modeFor(workspaceID string) constants.SyncMode {
	if s.usesReference(workspaceID) {
		return constants.SyncModeReference
	}
	return constants.SyncModeGenesis
}

func (s *ReconciliationService) loadReference(ctx context.Context) (*compiler.ReferenceSnapshot, error) {
	refID := s.config.ReferenceWorkspaceID
	objects, err := s.store.ListObjects(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference workspace %s: %w", refID, err)
	}
	if len(objects) == 0 {
		return nil, appErrors.NewNotFoundError("reference workspace", refID)
	}
	return compiler.NewReferenceSnapshot(refID, objects), nil
}

// compileStandard compiles one standard object in the configured mode. A nil
// target means the object is skipped this pass.
func (s *ReconciliationService) compileStandard(cctx *compiler.Context, reference *compiler.ReferenceSnapshot, obj *models.ObjectMetadata) (*compiler.ObjectTarget, error) {
	sid := obj.GetStandardID()
	logger := log.WithFields(log.Fields{"workspace": cctx.WorkspaceID, "object": obj.NameSingular})
	if sid == "" {
		return nil, appErrors.NewConfigurationError("object "+obj.NameSingular, "standard object without a standard id")
	}
	def, hasDef := s.compiler.Registry().Object(sid)

	var (
		target *compiler.ObjectTarget
		err    error
	)
	if reference == nil {
		if !hasDef {
			logger.Warnf("⚠️  Skipping object %s: no code definition for standard id %s", obj.NameSingular, sid)
			return nil, nil
		}
		target, err = s.compiler.CompileObject(cctx, def, obj.ID)
	} else {
		refObj, ok := reference.ObjectByStandardID(sid)
		if !ok || !compiler.ObjectEligible(refObj) {
			logger.Infof("⏭️  Skipping object %s: not projectable from reference workspace", obj.NameSingular)
			return nil, nil
		}
		target, err = s.compiler.ReprojectObject(cctx, reference, refObj, obj.ID, def)
	}
	if err != nil {
		return nil, err
	}

	if err := s.compiler.Finalize(cctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *ReconciliationService) compare(storage *syncstorage.Storage, obj *models.ObjectMetadata, target *compiler.ObjectTarget) error {
	results, err := comparator.Compare(comparator.Input{
		ObjectMetadataID: obj.ID,
		Persisted:        obj.Fields,
		Specs:            target.Specs,
		Suppressed:       target.Suppressed,
	})
	if err != nil {
		return fmt.Errorf("failed to compare fields of object %s: %w", obj.NameSingular, err)
	}
	storage.Accumulate(results)
	return nil
}
