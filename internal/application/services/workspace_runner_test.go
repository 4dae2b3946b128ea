package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	fail      map[string]bool
	delay     time.Duration
	inFlight  int32
	maxFlight int32
	mu        sync.Mutex
	seen      []string
}

func (f *fakeSyncer) SyncWorkspace(ctx context.Context, workspaceID string) (*models.MigrationPlan, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.maxFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxFlight, peak, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.seen = append(f.seen, workspaceID)
	f.mu.Unlock()
	if f.fail[workspaceID] {
		return nil, errors.New("boom")
	}
	return &models.MigrationPlan{WorkspaceID: workspaceID}, nil
}

type staticLister []string

func (s staticLister) ListWorkspaceIDs(ctx context.Context) ([]string, error) {
	return s, nil
}

type countingLocker struct {
	locked   int32
	unlocked int32
	failFor  string
}

func (l *countingLocker) Lock(ctx context.Context, workspaceID string) (func(), error) {
	if workspaceID == l.failFor {
		return nil, errors.New("held elsewhere")
	}
	atomic.AddInt32(&l.locked, 1)
	return func() { atomic.AddInt32(&l.unlocked, 1) }, nil
}

func TestWorkspaceRunner_FailuresAreIsolated(t *testing.T) {
	syncer := &fakeSyncer{fail: map[string]bool{"ws-2": true}}
	locker := &countingLocker{}
	runner := NewWorkspaceRunner(syncer, staticLister{"ws-1", "ws-2", "ws-3"}, locker, 2)

	report, err := runner.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	assert.Equal(t, "ws-1", report.Outcomes[0].WorkspaceID)
	assert.NoError(t, report.Outcomes[0].Err)
	assert.Error(t, report.Outcomes[1].Err)
	assert.NoError(t, report.Outcomes[2].Err)
	assert.Equal(t, 2, report.Succeeded())
	assert.Len(t, report.Failed(), 1)
	assert.ElementsMatch(t, []string{"ws-1", "ws-2", "ws-3"}, syncer.seen)

	assert.EqualValues(t, 3, locker.locked)
	assert.EqualValues(t, 3, locker.unlocked)
}

func TestWorkspaceRunner_BoundedConcurrency(t *testing.T) {
	syncer := &fakeSyncer{delay: 20 * time.Millisecond}
	runner := NewWorkspaceRunner(syncer, nil, nil, 2)

	ids := []string{"a", "b", "c", "d", "e", "f"}
	report, err := runner.SyncAll(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, len(ids), report.Succeeded())
	assert.LessOrEqual(t, atomic.LoadInt32(&syncer.maxFlight), int32(2))
}

func TestWorkspaceRunner_LockFailure(t *testing.T) {
	syncer := &fakeSyncer{}
	runner := NewWorkspaceRunner(syncer, nil, &countingLocker{failFor: "busy"}, 1)

	report, err := runner.SyncAll(context.Background(), []string{"busy", "free"})
	require.NoError(t, err)
	assert.Error(t, report.Outcomes[0].Err)
	assert.NoError(t, report.Outcomes[1].Err)
	assert.Equal(t, []string{"free"}, syncer.seen)
}

func TestWorkspaceRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewWorkspaceRunner(&fakeSyncer{}, nil, nil, 1)
	report, err := runner.SyncAll(ctx, []string{"ws-1"})
	require.NoError(t, err)
	assert.True(t, report.Outcomes[0].Skipped)
	assert.ErrorIs(t, report.Outcomes[0].Err, context.Canceled)
}

func TestSchedulerService(t *testing.T) {
	runner := NewWorkspaceRunner(&fakeSyncer{fail: map[string]bool{"ws-2": true}}, staticLister{"ws-1", "ws-2"}, nil, 1)

	bad := NewSchedulerService(runner, "not a schedule")
	assert.Error(t, bad.Start())

	scheduler := NewSchedulerService(runner, "@every 1h")
	require.NoError(t, scheduler.Start())
	failed, err := scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	scheduler.Stop()
	scheduler.Stop()
}
