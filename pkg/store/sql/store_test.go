package sql_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/contract"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/sqltest"
	"github.com/goosemania/pulp-2to3-migrate/pkg/utils"
)

func newTestStore(t *testing.T) *sql.Store {
	t.Helper()

	return sqltest.NewStore(t, 2)
}

func TestMigrationPlanLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	first := &model.MigrationPlan{Plan: `{"plugins":[{"type":"rpm"}]}`}
	second := &model.MigrationPlan{Plan: `{"plugins":[{"type":"rpm"}]}`}

	require.Nil(t, store.CreateMigrationPlan(ctx, first))
	require.Nil(t, store.CreateMigrationPlan(ctx, second))
	require.NotEmpty(t, first.ID)

	plan, contractErr := store.GetMigrationPlan(ctx, first.ID)
	require.Nil(t, contractErr)
	assert.JSONEq(t, first.Plan, plan.Plan)

	page, contractErr := store.ListMigrationPlans(ctx, "", 1, "")
	require.Nil(t, contractErr)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.NextPageToken)

	page, contractErr = store.ListMigrationPlans(ctx, "", 1, *page.NextPageToken)
	require.Nil(t, contractErr)
	require.Len(t, page.Items, 1)

	task := &model.Task{Name: "migrate_from_pulp2", State: contract.TaskStateWaiting}
	require.Nil(t, store.CreateTask(ctx, task))
	require.Nil(t, store.AddMigrationPlanTask(ctx, second.ID, task.ID))

	page, contractErr = store.ListMigrationPlans(ctx, task.ID, 10, "")
	require.Nil(t, contractErr)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Nil(t, page.NextPageToken)

	require.Nil(t, store.DeleteMigrationPlan(ctx, second.ID))

	_, contractErr = store.GetMigrationPlan(ctx, second.ID)
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, contractErr.Code)

	contractErr = store.DeleteMigrationPlan(ctx, second.ID)
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, contractErr.Code)

	_, contractErr = store.ListMigrationPlans(ctx, "", 10, "not a token")
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, contractErr.Code)
}

func TestTaskTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	task := &model.Task{
		Name:              "migrate_from_pulp2",
		State:             contract.TaskStateWaiting,
		Kwargs:            map[string]any{"dry_run": true},
		ReservedResources: []string{"pulp_2to3_migration"},
	}
	require.Nil(t, store.CreateTask(ctx, task))

	now := time.Now().UTC()
	require.Nil(t, store.TransitionTask(
		ctx, task.ID, []string{contract.TaskStateWaiting}, contract.TaskStateRunning, now, nil,
	))

	contractErr := store.TransitionTask(
		ctx, task.ID, []string{contract.TaskStateWaiting}, contract.TaskStateCanceled, now, nil,
	)
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeResourceConflict, contractErr.Code)

	contractErr = store.TransitionTask(
		ctx, "missing", []string{contract.TaskStateWaiting}, contract.TaskStateRunning, now, nil,
	)
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, contractErr.Code)

	require.Nil(t, store.SaveProgressReport(ctx, task.ID, model.ProgressReport{
		Code: "migrating.rpm.content", Message: "Migrating rpm content to Pulp 3", State: contract.TaskStateRunning,
		Total: utils.PtrTo[int64](3),
	}))
	require.Nil(t, store.SaveProgressReport(ctx, task.ID, model.ProgressReport{
		Code: "migrating.rpm.content", Message: "Migrating rpm content to Pulp 3", State: contract.TaskStateCompleted,
		Total: utils.PtrTo[int64](3), Done: 3,
	}))

	stored, contractErr := store.GetTask(ctx, task.ID)
	require.Nil(t, contractErr)
	assert.Equal(t, contract.TaskStateRunning, stored.State)
	assert.NotNil(t, stored.StartedAt)
	assert.Equal(t, true, stored.Kwargs["dry_run"])
	assert.Equal(t, []string{"pulp_2to3_migration"}, stored.ReservedResources)
	require.Len(t, stored.ProgressReports, 1)
	assert.Equal(t, int64(3), stored.ProgressReports[0].Done)
	assert.Equal(t, contract.TaskStateCompleted, stored.ProgressReports[0].State)

	failed, contractErr := store.FailUnfinishedTasks(ctx, "worker stopped")
	require.Nil(t, contractErr)
	assert.Equal(t, int64(1), failed)

	stored, contractErr = store.GetTask(ctx, task.ID)
	require.Nil(t, contractErr)
	assert.Equal(t, contract.TaskStateFailed, stored.State)
	require.NotNil(t, stored.Error)
	assert.Equal(t, "worker stopped", *stored.Error)
	assert.NotNil(t, stored.FinishedAt)

	tasks, contractErr := store.ListTasks(ctx, contract.TaskStateFailed, "migrate_from_pulp2", 10, "")
	require.Nil(t, contractErr)
	assert.Len(t, tasks.Items, 1)

	tasks, contractErr = store.ListTasks(ctx, contract.TaskStateCompleted, "", 10, "")
	require.Nil(t, contractErr)
	assert.Empty(t, tasks.Items)
}

func stagedContent(id string, lastUpdated int64) model.Pulp2Content {
	return model.Pulp2Content{
		Pulp2ID:            id,
		Pulp2ContentTypeID: "rpm",
		Pulp2LastUpdated:   lastUpdated,
		Pulp2StoragePath:   utils.PtrTo("/var/lib/pulp/content/units/rpm/" + id),
		Downloaded:         true,
	}
}

func TestStagePulp2Content(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	lastUpdated, err := store.LastUpdated(ctx, "rpm")
	require.NoError(t, err)
	assert.Zero(t, lastUpdated)

	staged, err := store.CreatePulp2Content(ctx, []model.Pulp2Content{
		stagedContent("a", 10), stagedContent("b", 20), stagedContent("c", 30),
	})
	require.NoError(t, err)
	require.Len(t, staged, 3)

	restaged, err := store.CreatePulp2Content(ctx, []model.Pulp2Content{stagedContent("c", 40)})
	require.NoError(t, err)
	require.Len(t, restaged, 1)
	assert.Equal(t, staged[2].ID, restaged[0].ID)
	assert.Equal(t, int64(40), restaged[0].Pulp2LastUpdated)

	lastUpdated, err = store.LastUpdated(ctx, "rpm")
	require.NoError(t, err)
	assert.Equal(t, int64(40), lastUpdated)

	count, err := store.CountUnmigratedContent(ctx, "rpm")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	firstPage, err := store.UnmigratedContent(ctx, "rpm", "", 2)
	require.NoError(t, err)
	require.Len(t, firstPage, 2)

	secondPage, err := store.UnmigratedContent(ctx, "rpm", firstPage[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
}

func newPackage(name string) *model.Package {
	return &model.Package{
		Name: name, Epoch: "0", Version: "1.0", Release: "1", Arch: "noarch",
		PkgID: "abc123", ChecksumType: "sha256", LocationHref: name + "-1.0-1.noarch.rpm",
	}
}

func TestSavePulp3ContentReusesNaturalKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	staged, err := store.CreatePulp2Content(ctx, []model.Pulp2Content{stagedContent("a", 1), stagedContent("b", 2)})
	require.NoError(t, err)
	require.Len(t, staged, 2)

	require.NoError(t, store.CreateDetails(ctx, &[]model.Pulp2Rpm{
		{Pulp2ContentID: staged[0].ID, Name: "bear", Epoch: "0", Version: "1.0", Release: "1", Arch: "noarch",
			Checksum: "abc123", ChecksumType: "sha256", Filename: "bear-1.0-1.noarch.rpm"},
	}))
	// Detail rows staged twice are ignored.
	require.NoError(t, store.CreateDetails(ctx, &[]model.Pulp2Rpm{
		{Pulp2ContentID: staged[0].ID, Name: "bear", Epoch: "0", Version: "1.0", Release: "1", Arch: "noarch",
			Checksum: "abc123", ChecksumType: "sha256", Filename: "bear-1.0-1.noarch.rpm"},
	}))

	rpms, err := store.Pulp2Rpms(ctx, []string{staged[0].ID, staged[1].ID})
	require.NoError(t, err)
	require.Len(t, rpms, 1)

	artifact := func() []model.ContentArtifact {
		return []model.ContentArtifact{{
			RelativePath: "bear-1.0-1.noarch.rpm",
			Artifact: &model.Artifact{
				File: "artifact/ab/c123", Size: 4, SHA256: "abc123",
			},
		}}
	}

	firstID, err := store.SavePulp3Content(ctx, staged[0], newPackage("bear"), artifact())
	require.NoError(t, err)

	secondID, err := store.SavePulp3Content(ctx, staged[1], newPackage("bear"), artifact())
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	count, err := store.CountUnmigratedContent(ctx, "rpm")
	require.NoError(t, err)
	assert.Zero(t, count)

	page, contractErr := store.SearchPulp2Content(ctx, "migrated = true", nil, 10, "")
	require.Nil(t, contractErr)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[0].Pulp3Content)
	assert.Equal(t, model.PackagePulpType, page.Items[0].Pulp3Content.PulpType)
}

func TestSearchPulp2Content(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	staged, err := store.CreatePulp2Content(ctx, []model.Pulp2Content{
		stagedContent("a", 10), stagedContent("b", 20), stagedContent("c", 30),
	})
	require.NoError(t, err)
	require.Len(t, staged, 3)

	details := make([]model.Pulp2Rpm, 0, len(staged))
	for _, content := range staged {
		details = append(details, model.Pulp2Rpm{
			Pulp2ContentID: content.ID, Name: "pkg-" + content.Pulp2ID, Epoch: "0", Version: "1", Release: "1",
			Arch: "x86_64", Checksum: content.Pulp2ID, ChecksumType: "sha256",
		})
	}
	require.NoError(t, store.CreateDetails(ctx, &details))

	scenarios := []struct {
		name     string
		filter   string
		orderBy  []string
		expected []string
	}{
		{name: "no filter", expected: []string{"a", "b", "c"}},
		{name: "by last updated", filter: "pulp2_last_updated >= 20", expected: []string{"b", "c"}},
		{name: "descending", orderBy: []string{"pulp2_last_updated DESC"}, expected: []string{"c", "b", "a"}},
		{name: "by rpm name", filter: "rpm.name = \"pkg-b\"", expected: []string{"b"}},
		{name: "by rpm name ilike", filter: "rpm.name ILIKE \"PKG-%\" AND pulp2_id != \"a\"", expected: []string{"b", "c"}},
		{name: "by rpm name list", filter: "rpm.name IN ('pkg-a', 'pkg-c')", expected: []string{"a", "c"}},
		{name: "not migrated", filter: "migrated = false", expected: []string{"a", "b", "c"}},
		{name: "migrated", filter: "migrated != false", expected: []string{}},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			page, contractErr := store.SearchPulp2Content(ctx, scenario.filter, scenario.orderBy, 10, "")
			require.Nil(t, contractErr)

			ids := make([]string, 0, len(page.Items))
			for _, content := range page.Items {
				ids = append(ids, content.Pulp2ID)
			}

			assert.Equal(t, scenario.expected, ids)
		})
	}

	_, contractErr := store.SearchPulp2Content(ctx, "rpm.license = \"GPL\"", nil, 10, "")
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, contractErr.Code)

	_, contractErr = store.SearchPulp2Content(ctx, "", []string{"name DESC"}, 10, "")
	require.NotNil(t, contractErr)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, contractErr.Code)
}
